package sound

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// Resolver locates sound files, preferring the active voice profile
// directory over the sound root.
type Resolver struct {
	fs           afero.Fs
	root         string
	voice        string
	defaultVoice string
}

// NewResolver creates a resolver for root with the given voice profiles
func NewResolver(fs afero.Fs, root, voice, defaultVoice string) *Resolver {
	return &Resolver{
		fs:           fs,
		root:         root,
		voice:        voice,
		defaultVoice: defaultVoice,
	}
}

// Root returns the sound root directory
func (r *Resolver) Root() string { return r.root }

// Resolve returns the first existing file named name, checking the sound
// directory (active voice, else default voice) before the root.
func (r *Resolver) Resolve(name string) (string, bool) {
	candidates := []string{filepath.Join(r.root, name)}
	if dir, ok := r.SoundDirectory(); ok {
		candidates = append([]string{filepath.Join(dir, name)}, candidates...)
	}
	for _, p := range candidates {
		if r.isFile(p) {
			return p, true
		}
	}
	return "", false
}

// SoundDirectory returns the active voice directory, falling back to the
// default voice directory. It reports false when neither exists.
func (r *Resolver) SoundDirectory() (string, bool) {
	if r.voice != "" {
		p := filepath.Join(r.root, r.voice)
		if filepath.Clean(p) != filepath.Clean(r.root) && r.isDir(p) {
			return p, true
		}
	}
	if p, ok := r.DefaultVoiceDirectory(); ok {
		return p, true
	}
	return "", false
}

// DefaultVoiceDirectory returns the default voice directory if it exists
func (r *Resolver) DefaultVoiceDirectory() (string, bool) {
	if r.defaultVoice == "" {
		return "", false
	}
	p := filepath.Join(r.root, r.defaultVoice)
	if !r.isDir(p) {
		return "", false
	}
	return p, true
}

// Exists reports whether p is an existing regular file
func (r *Resolver) Exists(p string) bool {
	return r.isFile(p)
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.fs.Stat(p)
	return err == nil && !info.IsDir()
}

func (r *Resolver) isDir(p string) bool {
	ok, err := afero.DirExists(r.fs, p)
	return err == nil && ok
}
