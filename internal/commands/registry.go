// Package commands loads voice command definitions, matches recognized
// text against them and executes the matched action.
package commands

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// ManifestName is the file each command pack directory must contain
const ManifestName = "command.toml"

var (
	ErrInvalidEntry = errors.New("invalid command entry")
	ErrUnknownType  = errors.New("unknown command type")
	ErrNoMatch      = errors.New("no command matched")
)

// Type selects what a command does when executed
type Type string

const (
	TypeCLI       Type = "cli"
	TypeSound     Type = "sound"
	TypeURL       Type = "url"
	TypeTerminate Type = "terminate"
)

// Entry is one command definition
type Entry struct {
	ID          string   `toml:"id"`
	Type        Type     `toml:"type"`
	Phrases     []string `toml:"phrases"`
	Exe         string   `toml:"exe"`
	Args        []string `toml:"args"`
	Sound       string   `toml:"sound"`
	URL         string   `toml:"url"`
	Description string   `toml:"description"`

	// Pack is the directory name the entry was loaded from
	Pack string `toml:"-"`
	// Dir is the pack directory; relative executables resolve against it
	Dir string `toml:"-"`
}

// Path identifies the entry as <pack>/<id>
func (e Entry) Path() string {
	if e.Pack == "" {
		return e.ID
	}
	return path.Join(e.Pack, e.ID)
}

func (e Entry) validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}
	if len(e.Phrases) == 0 {
		return fmt.Errorf("%w: %s has no phrases", ErrInvalidEntry, e.Path())
	}
	for _, p := range e.Phrases {
		if normalize(p) == "" {
			return fmt.Errorf("%w: %s has an empty phrase", ErrInvalidEntry, e.Path())
		}
	}

	switch e.Type {
	case TypeCLI:
		if e.Exe == "" {
			return fmt.Errorf("%w: %s needs exe", ErrInvalidEntry, e.Path())
		}
	case TypeSound:
		if e.Sound == "" {
			return fmt.Errorf("%w: %s needs sound", ErrInvalidEntry, e.Path())
		}
	case TypeURL:
		if e.URL == "" {
			return fmt.Errorf("%w: %s needs url", ErrInvalidEntry, e.Path())
		}
	case TypeTerminate:
	default:
		return fmt.Errorf("%w %q in %s", ErrUnknownType, e.Type, e.Path())
	}
	return nil
}

type manifest struct {
	Commands []Entry `toml:"commands"`
}

// Registry is an ordered, read-only set of command entries
type Registry struct {
	entries []Entry
	byPath  map[string]int
}

// NewRegistry validates entries and builds a registry preserving their order
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byPath: make(map[string]int, len(entries))}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		p := e.Path()
		if _, dup := r.byPath[p]; dup {
			return nil, fmt.Errorf("%w: duplicate command %s", ErrInvalidEntry, p)
		}
		r.byPath[p] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// LoadRegistry reads every <dir>/<pack>/command.toml. Packs load in name
// order and entries keep their manifest order.
func LoadRegistry(fs afero.Fs, dir string) (*Registry, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read commands directory: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var entries []Entry
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		packDir := filepath.Join(dir, info.Name())
		data, err := afero.ReadFile(fs, filepath.Join(packDir, ManifestName))
		if err != nil {
			if exists, _ := afero.Exists(fs, filepath.Join(packDir, ManifestName)); !exists {
				continue
			}
			return nil, fmt.Errorf("failed to read %s manifest: %w", info.Name(), err)
		}

		var m manifest
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s manifest: %w", info.Name(), err)
		}
		for _, e := range m.Commands {
			e.Pack = info.Name()
			e.Dir = packDir
			entries = append(entries, e)
		}
	}

	return NewRegistry(entries...)
}

// Entries returns the entries in registry order
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup finds an entry by its path
func (r *Registry) Lookup(p string) (Entry, bool) {
	i, ok := r.byPath[p]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Len returns the number of entries
func (r *Registry) Len() int { return len(r.entries) }
