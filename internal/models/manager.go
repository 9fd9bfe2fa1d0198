// Package models manages the speech models used by the wake-word and
// speech-to-text engines: the download catalogue, the local model
// directory and the per-engine default.
package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrUnknownModel  = errors.New("unknown model")
	ErrNotDownloaded = errors.New("model not downloaded")
)

// Model describes a downloadable model
type Model struct {
	Name        string
	Engine      string // vosk or whisper
	Language    string
	Size        string
	URL         string
	Description string
}

// Archive reports whether the download is a zip to extract into a
// directory rather than a single model file
func (m Model) Archive() bool {
	return strings.HasSuffix(strings.ToLower(m.URL), ".zip")
}

// Catalog is the built-in list of downloadable models
var Catalog = []Model{
	{
		Name:        "vosk-model-small-en-us-0.15",
		Engine:      "vosk",
		Language:    "en-US",
		Size:        "40M",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Description: "Lightweight English model, fast but less accurate",
	},
	{
		Name:        "vosk-model-en-us-0.22-lgraph",
		Engine:      "vosk",
		Language:    "en-US",
		Size:        "128M",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22-lgraph.zip",
		Description: "Medium English model, balanced speed and accuracy",
	},
	{
		Name:        "vosk-model-en-us-0.22",
		Engine:      "vosk",
		Language:    "en-US",
		Size:        "1.8G",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22.zip",
		Description: "Large English model, slower but more accurate",
	},
	{
		Name:        "ggml-tiny.en",
		Engine:      "whisper",
		Language:    "en",
		Size:        "75M",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.en.bin",
		Description: "Smallest English whisper model, good enough for short commands",
	},
	{
		Name:        "ggml-base.en",
		Engine:      "whisper",
		Language:    "en",
		Size:        "142M",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin",
		Description: "Base English whisper model",
	},
}

// DefaultModels maps an engine to the model used when none is configured
var DefaultModels = map[string]string{
	"vosk":    "vosk-model-small-en-us-0.15",
	"whisper": "ggml-tiny.en",
}

// ManagerConfig configures a Manager
type ManagerConfig struct {
	Fs      afero.Fs
	Dir     string
	Client  *http.Client
	Catalog []Model
}

// Manager stores models under a single directory
type Manager struct {
	fs      afero.Fs
	dir     string
	client  *http.Client
	catalog []Model
}

// NewManager creates a manager. Dir defaults to ./models.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		fs:      cfg.Fs,
		dir:     cfg.Dir,
		client:  cfg.Client,
		catalog: cfg.Catalog,
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.dir == "" {
		m.dir = "models"
	}
	if m.client == nil {
		m.client = http.DefaultClient
	}
	if m.catalog == nil {
		m.catalog = Catalog
	}
	return m
}

// Dir returns the models directory
func (m *Manager) Dir() string { return m.dir }

// Catalog returns the downloadable models
func (m *Manager) Catalog() []Model { return m.catalog }

// Find looks a model up by name
func (m *Manager) Find(name string) (Model, bool) {
	for _, model := range m.catalog {
		if model.Name == name {
			return model, true
		}
	}
	return Model{}, false
}

// localPath is where a model lives once downloaded
func (m *Manager) localPath(model Model) string {
	if model.Archive() {
		return filepath.Join(m.dir, model.Name)
	}
	return filepath.Join(m.dir, path.Base(model.URL))
}

// IsDownloaded reports whether name is present locally
func (m *Manager) IsDownloaded(name string) (bool, error) {
	model, ok := m.Find(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	info, err := m.fs.Stat(m.localPath(model))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir() == model.Archive(), nil
}

// Path returns the local path of a downloaded model
func (m *Manager) Path(name string) (string, error) {
	ok, err := m.IsDownloaded(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotDownloaded, name)
	}
	model, _ := m.Find(name)
	return m.localPath(model), nil
}

func defaultFile(engine string) string {
	return ".default_" + engine
}

// DefaultModel returns the stored default for engine, falling back to the
// built-in default
func (m *Manager) DefaultModel(engine string) (string, error) {
	fallback := DefaultModels[engine]
	data, err := afero.ReadFile(m.fs, filepath.Join(m.dir, defaultFile(engine)))
	if err != nil {
		if os.IsNotExist(err) {
			return fallback, nil
		}
		return fallback, err
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return fallback, nil
	}
	return name, nil
}

// SetDefault stores name as the default for its engine
func (m *Manager) SetDefault(name string) error {
	model, ok := m.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	if err := m.fs.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	if err := afero.WriteFile(m.fs, filepath.Join(m.dir, defaultFile(model.Engine)), []byte(name), 0644); err != nil {
		return fmt.Errorf("failed to save default model: %w", err)
	}
	return nil
}

// Resolve picks the model path for engine: an explicit path wins, then
// the named model, then the engine default.
func (m *Manager) Resolve(engine, explicitPath, name string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}
	if name == "" {
		var err error
		if name, err = m.DefaultModel(engine); err != nil {
			return "", err
		}
	}
	if name == "" {
		return "", fmt.Errorf("no model configured for %s", engine)
	}
	return m.Path(name)
}

// ListDownloaded returns the names of downloaded catalogue models
func (m *Manager) ListDownloaded() ([]string, error) {
	var names []string
	for _, model := range m.catalog {
		ok, err := m.IsDownloaded(model.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, model.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Download fetches name into the models directory. progress may be nil.
func (m *Manager) Download(ctx context.Context, name string, progress func(downloaded, total int64)) error {
	model, ok := m.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	if err := m.fs.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, model.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	tmpPath := filepath.Join(m.dir, path.Base(model.URL)+".part")
	if err := m.save(tmpPath, resp.Body, resp.ContentLength, progress); err != nil {
		_ = m.fs.Remove(tmpPath)
		return err
	}

	if !model.Archive() {
		if err := m.fs.Rename(tmpPath, m.localPath(model)); err != nil {
			return fmt.Errorf("failed to move model into place: %w", err)
		}
		return nil
	}

	defer m.fs.Remove(tmpPath)
	if err := m.extractZip(tmpPath, m.dir); err != nil {
		return fmt.Errorf("failed to extract model: %w", err)
	}
	return nil
}

func (m *Manager) save(dst string, body io.Reader, total int64, progress func(downloaded, total int64)) error {
	out, err := m.fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write file: %w", writeErr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("download error: %w", err)
		}
	}
}

func (m *Manager) extractZip(zipPath, destDir string) error {
	f, err := m.fs.Open(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		return err
	}

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, zf := range r.File {
		fpath := filepath.Join(destDir, zf.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("illegal file path: %s", fpath)
		}

		if zf.FileInfo().IsDir() {
			if err := m.fs.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}
		if err := m.fs.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}
		if err := m.extractFile(zf, fpath); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) extractFile(zf *zip.File, dst string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, zf.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
