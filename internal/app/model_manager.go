package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emmett/voxwake/internal/models"
)

// ModelManager is the interactive front end of models.Manager
type ModelManager struct {
	mgr *models.Manager
	out io.Writer
	in  *bufio.Reader
}

// NewModelManager creates a model manager writing to out and prompting on in
func NewModelManager(mgr *models.Manager, out io.Writer, in io.Reader) *ModelManager {
	return &ModelManager{mgr: mgr, out: out, in: bufio.NewReader(in)}
}

// ListModels prints the catalogue, optionally filtered by engine
func (m *ModelManager) ListModels(engine string) error {
	fmt.Fprintln(m.out, "Available models for download:")
	fmt.Fprintln(m.out)

	n := 0
	for _, model := range m.mgr.Catalog() {
		if engine != "" && model.Engine != engine {
			continue
		}
		n++
		fmt.Fprintf(m.out, "%d. %s\n", n, model.Name)
		fmt.Fprintf(m.out, "   Engine:   %s\n", model.Engine)
		fmt.Fprintf(m.out, "   Language: %s\n", model.Language)
		fmt.Fprintf(m.out, "   Size:     %s\n", model.Size)
		fmt.Fprintf(m.out, "   Info:     %s\n", model.Description)

		status := "Not downloaded"
		if ok, _ := m.mgr.IsDownloaded(model.Name); ok {
			status = "Downloaded"
		}
		fmt.Fprintf(m.out, "   Status:   %s\n", status)
		fmt.Fprintln(m.out)
	}

	fmt.Fprintln(m.out, "To download a model, use:")
	fmt.Fprintln(m.out, "  voxwake models download <model-name>")
	return nil
}

// ListDownloaded prints the downloaded models and marks engine defaults
func (m *ModelManager) ListDownloaded() error {
	downloaded, err := m.mgr.ListDownloaded()
	if err != nil {
		return fmt.Errorf("error listing models: %w", err)
	}

	if len(downloaded) == 0 {
		fmt.Fprintln(m.out, "No models downloaded yet.")
		fmt.Fprintln(m.out, "Use 'voxwake models list' to see available models")
		return nil
	}

	fmt.Fprintf(m.out, "Downloaded models (%d):\n\n", len(downloaded))
	for i, name := range downloaded {
		fmt.Fprintf(m.out, "%d. %s", i+1, name)
		if model, ok := m.mgr.Find(name); ok {
			if def, _ := m.mgr.DefaultModel(model.Engine); def == name {
				fmt.Fprint(m.out, " [DEFAULT]")
			}
		}
		fmt.Fprintln(m.out)
		if p, err := m.mgr.Path(name); err == nil {
			fmt.Fprintf(m.out, "   Path: %s\n", p)
		}
	}
	return nil
}

// Download fetches a model unless it is already present
func (m *ModelManager) Download(ctx context.Context, name string) error {
	model, ok := m.mgr.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s (use 'voxwake models list')", models.ErrUnknownModel, name)
	}

	if ok, err := m.mgr.IsDownloaded(name); err != nil {
		return fmt.Errorf("error checking model: %w", err)
	} else if ok {
		p, _ := m.mgr.Path(name)
		fmt.Fprintf(m.out, "Model '%s' is already downloaded.\nLocation: %s\n", name, p)
		return nil
	}

	fmt.Fprintf(m.out, "Downloading model: %s (%s)\n", model.Name, model.Size)
	if err := m.mgr.Download(ctx, name, m.progress); err != nil {
		return fmt.Errorf("error downloading model: %w", err)
	}
	fmt.Fprintln(m.out)
	fmt.Fprintf(m.out, "Model '%s' downloaded successfully!\n", name)
	return nil
}

// SetDefault stores name as its engine's default model
func (m *ModelManager) SetDefault(name string) error {
	if err := m.mgr.SetDefault(name); err != nil {
		return fmt.Errorf("error setting default model: %w", err)
	}
	model, _ := m.mgr.Find(name)
	fmt.Fprintf(m.out, "Default %s model set to: %s\n", model.Engine, name)

	if ok, _ := m.mgr.IsDownloaded(name); !ok {
		fmt.Fprintln(m.out, "Note: This model is not yet downloaded.")
		fmt.Fprintf(m.out, "Run 'voxwake models download %s' to download it.\n", name)
	}
	return nil
}

// EnsureModel returns the path of the model for engine, downloading it
// first when missing. Without autoDownload the user is asked.
func (m *ModelManager) EnsureModel(ctx context.Context, engine, explicitPath, name string, autoDownload bool) (string, error) {
	p, err := m.mgr.Resolve(engine, explicitPath, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, models.ErrNotDownloaded) {
		return "", err
	}

	if name == "" {
		if name, err = m.mgr.DefaultModel(engine); err != nil {
			return "", err
		}
	}

	if !autoDownload {
		fmt.Fprintf(m.out, "Model '%s' not found. Download it now? (y/n): ", name)
		response, err := m.in.ReadString('\n')
		if err != nil && response == "" {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			return "", fmt.Errorf("model download declined")
		}
	}

	if err := m.Download(ctx, name); err != nil {
		return "", err
	}
	return m.mgr.Path(name)
}

func (m *ModelManager) progress(downloaded, total int64) {
	if total <= 0 {
		fmt.Fprintf(m.out, "\rProgress: %d bytes", downloaded)
		return
	}
	percent := float64(downloaded) / float64(total) * 100
	fmt.Fprintf(m.out, "\rProgress: %.1f%% (%d/%d bytes)", percent, downloaded, total)
}
