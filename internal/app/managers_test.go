package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/voxwake/internal/audio"
	"github.com/emmett/voxwake/internal/models"
)

func testModels(t *testing.T) (*models.Manager, afero.Fs) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ggml"))
	}))
	t.Cleanup(srv.Close)

	fs := afero.NewMemMapFs()
	return models.NewManager(models.ManagerConfig{
		Fs:     fs,
		Dir:    "/models",
		Client: srv.Client(),
		Catalog: []models.Model{
			{Name: "ggml-tiny.en", Engine: "whisper", Size: "75M", URL: srv.URL + "/ggml-tiny.en.bin"},
		},
	}), fs
}

func TestEnsureModelDownloadsAfterPrompt(t *testing.T) {
	mgr, _ := testModels(t)
	var out bytes.Buffer
	mm := NewModelManager(mgr, &out, strings.NewReader("y\n"))

	p, err := mm.EnsureModel(context.Background(), "whisper", "", "", false)
	require.NoError(t, err)
	assert.Equal(t, "/models/ggml-tiny.en.bin", p)
	assert.Contains(t, out.String(), "Download it now?")
}

func TestEnsureModelDeclined(t *testing.T) {
	mgr, _ := testModels(t)
	mm := NewModelManager(mgr, &bytes.Buffer{}, strings.NewReader("n\n"))

	_, err := mm.EnsureModel(context.Background(), "whisper", "", "ggml-tiny.en", false)
	assert.ErrorContains(t, err, "declined")
}

func TestEnsureModelExplicitPath(t *testing.T) {
	mgr, _ := testModels(t)
	mm := NewModelManager(mgr, &bytes.Buffer{}, strings.NewReader(""))

	p, err := mm.EnsureModel(context.Background(), "vosk", "/opt/model", "", false)
	require.NoError(t, err)
	assert.Equal(t, "/opt/model", p)
}

func TestModelManagerListing(t *testing.T) {
	mgr, _ := testModels(t)
	var out bytes.Buffer
	mm := NewModelManager(mgr, &out, strings.NewReader(""))

	require.NoError(t, mm.ListDownloaded())
	assert.Contains(t, out.String(), "No models downloaded yet.")

	out.Reset()
	require.NoError(t, mm.Download(context.Background(), "ggml-tiny.en"))
	require.NoError(t, mm.ListDownloaded())
	assert.Contains(t, out.String(), "1. ggml-tiny.en [DEFAULT]")

	out.Reset()
	require.NoError(t, mm.ListModels("vosk"))
	assert.NotContains(t, out.String(), "ggml-tiny.en")
}

func TestDeviceManagerSelectCapture(t *testing.T) {
	list := func(kind audio.DeviceType) ([]audio.DeviceInfo, error) {
		if kind == audio.DeviceTypePlayback {
			return nil, nil
		}
		return []audio.DeviceInfo{
			{ID: "capture-0", Name: "Built-in Microphone", Type: kind},
			{ID: "capture-1", Name: "USB Headset", Type: kind, IsDefault: true},
		}, nil
	}
	var out bytes.Buffer
	dm := NewDeviceManager(list, &out)

	name, err := dm.SelectCapture("")
	require.NoError(t, err)
	assert.Equal(t, "USB Headset", name)

	name, err = dm.SelectCapture("built-in")
	require.NoError(t, err)
	assert.Equal(t, "Built-in Microphone", name)

	_, err = dm.SelectCapture("bluetooth")
	assert.Error(t, err)

	require.NoError(t, dm.ListDevices())
	assert.Contains(t, out.String(), "2. USB Headset [DEFAULT]")
	assert.Contains(t, out.String(), "playback devices (0):")
}

func TestDeviceManagerListError(t *testing.T) {
	dm := NewDeviceManager(func(audio.DeviceType) ([]audio.DeviceInfo, error) {
		return nil, errors.New("no backend")
	}, &bytes.Buffer{})
	assert.Error(t, dm.ListDevices())
}
