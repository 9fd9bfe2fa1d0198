package app

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/config"
)

func TestLoadCommands(t *testing.T) {
	t.Run("missing directory yields empty registry", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Commands.Dir = "/nowhere"

		reg, err := LoadCommands(afero.NewMemMapFs(), cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("loads packs", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		manifest := `
[[commands]]
id = "shutdown"
type = "terminate"
phrases = ["goodbye"]
`
		require.NoError(t, afero.WriteFile(fs, "/cmds/system/command.toml", []byte(manifest), 0644))
		cfg := config.DefaultConfig()
		cfg.Commands.Dir = "/cmds"

		reg, err := LoadCommands(fs, cfg, zap.NewNop())
		require.NoError(t, err)
		_, ok := reg.Lookup("system/shutdown")
		assert.True(t, ok)
	})
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Wake.Engine = "porcupine"

	rt, err := Bootstrap(context.Background(), cfg, nil, Options{Fs: afero.NewMemMapFs()})
	require.Error(t, err)
	assert.Nil(t, rt)
	assert.Contains(t, err.Error(), "wake.engine")
}

func TestRuntimeCloseReversesOrder(t *testing.T) {
	var order []int
	rt := &Runtime{}
	for i := 1; i <= 3; i++ {
		i := i
		rt.onClose(func() error {
			order = append(order, i)
			if i == 2 {
				return errors.New("boom")
			}
			return nil
		})
	}

	err := rt.Close()
	require.Error(t, err)
	assert.Equal(t, []int{3, 2, 1}, order)

	require.NoError(t, rt.Close())
	assert.Len(t, order, 3)
}
