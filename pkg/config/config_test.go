package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftivol/pkg/nifti"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "float32", cfg.Save.Datatype)
	assert.Nil(t, cfg.Load.Zoom)
	assert.False(t, cfg.Load.RemoveNaN)
	assert.Equal(t, []string{"x", "y", "z"}, cfg.Slices.Axes)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`load:
  maskFile: brain_mask.nii
  zoom: [2, 2, 1]
  removeNaN: true
save:
  datatype: float64
slices:
  axes: [z]
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "brain_mask.nii", cfg.Load.MaskFile)
	assert.Equal(t, []float64{2, 2, 1}, cfg.Load.Zoom)
	assert.True(t, cfg.Load.RemoveNaN)
	assert.Equal(t, []string{"z"}, cfg.Slices.Axes)
	// Unset sections keep their defaults
	assert.Equal(t, 100, cfg.Output.MaxLogSize)

	opts, err := cfg.SaveOptions()
	require.NoError(t, err)
	assert.Equal(t, nifti.Float64, opts.Datatype)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("load: [unclosed"), 0644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	dtype := filepath.Join(dir, "dtype.yaml")
	require.NoError(t, os.WriteFile(dtype, []byte("save:\n  datatype: int16\n"), 0644))
	_, err = LoadConfig(dtype)
	assert.Error(t, err)

	axis := filepath.Join(dir, "axis.yaml")
	require.NoError(t, os.WriteFile(axis, []byte("slices:\n  axes: [w]\n"), 0644))
	_, err = LoadConfig(axis)
	assert.Error(t, err)
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Load.Zoom = []float64{0.5}
	cfg.Output.LogFile = "niftivol.log"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}
