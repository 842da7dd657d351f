package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoadopt/internal/config"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoadopt.yaml")
	t.Cleanup(func() { configPath, configForce = "", false })

	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	require.NoError(t, rootCmd.Execute())

	cfg, _, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultControllerURL, cfg.ControllerURL)

	rootCmd.SetArgs([]string{"config", "init", "--config", path})
	assert.Error(t, rootCmd.Execute(), "existing file is not overwritten")

	rootCmd.SetArgs([]string{"config", "init", "--config", path, "--force"})
	assert.NoError(t, rootCmd.Execute())
}

func TestAdoptRequiresTarget(t *testing.T) {
	rootCmd.SetArgs([]string{"adopt"})
	assert.Error(t, rootCmd.Execute())
}

func TestReadTargets(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { adoptFromFormat = "" })

	yamlPath := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("devices:\n  - address: 10.0.0.9\n  - address: 10.0.0.5\n"), 0o600))
	got, err := readTargets(yamlPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10.0.0.5", "10.0.0.9"}, got)

	jsonPath := filepath.Join(dir, "targets.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`["10.0.0.7", "10.0.0.300"]`), 0o600))
	_, err = readTargets(jsonPath)
	assert.Error(t, err)

	_, err = readTargets(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
