package main

import (
	"os"
	"path/filepath"
	"testing"

	cfg "github.com/barnybug/djtpms/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	assert.Equal(t, []string{"tpms"}, splitArgs([]string{"tpms", "--", "-config", "x.yml"}))
	assert.Equal(t, []string{"tpms"}, splitArgs([]string{"tpms"}))
	assert.Equal(t, []string{"-config", "x.yml"}, serviceFlags([]string{"run", "tpms", "--", "-config", "x.yml"}))
	assert.Nil(t, serviceFlags([]string{"run", "tpms"}))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yml")
	b := filepath.Join(dir, "b.yml")
	require.NoError(t, os.WriteFile(a, []byte(cfg.ExampleYaml), 0644))
	require.NoError(t, os.WriteFile(b, []byte("tpms: [broken"), 0644))

	data, err := readConfig([]string{a})
	require.NoError(t, err)
	assert.Contains(t, string(data), "tyre.front_left")

	_, err = readConfig([]string{a, b})
	assert.Error(t, err)
	_, err = readConfig([]string{filepath.Join(dir, "missing.yml")})
	assert.Error(t, err)
}

func TestStatusQuery(t *testing.T) {
	assert.Equal(t, "tpms/status", statusQuery(nil))
	assert.Equal(t, "tpms/status front_left", statusQuery([]string{"front_left"}))
}
