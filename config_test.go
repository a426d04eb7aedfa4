package bnasset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 256, cfg.Granularity)
	assert.Equal(t, 16, cfg.PaletteSize)
	assert.Equal(t, 512, cfg.Capacity)
	assert.Equal(t, "src/maps.h", cfg.LevelHeader)
	assert.Empty(t, cfg.RecordDB)
}

func writeConfig(t *testing.T, s string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "bnasset.toml")
	require.NoError(t, os.WriteFile(file, []byte(s), 0o644))
	return file
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `
image_dir = "art"
workers = 4
quantizer = "go-quantize"
record_db = "history.db"
`)

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	expected := DefaultConfig()
	expected.ImageDir = "art"
	expected.Workers = 4
	expected.Quantizer = "go-quantize"
	expected.RecordDB = "history.db"

	assert.Equal(t, expected, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	tables := map[string]string{
		"unknown key":  `colour_depth = 8`,
		"bad type":     `workers = "lots"`,
		"bad syntax":   `image_dir = `,
		"palette size": `palette_size = 17`,
		"zero workers": `workers = 0`,
		"granularity":  `granularity = -8`,
		"capacity":     `capacity = 0`,
		"quantizer":    `quantizer = "octree"`,
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, table))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
