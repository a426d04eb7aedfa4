package bnasset

import (
	"os"

	"github.com/bodgit/bnasset/level"
	"github.com/bodgit/bnasset/palette"
	"github.com/bodgit/bnasset/raster"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config controls where assets are read from and written to and the limits
// of the target hardware.
type Config struct {
	// MapDir holds the Tiled JSON map exports
	MapDir string `toml:"map_dir"`
	// ImageDir holds the source images
	ImageDir string `toml:"image_dir"`
	// GraphicsDir receives one bitmap and one sidecar per image
	GraphicsDir string `toml:"graphics_dir"`
	// LevelHeader is the generated level table
	LevelHeader string `toml:"level_header"`

	Granularity int `toml:"granularity"`
	PaletteSize int `toml:"palette_size"`
	Capacity    int `toml:"capacity"`

	// Quantizer is either "median-cut" or "go-quantize"
	Quantizer string `toml:"quantizer"`
	Workers   int    `toml:"workers"`

	// RecordDB is the build history database, empty to disable
	RecordDB string `toml:"record_db"`
}

// DefaultConfig returns the configuration used when no file is given. The
// paths match the layout of a Butano project.
func DefaultConfig() Config {
	return Config{
		MapDir:      "tilesets/maps_json",
		ImageDir:    "tilesets/images",
		GraphicsDir: "graphics",
		LevelHeader: "src/maps.h",
		Granularity: raster.Granularity,
		PaletteSize: palette.Max,
		Capacity:    level.Capacity,
		Quantizer:   palette.MedianCutName,
		Workers:     1,
	}
}

// LoadConfig reads a TOML configuration file. Any key not present in the
// file keeps its default value.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", file)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.Granularity <= 0:
		return errors.Errorf("config: granularity must be positive, not %d", c.Granularity)
	case c.PaletteSize < 1 || c.PaletteSize > palette.Max:
		return errors.Errorf("config: palette size must be between 1 and %d, not %d", palette.Max, c.PaletteSize)
	case c.Capacity <= 0:
		return errors.Errorf("config: capacity must be positive, not %d", c.Capacity)
	case c.Workers <= 0:
		return errors.Errorf("config: workers must be positive, not %d", c.Workers)
	}

	if _, err := palette.NewQuantizer(c.Quantizer); err != nil {
		return errors.Wrap(err, "config")
	}

	return nil
}
