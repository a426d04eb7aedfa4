/*
Package bnasset is an offline asset compiler for Butano Game Boy Advance
projects.

It turns source images into square 16 color indexed bitmaps with black
reserved at index 0, and Tiled map exports into a generated table of level
descriptors carrying each level's collision grid.
*/
package bnasset

import (
	"image/draw"
	"io"

	"github.com/bodgit/bnasset/palette"
	"github.com/charmbracelet/log"
)

// Compiler compiles batches of assets.
type Compiler struct {
	cfg       Config
	quantizer draw.Quantizer
	logger    *log.Logger
}

// New returns a Compiler for cfg. A nil logger discards all output.
func New(cfg Config, logger *log.Logger) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	q, err := palette.NewQuantizer(cfg.Quantizer)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Compiler{
		cfg:       cfg,
		quantizer: q,
		logger:    logger,
	}, nil
}

// Config returns the configuration of the compiler.
func (c *Compiler) Config() Config {
	return c.cfg
}
