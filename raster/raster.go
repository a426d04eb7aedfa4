/*
Package raster loads source images and pads them onto square canvases.

A canvas side is always a multiple of the tiling granularity of the target
hardware. The source image is centered and the border is filled with the
reserved background color, pure black.
*/
package raster

import (
	"image"
	"image/color"
	"io"
	"os"

	"github.com/bodgit/bnasset/failure"
	"github.com/bodgit/bnasset/palette"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	// Register the extra decoders on top of those imaging pulls in
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Granularity is the default tiling granularity.
const Granularity = 256

// Background is the fill used for padding, the same color every palette
// reserves at index 0.
var Background color.Color = palette.Reserved

var errZeroArea = errors.New("raster: image has zero area")

// Decode reads an image from r. The asset name is only used for error
// reporting.
func Decode(r io.Reader, asset string) (image.Image, error) {
	m, err := imaging.Decode(r)
	if err != nil {
		return nil, failure.Wrap(failure.ErrLoad, asset, err)
	}
	if m.Bounds().Empty() {
		return nil, failure.Wrap(failure.ErrLoad, asset, errZeroArea)
	}
	return m, nil
}

// Load opens and decodes the image at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrLoad, path, err)
	}
	defer f.Close()

	return Decode(f, path)
}

// SquareSide returns the smallest multiple of granularity that is at least
// the longer of w and h.
func SquareSide(w, h, granularity int) int {
	n := w
	if h > n {
		n = h
	}
	return (n + granularity - 1) / granularity * granularity
}

// Square draws m centered on a black square canvas whose side is given by
// SquareSide. Any transparency in m is flattened over the background so
// every pixel of the result is opaque.
func Square(m image.Image, granularity int) (*image.NRGBA, error) {
	if granularity <= 0 {
		return nil, errors.Errorf("raster: invalid granularity %d", granularity)
	}

	b := m.Bounds()
	if b.Empty() {
		return nil, errZeroArea
	}

	side := SquareSide(b.Dx(), b.Dy(), granularity)

	// Integer offsets, (side-w)/2 rather than side/2-w/2
	pt := image.Pt((side-b.Dx())/2, (side-b.Dy())/2)

	return imaging.Overlay(imaging.New(side, side, Background), m, pt, 1.0), nil
}
