package palette

import (
	"image"
	"image/color"
	"math"

	"github.com/bodgit/bnasset/failure"
)

func nearest(entries []rgb, c rgb) int {
	best, bestDist := 0, math.MaxInt32
	for i, e := range entries {
		// Strictly less than so the lowest index wins a tie
		if d := sqDist(c, e); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Nearest returns the index of the entry of p closest to c by squared
// Euclidean distance in RGB space. When several entries are equally close
// the lowest index is returned.
func Nearest(p color.Palette, c color.Color) int {
	entries := make([]rgb, len(p))
	for i, e := range p {
		entries[i] = toRGB(e)
	}
	return nearest(entries, toRGB(c))
}

type indexer struct {
	entries []rgb
	cache   map[rgb]uint8
}

func (ix *indexer) lookup(c rgb) uint8 {
	i, ok := ix.cache[c]
	if !ok {
		i = uint8(nearest(ix.entries, c))
		ix.cache[c] = i
	}
	return i
}

// Index maps every pixel of m onto the nearest entry of p, following the
// same rules as Nearest. The returned image has its top-left corner at
// (0, 0) and uses p as its palette.
func Index(m image.Image, p color.Palette) (*image.Paletted, error) {
	if len(p) == 0 || len(p) > 256 {
		return nil, failure.New(failure.ErrPaletteConstraint, "", "cannot index against %d colors", len(p))
	}

	ix := &indexer{
		entries: make([]rgb, len(p)),
		cache:   make(map[rgb]uint8),
	}
	for i, e := range p {
		ix.entries[i] = toRGB(e)
	}

	b := m.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p)

	if nrgba, ok := m.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := nrgba.PixOffset(b.Min.X, b.Min.Y+y)
			row := pm.Pix[y*pm.Stride : y*pm.Stride+b.Dx()]
			for x := range row {
				row[x] = ix.lookup(rgb{nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]})
				i += 4
			}
		}
		return pm, nil
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			pm.Pix[y*pm.Stride+x] = ix.lookup(toRGB(m.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
	return pm, nil
}
