/*
Package palette reduces square canvases to a small fixed palette and maps
every pixel onto it.

A valid palette holds between one and Max colors and its first entry is
always Reserved, pure black, which the target renderer treats as the
transparent background.
*/
package palette

import (
	"image/color"

	"github.com/bodgit/bnasset/failure"
)

// Max is the default palette budget.
const Max = 16

// Reserved is the color every palette must start with.
var Reserved = color.RGBA{0x00, 0x00, 0x00, 0xff}

type rgb struct {
	r, g, b uint8
}

func toRGB(c color.Color) rgb {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return rgb{n.R, n.G, n.B}
}

func (c rgb) key() uint32 {
	return uint32(c.r)<<16 | uint32(c.g)<<8 | uint32(c.b)
}

func (c rgb) color() color.RGBA {
	return color.RGBA{c.r, c.g, c.b, 0xff}
}

func sqDist(a, b rgb) int {
	dr := int(a.r) - int(b.r)
	dg := int(a.g) - int(b.g)
	db := int(a.b) - int(b.b)
	return dr*dr + dg*dg + db*db
}

var reserved = toRGB(Reserved)

// normalize converts every entry to an opaque color.RGBA so entries can be
// compared directly.
func normalize(p color.Palette) color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = toRGB(c).color()
	}
	return out
}

func indexOf(p color.Palette, c rgb) int {
	for i, e := range p {
		if toRGB(e) == c {
			return i
		}
	}
	return -1
}

// EnforceReserved returns a copy of p with Reserved as its first entry.
//
// If Reserved is already present it is moved to the front and the other
// entries keep their relative order. Otherwise it is inserted at the front,
// and if p already holds max colors the last entry is dropped to make room.
func EnforceReserved(p color.Palette, max int) color.Palette {
	p = normalize(p)

	out := make(color.Palette, 0, len(p)+1)
	out = append(out, Reserved)

	switch i := indexOf(p, reserved); {
	case i >= 0:
		out = append(out, p[:i]...)
		out = append(out, p[i+1:]...)
	case len(p) >= max:
		out = append(out, p[:len(p)-1]...)
	default:
		out = append(out, p...)
	}

	return out
}

// Validate checks p holds between 1 and max colors and starts with
// Reserved.
func Validate(p color.Palette, max int) error {
	switch {
	case len(p) == 0:
		return failure.New(failure.ErrPaletteConstraint, "", "palette is empty")
	case len(p) > max:
		return failure.New(failure.ErrPaletteConstraint, "", "palette has %d colors, maximum is %d", len(p), max)
	case toRGB(p[0]) != reserved:
		return failure.New(failure.ErrPaletteConstraint, "", "palette entry 0 is %v, not the reserved color", p[0])
	}
	return nil
}
