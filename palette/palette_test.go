package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/bnasset/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	red   = color.RGBA{0xff, 0x00, 0x00, 0xff}
	green = color.RGBA{0x00, 0xff, 0x00, 0xff}
	blue  = color.RGBA{0x00, 0x00, 0xff, 0xff}
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

func grey(v uint8) color.RGBA {
	return color.RGBA{v, v, v, 0xff}
}

func TestEnforceReserved(t *testing.T) {
	full := make(color.Palette, Max)
	for i := range full {
		full[i] = grey(uint8(i*8 + 8))
	}

	tables := []struct {
		name string
		in   color.Palette
		want color.Palette
	}{
		{"empty", color.Palette{}, color.Palette{black}},
		{"already first", color.Palette{black, red, green}, color.Palette{black, red, green}},
		{"moved to front", color.Palette{red, green, black, blue}, color.Palette{black, red, green, blue}},
		{"last", color.Palette{red, green, blue, black}, color.Palette{black, red, green, blue}},
		{"inserted", color.Palette{red, green, blue}, color.Palette{black, red, green, blue}},
		{"full", full, append(color.Palette{black}, full[:Max-1]...)},
		{"other color types", color.Palette{color.NRGBA{0xff, 0, 0, 0xff}, color.Gray{0}}, color.Palette{black, red}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			got := EnforceReserved(table.in, Max)
			assert.Equal(t, table.want, got)
			assert.NoError(t, Validate(got, Max))
		})
	}
}

func TestEnforceReservedDoesNotModifyInput(t *testing.T) {
	in := color.Palette{red, black, green}
	EnforceReserved(in, Max)
	assert.Equal(t, color.Palette{red, black, green}, in)
}

func TestValidate(t *testing.T) {
	tables := []struct {
		name string
		p    color.Palette
		ok   bool
	}{
		{"empty", color.Palette{}, false},
		{"reserved only", color.Palette{black}, true},
		{"not reserved first", color.Palette{red, black}, false},
		{"too long", append(color.Palette{black}, make(color.Palette, Max)...), false},
	}

	for _, table := range tables {
		err := Validate(table.p, Max)
		if table.ok {
			assert.NoError(t, err, table.name)
		} else {
			assert.ErrorIs(t, err, failure.ErrPaletteConstraint, table.name)
		}
	}
}

func stripes(w, h int, colors []color.RGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := colors[y*len(colors)/h]
		for x := 0; x < w; x++ {
			m.Set(x, y, c)
		}
	}
	return m
}

func eighteen() []color.RGBA {
	colors := make([]color.RGBA, 18)
	for i := range colors {
		colors[i] = color.RGBA{uint8(0x20 + i*12), uint8(0xf0 - i*10), uint8(0x40 + (i%3)*0x40), 0xff}
	}
	return colors
}

func TestMedianCutStopsAtDistinctColors(t *testing.T) {
	m := stripes(256, 256, []color.RGBA{red, green, blue})

	p := MedianCut{}.Quantize(make(color.Palette, 0, Max), m)
	assert.ElementsMatch(t, color.Palette{red, green, blue}, p)
}

func TestMedianCutBudget(t *testing.T) {
	m := stripes(256, 256, eighteen())

	p := MedianCut{}.Quantize(make(color.Palette, 0, Max), m)
	assert.Len(t, p, Max)

	// Same input, same palette
	assert.Equal(t, p, MedianCut{}.Quantize(make(color.Palette, 0, Max), m))

	// Appends after any existing entries
	p = MedianCut{}.Quantize(append(make(color.Palette, 0, 4), white), m)
	assert.Len(t, p, 4)
	assert.Equal(t, white, p[0])
}

func TestMedianCutEmpty(t *testing.T) {
	p := MedianCut{}.Quantize(make(color.Palette, 0, Max), image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Empty(t, p)
}

func TestQuantizeAllBlack(t *testing.T) {
	m := stripes(256, 256, []color.RGBA{black})

	p, err := Quantize(MedianCut{}, m, Max)
	require.NoError(t, err)
	assert.Equal(t, color.Palette{black}, p)

	pm, err := Index(m, p)
	require.NoError(t, err)
	for _, i := range pm.Pix {
		require.Zero(t, i)
	}
}

func TestQuantizeInsertsReserved(t *testing.T) {
	m := stripes(256, 256, eighteen())

	raw := MedianCut{}.Quantize(make(color.Palette, 0, Max), m)
	for _, c := range raw {
		require.NotEqual(t, black, c)
	}

	p, err := Quantize(MedianCut{}, m, Max)
	require.NoError(t, err)
	assert.Len(t, p, Max)
	assert.Equal(t, black, p[0])
	assert.Equal(t, raw[:Max-1], p[1:])
}

func TestQuantizeKeepsExistingBlack(t *testing.T) {
	m := stripes(256, 256, []color.RGBA{white, black, red})

	p, err := Quantize(MedianCut{}, m, Max)
	require.NoError(t, err)
	assert.Equal(t, black, p[0])
	assert.ElementsMatch(t, color.Palette{black, white, red}, p)
}

func TestGoQuantize(t *testing.T) {
	q, err := NewQuantizer(GoQuantizeName)
	require.NoError(t, err)

	gradient := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			gradient.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}

	for _, m := range []image.Image{gradient, stripes(256, 256, eighteen())} {
		p, err := Quantize(q, m, Max)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(p), 1)
		assert.LessOrEqual(t, len(p), Max)
		assert.Equal(t, black, p[0])
	}
}

func TestNewQuantizer(t *testing.T) {
	q, err := NewQuantizer("")
	require.NoError(t, err)
	assert.IsType(t, MedianCut{}, q)

	_, err = NewQuantizer("octree")
	assert.Error(t, err)
}

type greedyQuantizer struct{}

func (greedyQuantizer) Quantize(p color.Palette, _ image.Image) color.Palette {
	for i := 0; i < Max+1; i++ {
		p = append(p, grey(uint8(i+1)))
	}
	return p
}

func TestQuantizeRejectsOversizedPalette(t *testing.T) {
	_, err := Quantize(greedyQuantizer{}, stripes(1, 1, []color.RGBA{red}), Max)
	assert.ErrorIs(t, err, failure.ErrPaletteConstraint)
}
