package palette

import (
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
)

// Quantizer names accepted by NewQuantizer.
const (
	MedianCutName  = "median-cut"
	GoQuantizeName = "go-quantize"
)

// NewQuantizer returns the quantizer registered under name.
func NewQuantizer(name string) (draw.Quantizer, error) {
	switch name {
	case MedianCutName, "":
		return MedianCut{}, nil
	case GoQuantizeName:
		return quantize.MedianCutQuantizer{}, nil
	default:
		return nil, errors.Errorf("palette: unknown quantizer %q", name)
	}
}

type entry struct {
	c rgb
	n int
}

func histogram(m image.Image) []entry {
	counts := make(map[rgb]int)

	b := m.Bounds()
	if nrgba, ok := m.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := nrgba.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
				counts[rgb{nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]}]++
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				counts[toRGB(m.At(x, y))]++
			}
		}
	}

	h := make([]entry, 0, len(counts))
	for c, n := range counts {
		h = append(h, entry{c, n})
	}
	// Map iteration order is random, everything after this must not be
	sort.Slice(h, func(i, j int) bool { return h[i].c.key() < h[j].c.key() })

	return h
}

func channel(c rgb, axis int) uint8 {
	switch axis {
	case 0:
		return c.r
	case 1:
		return c.g
	default:
		return c.b
	}
}

type bucket struct {
	entries []entry
	axis    int
	spread  int
}

func newBucket(entries []entry) bucket {
	lo := [3]uint8{0xff, 0xff, 0xff}
	var hi [3]uint8
	for _, e := range entries {
		for a := 0; a < 3; a++ {
			v := channel(e.c, a)
			if v < lo[a] {
				lo[a] = v
			}
			if v > hi[a] {
				hi[a] = v
			}
		}
	}

	bk := bucket{entries: entries}
	for a := 0; a < 3; a++ {
		if s := int(hi[a]) - int(lo[a]); s > bk.spread {
			bk.axis, bk.spread = a, s
		}
	}
	return bk
}

// split cuts the bucket at the weighted median of its widest channel. Both
// halves are non-empty, which needs a spread greater than zero.
func (bk bucket) split() (bucket, bucket) {
	sort.SliceStable(bk.entries, func(i, j int) bool {
		return channel(bk.entries[i].c, bk.axis) < channel(bk.entries[j].c, bk.axis)
	})

	var total int
	for _, e := range bk.entries {
		total += e.n
	}

	cut, sum := len(bk.entries)-1, 0
	for i, e := range bk.entries[:len(bk.entries)-1] {
		sum += e.n
		if sum*2 >= total {
			cut = i + 1
			break
		}
	}

	return newBucket(bk.entries[:cut]), newBucket(bk.entries[cut:])
}

func (bk bucket) mean() color.RGBA {
	var r, g, b, n uint64
	for _, e := range bk.entries {
		w := uint64(e.n)
		r += uint64(e.c.r) * w
		g += uint64(e.c.g) * w
		b += uint64(e.c.b) * w
		n += w
	}
	return color.RGBA{uint8((r + n/2) / n), uint8((g + n/2) / n), uint8((b + n/2) / n), 0xff}
}

// MedianCut is a deterministic median cut quantizer. It implements
// draw.Quantizer.
//
// The color population is repeatedly split at the weighted median of the
// widest channel of the bucket with the greatest spread. Splitting stops
// once the palette is full or every bucket holds a single color, so an image
// with fewer distinct colors than the budget keeps exactly those colors.
type MedianCut struct{}

// Quantize appends up to cap(p)-len(p) colors representing m to p.
func (MedianCut) Quantize(p color.Palette, m image.Image) color.Palette {
	n := cap(p) - len(p)
	h := histogram(m)
	if n <= 0 || len(h) == 0 {
		return p
	}

	buckets := []bucket{newBucket(h)}
	for len(buckets) < n {
		widest := -1
		for i, bk := range buckets {
			if bk.spread > 0 && (widest < 0 || bk.spread > buckets[widest].spread) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}

		lo, hi := buckets[widest].split()
		buckets = append(buckets, bucket{})
		copy(buckets[widest+2:], buckets[widest+1:])
		buckets[widest], buckets[widest+1] = lo, hi
	}

	for _, bk := range buckets {
		p = append(p, bk.mean())
	}
	return p
}

// Quantize reduces m to a palette of at most max colors using q and then
// makes sure the palette starts with Reserved.
func Quantize(q draw.Quantizer, m image.Image, max int) (color.Palette, error) {
	p := EnforceReserved(q.Quantize(make(color.Palette, 0, max), m), max)
	if err := Validate(p, max); err != nil {
		return nil, err
	}
	return p, nil
}
