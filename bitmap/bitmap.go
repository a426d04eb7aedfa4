/*
Package bitmap implements the indexed bitmap graphics assets consumed by the
Butano build.

Each asset is a pair of files. The first is an uncompressed 8-bit BMP with a
full 256 entry color table; only the first sixteen or fewer entries are
meaningful and every remaining slot holds the reserved color. The pixel data
is one palette index byte per pixel. The second file is a small JSON record
telling the build the bitmap is a regular background.
*/
package bitmap

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/bnasset/palette"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

const (
	// TableSize is the number of entries written to the color table
	TableSize = 256

	// Extension is used for the bitmap file
	Extension = ".bmp"
	// SidecarExtension is used for the metadata file
	SidecarExtension = ".json"

	// RegularBackground tags a bitmap as a regular background source
	RegularBackground = "regular_bg"
)

var errNotPaletted = errors.New("bitmap: not an indexed bitmap")

// Sidecar is the metadata record written next to each bitmap.
type Sidecar struct {
	Type string `json:"type"`
}

// MarshalSidecar encodes s the way Butano expects to find it.
func MarshalSidecar(s Sidecar) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Encode writes m to w as an indexed bitmap. The palette of m must already
// satisfy the reserved color constraint. Nothing is written to w until the
// whole bitmap has been serialized.
func Encode(w io.Writer, m *image.Paletted) error {
	if err := palette.Validate(m.Palette, palette.Max); err != nil {
		return err
	}

	b := m.Bounds()
	if b.Dx() != b.Dy() || b.Empty() {
		return errors.Errorf("bitmap: image is %dx%d, not square", b.Dx(), b.Dy())
	}

	table := make(color.Palette, TableSize)
	for i := range table {
		if i < len(m.Palette) {
			table[i] = m.Palette[i]
		} else {
			table[i] = palette.Reserved
		}
	}

	// Adjust image so that top-left corner is at (0, 0)
	dup := *m
	dup.Rect = dup.Rect.Sub(dup.Rect.Min)
	dup.Palette = table

	buf := new(bytes.Buffer)
	if err := bmp.Encode(buf, &dup); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads an indexed bitmap from r.
func Decode(r io.Reader) (*image.Paletted, error) {
	m, err := bmp.Decode(r)
	if err != nil {
		return nil, err
	}
	pm, ok := m.(*image.Paletted)
	if !ok {
		return nil, errNotPaletted
	}
	return pm, nil
}

// Asset is a graphics asset serialized in full and ready to be written.
type Asset struct {
	Name    string
	Bitmap  []byte
	Sidecar []byte
}

// NewAsset serializes m and its sidecar record.
func NewAsset(name string, m *image.Paletted) (*Asset, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, m); err != nil {
		return nil, err
	}

	s, err := MarshalSidecar(Sidecar{Type: RegularBackground})
	if err != nil {
		return nil, err
	}

	return &Asset{
		Name:    name,
		Bitmap:  b.Bytes(),
		Sidecar: s,
	}, nil
}

// Paths returns the bitmap and sidecar file names inside dir.
func (a *Asset) Paths(dir string) (string, string) {
	base := filepath.Join(dir, a.Name)
	return base + Extension, base + SidecarExtension
}

// Write creates both files of the asset inside dir.
func (a *Asset) Write(dir string) error {
	bitmap, sidecar := a.Paths(dir)

	if err := os.WriteFile(bitmap, a.Bitmap, 0o644); err != nil {
		return err
	}
	return os.WriteFile(sidecar, a.Sidecar, 0o644)
}
