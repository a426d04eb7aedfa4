package tilemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/bnasset/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const room1 = `{
  "compressionlevel": -1,
  "height": 4,
  "width": 5,
  "infinite": false,
  "layers": [
    {
      "data": [1, 1, 2, 2, 0, 0, 3, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
      "height": 4,
      "id": 1,
      "name": "Tile Layer 1",
      "opacity": 1,
      "type": "tilelayer",
      "visible": true,
      "width": 5,
      "x": 0,
      "y": 0
    },
    {
      "data": [9, 9],
      "height": 1,
      "id": 2,
      "name": "Decoration",
      "type": "tilelayer",
      "width": 2
    }
  ],
  "orientation": "orthogonal",
  "tileheight": 32,
  "tilewidth": 32,
  "type": "map"
}`

func TestParse(t *testing.T) {
	l, err := Parse("room1.tmj", []byte(room1))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 2, 2, 0, 0, 3, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, l.Data)
	assert.Equal(t, 5, l.Width)
	assert.Equal(t, 4, l.Height)
	assert.Equal(t, 20, l.Len())
}

func TestParseErrors(t *testing.T) {
	tables := []struct {
		name string
		json string
		kind failure.Kind
	}{
		{"malformed", `{"layers": [`, failure.ErrLoad},
		{"no layers key", `{"width": 2}`, failure.ErrParse},
		{"empty layers", `{"layers": []}`, failure.ErrParse},
		{"no width", `{"layers": [{"data": [1], "height": 1}]}`, failure.ErrParse},
		{"zero height", `{"layers": [{"data": [], "width": 1, "height": 0}]}`, failure.ErrParse},
		{"fractional width", `{"layers": [{"data": [1], "width": 1.5, "height": 1}]}`, failure.ErrParse},
		{"no data", `{"layers": [{"type": "objectgroup", "width": 1, "height": 1}]}`, failure.ErrParse},
		{"base64 data", `{"layers": [{"data": "AQAAAA==", "encoding": "base64", "width": 1, "height": 1}]}`, failure.ErrParse},
		{"negative tile", `{"layers": [{"data": [1, -1], "width": 2, "height": 1}]}`, failure.ErrParse},
		{"string tile", `{"layers": [{"data": [1, "2"], "width": 2, "height": 1}]}`, failure.ErrParse},
		{"short data", `{"layers": [{"data": [1, 2, 3], "width": 2, "height": 2}]}`, failure.ErrParse},
		{"huge width", `{"layers": [{"data": [], "width": 4294967296, "height": 4294967296}]}`, failure.ErrParse},
		{"max dimensions", `{"layers": [{"data": [], "width": 2147483647, "height": 2147483647}]}`, failure.ErrParse},
		{"long data", `{"layers": [{"data": [1, 2, 3, 4, 5], "width": 2, "height": 2}]}`, failure.ErrParse},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Parse("bad.tmj", []byte(table.json))
			assert.ErrorIs(t, err, table.kind)
			assert.Contains(t, err.Error(), "bad.tmj")
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "room1.tmj")
	require.NoError(t, os.WriteFile(file, []byte(room1), 0o644))

	l, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 20, l.Len())

	_, err = Load(filepath.Join(dir, "missing.tmj"))
	assert.ErrorIs(t, err, failure.ErrLoad)
}
