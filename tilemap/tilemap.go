/*
Package tilemap reads the tile layers of Tiled JSON map exports.

Only the first layer of a map is used; any later layers are ignored. The
layer data must be stored as a plain array of tile IDs rather than one of the
compressed or base64 encodings.
*/
package tilemap

import (
	"math"
	"os"

	"github.com/bodgit/bnasset/failure"
	"github.com/tidwall/gjson"
)

// Layer is a flat grid of tile IDs stored row by row.
type Layer struct {
	Data   []int
	Width  int
	Height int
}

// Len returns the number of tiles in the layer.
func (l *Layer) Len() int {
	return len(l.Data)
}

func dimension(asset string, layer gjson.Result, key string) (int, error) {
	v := layer.Get(key)
	if v.Type != gjson.Number {
		return 0, failure.New(failure.ErrParse, asset, "layer 0 has no %s", key)
	}
	if v.Num != math.Trunc(v.Num) || v.Num <= 0 || v.Num > math.MaxInt32 {
		return 0, failure.New(failure.ErrParse, asset, "layer 0 has invalid %s %s", key, v.Raw)
	}
	return int(v.Int()), nil
}

// Parse extracts the first tile layer from the map export in b. The asset
// name is only used for error reporting.
func Parse(asset string, b []byte) (*Layer, error) {
	if !gjson.ValidBytes(b) {
		return nil, failure.New(failure.ErrLoad, asset, "malformed JSON")
	}

	layers := gjson.GetBytes(b, "layers").Array()
	if len(layers) == 0 {
		return nil, failure.New(failure.ErrParse, asset, "map has no layers")
	}
	layer := layers[0]

	width, err := dimension(asset, layer, "width")
	if err != nil {
		return nil, err
	}
	height, err := dimension(asset, layer, "height")
	if err != nil {
		return nil, err
	}

	data := layer.Get("data")
	switch {
	case !data.Exists():
		return nil, failure.New(failure.ErrParse, asset, "layer 0 has no data")
	case !data.IsArray():
		return nil, failure.New(failure.ErrParse, asset, "layer 0 data is not a plain array, encoding %q is not supported", layer.Get("encoding").String())
	}

	tiles := data.Array()
	l := &Layer{
		Data:   make([]int, len(tiles)),
		Width:  width,
		Height: height,
	}
	for i, t := range tiles {
		if t.Type != gjson.Number || t.Num != math.Trunc(t.Num) || t.Num < 0 {
			return nil, failure.New(failure.ErrParse, asset, "layer 0 tile %d is %s, not a tile ID", i, t.Raw)
		}
		l.Data[i] = int(t.Int())
	}

	// Both dimensions fit in 31 bits so the product cannot overflow
	if int64(len(l.Data)) != int64(width)*int64(height) {
		return nil, failure.New(failure.ErrParse, asset, "layer 0 has %d tiles, expected %dx%d", len(l.Data), width, height)
	}

	return l, nil
}

// Load reads and parses the map export at path.
func Load(path string) (*Layer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Wrap(failure.ErrLoad, path, err)
	}
	return Parse(path, b)
}
