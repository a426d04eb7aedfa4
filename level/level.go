/*
Package level generates the table of compiled-in level descriptors.

The table is C++ source for a Butano game. It opens with a single definition
of the level structure and then, for every level, includes the header of the
matching regular background and defines one descriptor:

	#include <bn_regular_bg_items_room1.h>
	const level_ptr room1 = {&regular_bg_items::room1, {1, 1, 2, ...}, 5, 4, 0, 0};

The collision array has a fixed capacity; shorter layers are padded with
zeroes.
*/
package level

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/bodgit/bnasset/failure"
	"github.com/bodgit/bnasset/tilemap"
)

const (
	// Capacity is the default size of the collision array
	Capacity = 512

	// StructName is the name of the level structure
	StructName = "level_ptr"
	// ItemNamespace holds the generated regular background items
	ItemNamespace = "regular_bg_items"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Descriptor describes one level.
type Descriptor struct {
	Name       string
	Collisions []int
	SizeX      int
	SizeY      int
	InitX      int
	InitY      int
}

// ValidateName returns a ParseError naming asset if name cannot be used as
// a C++ identifier. Every generated symbol is derived from the asset name.
func ValidateName(asset, name string) error {
	if !identifier.MatchString(name) {
		return failure.New(failure.ErrParse, asset, "%q is not a valid identifier", name)
	}
	return nil
}

// NewDescriptor builds the descriptor for the layer l of the level name.
// The collision array always holds exactly capacity entries.
func NewDescriptor(name string, l *tilemap.Layer, capacity int) (*Descriptor, error) {
	if err := ValidateName(name, name); err != nil {
		return nil, err
	}
	if l.Len() > capacity {
		return nil, failure.New(failure.ErrCapacityExceeded, name, "layer has %d tiles (%dx%d), capacity is %d", l.Len(), l.Width, l.Height, capacity)
	}

	collisions := make([]int, capacity)
	copy(collisions, l.Data)

	return &Descriptor{
		Name:       name,
		Collisions: collisions,
		SizeX:      l.Width,
		SizeY:      l.Height,
	}, nil
}

// Directive returns the include directive for the graphics of the level.
func (d *Descriptor) Directive() string {
	return fmt.Sprintf("#include <bn_%s_%s.h>", ItemNamespace, d.Name)
}

// Literal returns the definition of the descriptor.
func (d *Descriptor) Literal() string {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "const %s %s = {&%s::%s, {", StructName, d.Name, ItemNamespace, d.Name)
	for i, c := range d.Collisions {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(c))
	}
	fmt.Fprintf(b, "}, %d, %d, %d, %d};", d.SizeX, d.SizeY, d.InitX, d.InitY)
	return b.String()
}

// Table accumulates descriptors in the order they are added.
type Table struct {
	capacity    int
	names       map[string]struct{}
	descriptors []*Descriptor
}

// NewTable returns an empty table whose descriptors have collision arrays
// of the given capacity.
func NewTable(capacity int) *Table {
	return &Table{
		capacity: capacity,
		names:    make(map[string]struct{}),
	}
}

// Add builds the descriptor for l and appends it to the table. Nothing is
// appended if an error is returned.
func (t *Table) Add(name string, l *tilemap.Layer) (*Descriptor, error) {
	if _, ok := t.names[name]; ok {
		return nil, failure.New(failure.ErrParse, name, "level defined more than once")
	}

	d, err := NewDescriptor(name, l, t.capacity)
	if err != nil {
		return nil, err
	}

	t.names[name] = struct{}{}
	t.descriptors = append(t.descriptors, d)

	return d, nil
}

// Len returns the number of descriptors in the table.
func (t *Table) Len() int {
	return len(t.descriptors)
}

// Descriptors returns the descriptors in the order they were added.
func (t *Table) Descriptors() []*Descriptor {
	return t.descriptors
}

func (t *Table) structure() string {
	return fmt.Sprintf(`// Level structure
struct %s
{
    const regular_bg_item *bg_item;
    const int collisions[%d];
    int size_x;
    int size_y;
    int init_x;
    int init_y;
};

`, StructName, t.capacity)
}

// MarshalText renders the whole table.
func (t *Table) MarshalText() ([]byte, error) {
	b := new(bytes.Buffer)
	b.WriteString(t.structure())
	for _, d := range t.descriptors {
		b.WriteString(d.Directive())
		b.WriteByte('\n')
		b.WriteString(d.Literal())
		b.WriteString("\n\n")
	}
	return b.Bytes(), nil
}

// WriteTo renders the table to w in a single write. It implements
// io.WriterTo.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	b, err := t.MarshalText()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
