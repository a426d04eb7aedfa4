/*
Package failure defines the kinds of error raised while compiling assets.

Every error carries the asset it relates to so a failing batch can be traced
back to the offending source file.
*/
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an asset failure. Kinds are comparable with errors.Is
// against any *Error.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

const (
	// ErrLoad is raised when a source image or tile map cannot be read or
	// decoded.
	ErrLoad Kind = "load error"
	// ErrParse is raised when a tile map is missing required layer or
	// geometry fields.
	ErrParse Kind = "parse error"
	// ErrPaletteConstraint is raised when a palette is empty, too large or
	// does not start with the reserved color.
	ErrPaletteConstraint Kind = "palette constraint violation"
	// ErrCapacityExceeded is raised when a tile layer does not fit in the
	// collision array.
	ErrCapacityExceeded Kind = "capacity exceeded"
)

// Error is an asset failure.
type Error struct {
	Kind   Kind
	Asset  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Asset != "" {
		s = e.Asset + ": " + s
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns an *Error of the given kind.
func New(kind Kind, asset, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Asset:  asset,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an *Error of the given kind caused by err.
func Wrap(kind Kind, asset string, err error) *Error {
	return &Error{
		Kind:  kind,
		Asset: asset,
		Err:   err,
	}
}

// WithAsset records asset on err if it is an *Error that does not yet name
// one. err is returned unchanged otherwise.
func WithAsset(err error, asset string) error {
	var e *Error
	if errors.As(err, &e) && e.Asset == "" {
		e.Asset = asset
	}
	return err
}
