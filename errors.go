package shapegl

import (
	"errors"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by this module's surface and rendering
// operations matches exactly one of them with errors.Is.
var (
	ErrSurfaceNotFound    = errors.New("surface not found")
	ErrContextUnavailable = errors.New("graphics context unavailable")
	ErrDrawFailed         = errors.New("draw failed")
	ErrInvalidParameter   = errors.New("invalid parameter")
)

// Error describes a failed operation on a surface.
type Error struct {
	// Op is the operation that failed, such as "construct" or "render".
	Op string
	// Surface is the identifier of the surface involved, if any.
	Surface string
	// Kind is one of the Err* kinds declared in this package.
	Kind error
	// Err is the underlying cause. May be nil.
	Err error
}

// NewError returns an *Error of the given kind.
func NewError(op, surface string, kind, err error) *Error {
	return &Error{Op: op, Surface: surface, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("shapegl: ")
	b.WriteString(e.Op)
	if e.Surface != "" {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(e.Surface))
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

func invalidParam(op string, err error) error {
	return NewError(op, "", ErrInvalidParameter, err)
}
