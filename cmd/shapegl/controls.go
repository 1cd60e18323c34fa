package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/soypat/shapegl"
	"github.com/soypat/shapegl/render"
)

// Control identifiers accepted on the event stream.
const (
	ctlShapeRed        = "shape-red"
	ctlShapeGreen      = "shape-green"
	ctlShapeBlue       = "shape-blue"
	ctlBackgroundRed   = "background-red"
	ctlBackgroundGreen = "background-green"
	ctlBackgroundBlue  = "background-blue"
	ctlVertexCount     = "vertex-count"
	ctlResize          = "resize"
)

// event is one line of the event stream: a control change
// "<control> <value>" or "resize <width> <height>".
type event struct {
	control string
	args    []string
}

func (ev event) String() string {
	return strings.Join(append([]string{ev.control}, ev.args...), " ")
}

// parseEvent parses a line of input. Blank lines and lines starting
// with '#' yield ok == false.
func parseEvent(line string) (ev event, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return event{}, false
	}
	return event{control: fields[0], args: fields[1:]}, true
}

// apply returns p with the control change of ev applied. Resize events
// are handled by the caller.
func (ev event) apply(p render.Params) (render.Params, error) {
	if len(ev.args) != 1 {
		return p, errors.Errorf("control %q takes one value, got %d", ev.control, len(ev.args))
	}
	value := ev.args[0]
	var channel *uint8
	switch ev.control {
	case ctlShapeRed:
		channel = &p.Shape.R
	case ctlShapeGreen:
		channel = &p.Shape.G
	case ctlShapeBlue:
		channel = &p.Shape.B
	case ctlBackgroundRed:
		channel = &p.Background.R
	case ctlBackgroundGreen:
		channel = &p.Background.G
	case ctlBackgroundBlue:
		channel = &p.Background.B
	case ctlVertexCount:
		n, err := strconv.Atoi(value)
		if err != nil {
			return p, shapegl.NewError("control", "", shapegl.ErrInvalidParameter, fmt.Errorf("vertex count %q: %w", value, err))
		}
		p.VertexCount = n
		return p, nil
	default:
		return p, errors.Errorf("unknown control %q", ev.control)
	}
	v, err := shapegl.ParseChannel(value)
	if err != nil {
		return p, errors.Wrap(err, ev.control)
	}
	*channel = v
	return p, nil
}

// size parses the arguments of a resize event.
func (ev event) size() (width, height int, err error) {
	if len(ev.args) != 2 {
		return 0, 0, errors.Errorf("resize takes width and height, got %d values", len(ev.args))
	}
	width, err = strconv.Atoi(ev.args[0])
	if err == nil {
		height, err = strconv.Atoi(ev.args[1])
	}
	if err != nil {
		return 0, 0, errors.Wrap(err, "resize")
	}
	return width, height, nil
}
