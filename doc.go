/*
Package shapegl holds the data model shared by the shape renderer and its
graphics backends: named drawing surfaces, 8-bit colors, regular polygons and
the draw calls built from them.

A Display is a registry of Surfaces, the analogue of the canvases on a page.
A renderer (see package render) binds to one Surface by name and submits one
DrawCall per frame through a backend Context. Backends register themselves by
name with Register, typically from an init function, so importing a backend
package is enough to make it selectable:

	import _ "github.com/soypat/shapegl/vector"

Errors returned across the package boundary are *Error values matching one
of ErrSurfaceNotFound, ErrContextUnavailable, ErrDrawFailed or
ErrInvalidParameter with errors.Is.
*/
package shapegl
