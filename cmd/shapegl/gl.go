//go:build gl

package main

import _ "github.com/soypat/shapegl/glbackend"
