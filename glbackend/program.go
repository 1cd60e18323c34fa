//go:build gl

package glbackend

import (
	"github.com/go-gl/gl/all-core/gl"
	"github.com/pkg/errors"
	"github.com/soypat/shapegl"
)

// Attribute locations fixed by the shader's layout qualifiers.
const (
	attribPosition = 0
	attribColor    = 1
	// vertexStride is the byte size of one packed vertex: vec2 position, vec3 color.
	vertexStride = 5 * 4
)

const vertexShader = `#version 330 core
layout(location = 0) in vec2 aPosition;
layout(location = 1) in vec3 aColor;
out vec3 vColor;
void main() {
	vColor = aColor;
	gl_Position = vec4(aPosition, 0.0, 1.0);
}
`

const fragmentShader = `#version 330 core
in vec3 vColor;
out vec4 fragColor;
void main() {
	fragColor = vec4(vColor, 1.0);
}
`

type program struct {
	id                           uint32
	vertexShader, fragmentShader uint32
}

func (p *program) use() { gl.UseProgram(p.id) }

func (p *program) delete() {
	gl.DetachShader(p.id, p.vertexShader)
	gl.DetachShader(p.id, p.fragmentShader)
	gl.DeleteProgram(p.id)
	gl.DeleteShader(p.vertexShader)
	gl.DeleteShader(p.fragmentShader)
}

func loadProgram(vertexShaderText, fragmentShaderText string) (*program, error) {
	p := &program{}
	vs, err := loadShader(gl.VERTEX_SHADER, vertexShaderText)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	fs, err := loadShader(gl.FRAGMENT_SHADER, fragmentShaderText)
	if err != nil {
		gl.DeleteShader(vs)
		return nil, errors.Wrap(err, "fragment shader")
	}
	p.vertexShader, p.fragmentShader = vs, fs
	p.id = gl.CreateProgram()
	gl.AttachShader(p.id, vs)
	gl.AttachShader(p.id, fs)
	gl.LinkProgram(p.id)

	var isLinked int32
	gl.GetProgramiv(p.id, gl.LINK_STATUS, &isLinked)
	if isLinked == gl.FALSE {
		var logSize int32
		gl.GetProgramiv(p.id, gl.INFO_LOG_LENGTH, &logSize)
		buf := make([]uint8, logSize+1)
		gl.GetProgramInfoLog(p.id, int32(len(buf)), &logSize, &buf[0])
		p.delete()
		return nil, errors.Errorf("gl: failed to link program: %q", string(buf[:logSize]))
	}
	return p, nil
}

func loadShader(xtype uint32, text string) (uint32, error) {
	shader := gl.CreateShader(xtype)
	csource, free := gl.Strs(text + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var success int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &success)
	if success == gl.FALSE {
		var logSize int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logSize)
		buf := make([]uint8, logSize+1)
		gl.GetShaderInfoLog(shader, int32(len(buf)), &logSize, &buf[0])
		gl.DeleteShader(shader)
		return 0, errors.Errorf("gl: failed to compile shader: %q", string(buf[:logSize]))
	}
	return shader, nil
}

// packVertices lays vertices out as tightly packed float32 x, y, r, g, b.
func packVertices(vs []shapegl.Vertex) []float32 {
	data := make([]float32, 0, 5*len(vs))
	for _, v := range vs {
		data = append(data, v.Pos.X, v.Pos.Y, v.Color.R, v.Color.G, v.Color.B)
	}
	return data
}
