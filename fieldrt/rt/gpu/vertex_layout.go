package gpu

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexLayout derives a vertex buffer layout from the `fidmag:"layout"`
// tagged fields of a struct value. Untagged fields only contribute padding.
func VertexLayout(vertex any) wgpu.VertexBufferLayout {
	t := reflect.TypeOf(vertex)
	if t.Kind() != reflect.Struct {
		panic("vertex must be a struct")
	}

	var attributes []wgpu.VertexAttribute
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("fidmag") != "layout" {
			continue
		}
		location, err := strconv.Atoi(field.Tag.Get("location"))
		if err != nil {
			panic(fmt.Sprintf("%s.%s: bad location: %v", t.Name(), field.Name, err))
		}
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: uint32(location),
			Offset:         uint64(field.Offset),
			Format:         parseFormat(field.Tag.Get("format")),
		})
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(t.Size()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}
}

func parseFormat(name string) wgpu.VertexFormat {
	switch name {
	case "float32":
		return wgpu.VertexFormatFloat32
	case "float32x2":
		return wgpu.VertexFormatFloat32x2
	case "float32x3":
		return wgpu.VertexFormatFloat32x3
	case "float32x4":
		return wgpu.VertexFormatFloat32x4
	default:
		panic("unsupported vertex layout format: " + name)
	}
}
