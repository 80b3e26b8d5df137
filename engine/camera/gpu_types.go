package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUCameraUniformSource declares the WGSL CameraUniform struct that
// GPUCameraUniform mirrors.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the 64 byte camera uniform: one mat4x4<f32>.
type GPUCameraUniform struct {
	ViewProj [16]float32
}

// Marshal encodes the uniform little-endian, column by column.
func (g GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, 0, len(g.ViewProj)*4)
	for _, v := range g.ViewProj {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
