package model

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUVertexSource declares the WGSL VertexInput that GPUVertex mirrors.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertexStride is the packed size of a GPUVertex.
const GPUVertexStride = 20

// GPUVertex is a textured vertex: position at offset 0, uv at offset 12.
type GPUVertex struct {
	Position [3]float32
	TexCoord [2]float32
}

// AppendTo packs v onto buf little-endian.
func (v GPUVertex) AppendTo(buf []byte) []byte {
	for _, f := range [...]float32{v.Position[0], v.Position[1], v.Position[2], v.TexCoord[0], v.TexCoord[1]} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// MarshalVertices packs vertices back to back.
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, 0, len(vertices)*GPUVertexStride)
	for _, v := range vertices {
		buf = v.AppendTo(buf)
	}
	return buf
}

// MarshalIndices packs indices as little-endian uint32.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}
