// package common contains plain data types and math helpers shared by the engine and the viewer. They are not interface-wrapped structs.
package common

import (
	"image"
	"image/draw"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// Tile loaders produce it and materials hand it to the BindGroupProvider, which creates the GPU texture from it.
type TextureStagingData struct {
	// Name identifies the source of the pixels, usually the tile locator.
	Name string
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Valid reports whether the pixel buffer matches the declared dimensions.
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width*t.Height*4)
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero fields fall back to clamp-to-edge addressing and linear filtering.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// ImageToStaging converts any decoded image into tightly packed RGBA staging data.
//
// Parameters:
//   - name: identifier stored on the result
//   - img: the decoded source image
//
// Returns:
//   - TextureStagingData: the RGBA pixels and dimensions of img
func ImageToStaging(name string, img image.Image) TextureStagingData {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return TextureStagingData{
		Name:   name,
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}
