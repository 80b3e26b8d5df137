package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupProvider is the bag of GPU objects one drawable owns: a bind
// group and the resources behind each of its bindings, and for meshes the
// vertex and index buffers.
//
// The owner (camera, material, model) creates it with a label, the
// renderer fills it through the Set methods, and the scene reads it back
// when recording draw calls.
type BindGroupProvider interface {
	Label() string

	// BindGroup is nil until the renderer has initialized the provider.
	BindGroup() *wgpu.BindGroup

	// Buffer, TextureView and Sampler return nil for unset bindings.
	Buffer(binding int) *wgpu.Buffer
	TextureView(binding int) *wgpu.TextureView
	Sampler(binding int) *wgpu.Sampler

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int

	// SetBindGroup replaces the bind group, releasing the old one.
	SetBindGroup(bg *wgpu.BindGroup)
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores the view and the texture that owns it.
	//
	// Parameters:
	//   - binding: @binding index of the texture
	//   - tex: owning texture, released with the view
	//   - tv: the view the bind group references
	SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView)
	SetSampler(binding int, s *wgpu.Sampler)
	SetMeshBuffers(vertex, index *wgpu.Buffer, indexCount int)

	// Release frees everything held. Calling it twice is fine.
	Release()
}

// slot is everything that can sit behind one @binding.
type slot struct {
	buffer  *wgpu.Buffer
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (s *slot) release() {
	if s.view != nil {
		s.view.Release()
	}
	if s.texture != nil {
		s.texture.Release()
	}
	if s.sampler != nil {
		s.sampler.Release()
	}
	if s.buffer != nil {
		s.buffer.Release()
	}
	*s = slot{}
}

type bindGroupProvider struct {
	label     string
	bindGroup *wgpu.BindGroup
	slots     map[int]*slot

	vertexBuffer, indexBuffer *wgpu.Buffer
	indexCount                int
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider returns an empty provider labelled label.
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{label: label, slots: make(map[int]*slot)}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// slot returns the entry for binding, creating it on first use.
func (p *bindGroupProvider) slot(binding int) *slot {
	s, ok := p.slots[binding]
	if !ok {
		s = &slot{}
		p.slots[binding] = s
	}
	return s
}

func (p *bindGroupProvider) peek(binding int) slot {
	if s, ok := p.slots[binding]; ok {
		return *s
	}
	return slot{}
}

func (p *bindGroupProvider) Label() string              { return p.label }
func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup { return p.bindGroup }
func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer { return p.vertexBuffer }
func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer  { return p.indexBuffer }
func (p *bindGroupProvider) IndexCount() int            { return p.indexCount }

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer { return p.peek(binding).buffer }

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.peek(binding).view
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler { return p.peek(binding).sampler }

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if old := p.bindGroup; old != nil && old != bg {
		old.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.slot(binding).buffer = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView) {
	s := p.slot(binding)
	s.texture, s.view = tex, tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.slot(binding).sampler = s
}

func (p *bindGroupProvider) SetMeshBuffers(vertex, index *wgpu.Buffer, indexCount int) {
	p.vertexBuffer, p.indexBuffer, p.indexCount = vertex, index, indexCount
}

func (p *bindGroupProvider) Release() {
	p.SetBindGroup(nil)
	for binding, s := range p.slots {
		s.release()
		delete(p.slots, binding)
	}
	for _, buf := range []*wgpu.Buffer{p.vertexBuffer, p.indexBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	p.vertexBuffer, p.indexBuffer, p.indexCount = nil, nil, 0
}
