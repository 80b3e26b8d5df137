package renderer

import (
	"cmp"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-panorama/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrSurfaceUnavailable is returned by BeginFrame while the surface has no
// drawable area, e.g. a minimized window.
var ErrSurfaceUnavailable = errors.New("renderer: surface has zero size")

const depthFormat = wgpu.TextureFormatDepth24Plus

// attachment is a texture plus its default view.
type attachment struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (a *attachment) release() {
	if a.view != nil {
		a.view.Release()
	}
	if a.tex != nil {
		a.tex.Release()
	}
	*a = attachment{}
}

// frame is the state held between BeginFrame and Present.
type frame struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	target  attachment
}

type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	format        wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	samples       uint32
	clear         wgpu.Color
	width, height int

	msaa, depth attachment
	passDesc    *wgpu.RenderPassDescriptor

	frame frame
}

var _ backend = &wgpuBackend{}

// newWGPUBackend acquires the instance, surface, adapter and device. The
// renderer cannot work without them, so failures panic.
func newWGPUBackend(desc *wgpu.SurfaceDescriptor, s settings) *wgpuBackend {
	runtime.LockOSThread()

	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: s.presentMode.surfaceMode(),
		samples:     uint32(s.msaa),
		clear:       wgpu.Color{R: s.clearColor[0], G: s.clearColor[1], B: s.clearColor[2], A: s.clearColor[3]},
	}
	b.surface = b.instance.CreateSurface(desc)

	var err error
	b.adapter, err = b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: s.fallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(fmt.Errorf("request adapter: %w", err))
	}
	b.device, err = b.adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "panorama device"})
	if err != nil {
		panic(fmt.Errorf("request device: %w", err))
	}
	b.queue = b.device.GetQueue()
	b.format = b.surface.GetCapabilities(b.adapter).Formats[0]
	return b
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height
	if width <= 0 || height <= 0 {
		return
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.surface.GetCapabilities(b.adapter).AlphaModes[0],
	})

	b.releaseAttachments()
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	if b.samples > 1 {
		b.msaa = b.mustAttachment("msaa color", size, b.format)
	}
	b.depth = b.mustAttachment("depth", size, depthFormat)

	color := wgpu.RenderPassColorAttachment{
		View:       b.msaa.view, // nil without MSAA, BeginFrame fills it in
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clear,
	}
	if b.samples > 1 {
		color.StoreOp = wgpu.StoreOpDiscard
	}
	b.passDesc = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		},
	}
}

// mustAttachment allocates a render attachment at the backend's sample
// count. Caller holds mu.
func (b *wgpuBackend) mustAttachment(label string, size wgpu.Extent3D, format wgpu.TextureFormat) attachment {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   b.samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(fmt.Errorf("create %s attachment: %w", label, err))
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		panic(fmt.Errorf("create %s view: %w", label, err))
	}
	return attachment{tex: tex, view: view}
}

func (b *wgpuBackend) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vert, frag := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)
	if vert == nil || frag == nil {
		return errors.New("pipeline needs both a vertex and a fragment shader")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.compile(vert)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.compile(frag)
	if err != nil {
		return err
	}
	defer fs.Release()

	layout, err := b.pipelineLayout(p.PipelineKey(), shader.MergeBindGroupLayouts(vert, frag))
	if err != nil {
		return err
	}
	defer layout.Release()

	depthCompare := wgpu.CompareFunctionAlways
	if p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionLess
	}
	keep := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vert.EntryPoint(),
			Buffers:    vert.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: frag.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.format,
				Blend:     p.BlendState(),
				WriteMask: p.WriteMask(),
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{Count: b.samples, Mask: ^uint32(0)},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      keep,
			StencilBack:       keep,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.SetRenderPipeline(rp)
	return nil
}

func (b *wgpuBackend) compile(s shader.Shader) (*wgpu.ShaderModule, error) {
	m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.Source()},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader %q: %w", s.ShaderType(), s.Key(), err)
	}
	return m, nil
}

// pipelineLayout builds one bind group layout per group index. Groups
// must be dense from 0.
func (b *wgpuBackend) pipelineLayout(label string, groups map[int]wgpu.BindGroupLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, 0, len(groups))
	defer func() {
		for _, l := range layouts {
			l.Release()
		}
	}()
	for g := range len(groups) {
		desc, ok := groups[g]
		if !ok {
			return nil, fmt.Errorf("pipeline %q: @group(%d) is never declared", label, g)
		}
		l, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: layout for @group(%d): %w", label, g, err)
		}
		layouts = append(layouts, l)
	}
	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
}

func (b *wgpuBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) == 0 || len(indexData) == 0 {
		return fmt.Errorf("mesh %q: empty vertex or index data", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vb, err := b.upload(provider.Label()+" vertices", wgpu.BufferUsageVertex, vertexData)
	if err != nil {
		return err
	}
	ib, err := b.upload(provider.Label()+" indices", wgpu.BufferUsageIndex, indexData)
	if err != nil {
		vb.Release()
		return err
	}
	provider.SetMeshBuffers(vb, ib, indexCount)
	return nil
}

// upload creates a buffer sized for data and queues the copy. Caller holds mu.
func (b *wgpuBackend) upload(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	layout, err := b.device.CreateBindGroupLayout(&descriptor)
	if err != nil {
		return err
	}
	defer layout.Release()

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, le := range descriptor.Entries {
		e, err := b.bindGroupEntry(provider, le)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

// bindGroupEntry resolves one layout entry against provider, allocating a
// buffer when the binding has none yet. Caller holds mu.
func (b *wgpuBackend) bindGroupEntry(provider bind_group_provider.BindGroupProvider, le wgpu.BindGroupLayoutEntry) (wgpu.BindGroupEntry, error) {
	binding := int(le.Binding)
	e := wgpu.BindGroupEntry{Binding: le.Binding}

	switch {
	case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		if e.TextureView = provider.TextureView(binding); e.TextureView == nil {
			return e, fmt.Errorf("%s: @binding(%d) texture not initialized", provider.Label(), binding)
		}
	case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		if e.Sampler = provider.Sampler(binding); e.Sampler == nil {
			return e, fmt.Errorf("%s: @binding(%d) sampler not initialized", provider.Label(), binding)
		}
	default:
		buf := provider.Buffer(binding)
		if buf == nil {
			usage := wgpu.BufferUsageStorage
			if le.Buffer.Type == wgpu.BufferBindingTypeUniform {
				usage = wgpu.BufferUsageUniform
			}
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  le.Buffer.MinBindingSize,
				Usage: usage | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return e, err
			}
			provider.SetBuffer(binding, buf)
		}
		e.Buffer, e.Size = buf, wgpu.WholeSize
	}
	return e, nil
}

func (b *wgpuBackend) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	if !stagingData.Valid() {
		return fmt.Errorf("%s: texture %q has %d bytes for %dx%d", provider.Label(), stagingData.Name, len(stagingData.Pixels), stagingData.Width, stagingData.Height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	extent := wgpu.Extent3D{Width: stagingData.Width, Height: stagingData.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         cmp.Or(stagingData.Name, provider.Label()),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: 4 * stagingData.Width, RowsPerImage: stagingData.Height},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	provider.SetTexture(bindingKey, tex, view)
	return nil
}

// InitSampler fills zero fields of s with clamp-to-edge addressing and
// linear filtering.
func (b *wgpuBackend) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, s common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label(),
		AddressModeU:  cmp.Or(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  cmp.Or(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  cmp.Or(s.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     cmp.Or(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     cmp.Or(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  cmp.Or(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   cmp.Or(s.LodMaxClamp, 32),
		MaxAnisotropy: cmp.Or(s.MaxAnisotropy, 1),
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)
	return nil
}

func (b *wgpuBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range writes {
		if buf := w.Provider.Buffer(w.Binding); buf != nil {
			b.queue.WriteBuffer(buf, w.Offset, w.Data)
		}
	}
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.target.tex != nil {
		return errors.New("begin frame: previous frame was not presented")
	}
	if b.passDesc == nil || b.width <= 0 || b.height <= 0 {
		return ErrSurfaceUnavailable
	}

	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	target := attachment{tex: tex}
	if target.view, err = tex.CreateView(nil); err != nil {
		target.release()
		return err
	}
	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		target.release()
		return err
	}

	color := &b.passDesc.ColorAttachments[0]
	if b.samples > 1 {
		color.ResolveTarget = target.view
	} else {
		color.View = target.view
	}
	b.frame = frame{encoder: enc, pass: enc.BeginRenderPass(b.passDesc), target: target}
	return nil
}

func (b *wgpuBackend) DrawCall(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, firstIndex, indexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pass := b.frame.pass
	if pass == nil {
		return
	}
	pass.SetPipeline(p.RenderPipeline())
	for group, provider := range bindGroups {
		pass.SetBindGroup(uint32(group), provider.BindGroup(), nil)
	}
	pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(indexCount, 1, firstIndex, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := &b.frame
	if f.pass == nil {
		return
	}
	f.pass.End()
	f.pass.Release()
	f.pass = nil

	cmdBuf, err := f.encoder.Finish(nil)
	f.encoder.Release()
	f.encoder = nil
	if err != nil {
		f.target.release()
		return
	}
	b.queue.Submit(cmdBuf)
	cmdBuf.Release()
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame.target.tex == nil {
		return
	}
	b.surface.Present()
	b.frame.target.release()
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame.target.release()
	b.releaseAttachments()

	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}

// releaseAttachments drops the MSAA and depth targets. Caller holds mu.
func (b *wgpuBackend) releaseAttachments() {
	b.msaa.release()
	b.depth.release()
	b.passDesc = nil
}
