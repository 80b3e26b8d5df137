package bind_group_provider

type BindGroupProviderOption func(*bindGroupProvider)

// WithIndexCount presets the index count before any index data is uploaded.
func WithIndexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.indexCount = count
	}
}
