package bind_group_provider

// BufferWrite queues Data for the buffer at Provider's Binding, starting
// Offset bytes in. Writes to unset bindings are dropped.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
