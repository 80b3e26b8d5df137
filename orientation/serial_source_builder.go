package orientation

import "time"

// SerialSourceBuilderOption configures a SerialSource.
type SerialSourceBuilderOption func(*SerialSource)

// WithBaudRate sets the port speed. Non-positive values are ignored.
func WithBaudRate(baud int) SerialSourceBuilderOption {
	return func(s *SerialSource) {
		if baud > 0 {
			s.baudRate = baud
		}
	}
}

// WithRetryDelay sets how long to wait before reopening a failed port.
func WithRetryDelay(d time.Duration) SerialSourceBuilderOption {
	return func(s *SerialSource) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// WithPortOpener replaces the function used to open the port.
func WithPortOpener(open PortOpener) SerialSourceBuilderOption {
	return func(s *SerialSource) {
		if open != nil {
			s.open = open
		}
	}
}

// WithPortLister replaces the function used to enumerate ports for AutoPort.
func WithPortLister(list func() ([]string, error)) SerialSourceBuilderOption {
	return func(s *SerialSource) {
		if list != nil {
			s.listPorts = list
		}
	}
}
