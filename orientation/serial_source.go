package orientation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// AutoPort asks the serial source to use the first port the system reports.
const AutoPort = "auto"

// ErrNoSerialPorts is returned when AutoPort is requested and no port exists.
var ErrNoSerialPorts = errors.New("orientation: no serial ports found")

// PortOpener opens a named serial port.
type PortOpener func(name string, baudRate int) (io.ReadCloser, error)

// SerialSource reads quaternions from an IMU on a serial port, one "i,j,k,real" line per reading,
// and publishes them as orientation events. It reconnects whenever the port fails.
type SerialSource struct {
	feed Feed

	mu   sync.Mutex
	port string

	baudRate   int
	retryDelay time.Duration
	open       PortOpener
	listPorts  func() ([]string, error)
}

var _ Source = &SerialSource{}

// NewSerialSource creates a serial source for the named port.
// Pass AutoPort to pick the first available port when Run starts.
//
// Parameters:
//   - port: the serial port name, e.g. /dev/ttyUSB0 or COM3
//   - options: variadic list of SerialSourceBuilderOption functions
//
// Returns:
//   - *SerialSource: the source, idle until Run is called
func NewSerialSource(port string, options ...SerialSourceBuilderOption) *SerialSource {
	s := &SerialSource{
		port:       port,
		baudRate:   115200,
		retryDelay: 5 * time.Second,
		open:       openSerialPort,
		listPorts:  serial.GetPortsList,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Subscribe implements Source.
func (s *SerialSource) Subscribe(fn func(Event)) func() {
	return s.feed.Subscribe(fn)
}

// Port returns the port name in use. After Run resolves AutoPort this is the concrete name.
func (s *SerialSource) Port() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Run reads the port until ctx is cancelled, reopening it after every failure.
// Malformed lines are logged and skipped.
//
// Parameters:
//   - ctx: controls the lifetime of the reader
//
// Returns:
//   - error: ErrNoSerialPorts when AutoPort finds nothing, otherwise ctx.Err() on shutdown
func (s *SerialSource) Run(ctx context.Context) error {
	port, err := s.resolvePort()
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rc, err := s.open(port, s.baudRate)
		if err != nil {
			log.Printf("[Serial] open %s: %v, retrying in %s", port, err, s.retryDelay)
			if !sleepCtx(ctx, s.retryDelay) {
				return ctx.Err()
			}
			continue
		}
		log.Printf("[Serial] reading %s at %d baud", port, s.baudRate)

		if err := s.readLoop(ctx, rc); err != nil {
			log.Printf("[Serial] read %s: %v", port, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[Serial] %s closed, reconnecting", port)
		if !sleepCtx(ctx, s.retryDelay) {
			return ctx.Err()
		}
	}
}

func (s *SerialSource) readLoop(ctx context.Context, rc io.ReadCloser) error {
	done := make(chan struct{})
	defer close(done)
	var closeOnce sync.Once
	closePort := func() { closeOnce.Do(func() { rc.Close() }) }
	defer closePort()

	// Closing the port is the only way to unblock a pending read.
	go func() {
		select {
		case <-ctx.Done():
			closePort()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		i, j, k, real, err := ParseQuaternionLine(line)
		if err != nil {
			log.Printf("[Serial] %v (line: %q)", err, line)
			continue
		}
		s.feed.Publish(FromQuaternion(i, j, k, real))
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

func (s *SerialSource) resolvePort() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != AutoPort {
		return s.port, nil
	}
	ports, err := s.listPorts()
	if err != nil {
		return "", fmt.Errorf("orientation: list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", ErrNoSerialPorts
	}
	s.port = ports[0]
	return s.port, nil
}

// ParseQuaternionLine parses one "i,j,k,real" line.
//
// Parameters:
//   - line: the comma-separated components
//
// Returns:
//   - i, j, k, real: the quaternion components
//   - error: when the line does not hold exactly four finite numbers
func ParseQuaternionLine(line string) (i, j, k, real float64, err error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected 4 values, got %d", len(parts))
	}
	var vals [4]float64
	for n, p := range parts {
		v, perr := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if perr != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid %s value: %w", componentNames[n], perr)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, fmt.Errorf("non-finite %s value %q", componentNames[n], p)
		}
		vals[n] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

var componentNames = [4]string{"i", "j", "k", "real"}

func openSerialPort(name string, baudRate int) (io.ReadCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baudRate})
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
