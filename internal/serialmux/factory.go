package serialmux

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// DefaultReadTimeout bounds each read on the data port. A timed-out read
// surfaces as mmwave.ErrNoData and lets the monitor loop observe
// cancellation.
const DefaultReadTimeout = 2 * time.Second

// realPort wraps a go.bug.st/serial port so it satisfies ModeSetter with
// the package's own mode type.
type realPort struct {
	serial.Port
}

func (p *realPort) SetMode(mode *SerialPortMode) error {
	return p.Port.SetMode(toSerialMode(mode))
}

// RealSerialPortFactory opens ports with go.bug.st/serial.
type RealSerialPortFactory struct {
	// ReadTimeout is applied to every opened port; zero means blocking reads.
	ReadTimeout time.Duration
}

// NewRealSerialPortFactory returns a factory applying DefaultReadTimeout.
func NewRealSerialPortFactory() *RealSerialPortFactory {
	return &RealSerialPortFactory{ReadTimeout: DefaultReadTimeout}
}

// Open opens the port at path. A nil mode uses DefaultSerialPortMode.
func (f *RealSerialPortFactory) Open(path string, mode *SerialPortMode) (SerialPorter, error) {
	if mode == nil {
		mode = DefaultSerialPortMode()
	}
	port, err := serial.Open(path, toSerialMode(mode))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if f.ReadTimeout > 0 {
		if err := port.SetReadTimeout(f.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
		}
	}
	return &realPort{port}, nil
}

// OpenPort opens path with the given options through factory.
func OpenPort(factory SerialPortFactory, path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.PortMode()
	if err != nil {
		return nil, err
	}
	return factory.Open(path, mode)
}

// NewRealFrameMux creates a FrameMux instance backed by a real serial port at the
// given path using the provided serial options.
func NewRealFrameMux(path string, opts PortOptions, decoderOpts ...mmwave.Option) (*FrameMux[SerialPorter], error) {
	port, err := OpenPort(NewRealSerialPortFactory(), path, opts)
	if err != nil {
		return nil, err
	}
	return NewFrameMux(port, decoderOpts...), nil
}

func toSerialMode(mode *SerialPortMode) *serial.Mode {
	return &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		Parity:   convertParity(mode.Parity),
		StopBits: convertStopBits(mode.StopBits),
	}
}

func convertParity(p Parity) serial.Parity {
	switch p {
	case OddParity:
		return serial.OddParity
	case EvenParity:
		return serial.EvenParity
	default:
		return serial.NoParity
	}
}

func convertStopBits(s StopBits) serial.StopBits {
	if s == TwoStopBits {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}
