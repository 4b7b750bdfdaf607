package serialmux

import (
	"io"
	"time"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialPortMode defines serial port configuration parameters.
type SerialPortMode struct {
	BaudRate int
	DataBits int
	Parity   Parity
	StopBits StopBits
}

// Parity defines serial port parity options.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

// StopBits defines serial port stop bit options.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// Baud rates used by the mmWave EVMs: the CLI (configuration) UART and
// the data UART the frames are streamed on.
const (
	DefaultCLIBaudRate  = 115200
	DefaultDataBaudRate = 921600
)

// DefaultSerialPortMode returns the default mode for the data port.
func DefaultSerialPortMode() *SerialPortMode {
	return &SerialPortMode{
		BaudRate: DefaultDataBaudRate,
		DataBits: 8,
		Parity:   NoParity,
		StopBits: OneStopBit,
	}
}

// SerialPortFactory defines an interface for creating serial ports.
// This abstraction enables dependency injection of serial port creation.
type SerialPortFactory interface {
	// Open opens a serial port at the specified path with the given mode.
	Open(path string, mode *SerialPortMode) (SerialPorter, error)
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// A read that times out returns (0, nil), which the frame decoder treats
// as "no data yet".
type TimeoutSerialPorter interface {
	SerialPorter
	// SetReadTimeout sets the read timeout for the serial port.
	SetReadTimeout(timeout time.Duration) error
}

// ModeSetter is implemented by ports whose line settings can be changed
// after opening. The CLI port needs it for the baudRate command.
type ModeSetter interface {
	SetMode(mode *SerialPortMode) error
}

// InputResetter is implemented by ports that can drop unread input.
type InputResetter interface {
	ResetInputBuffer() error
}
