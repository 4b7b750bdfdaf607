package serialmux

import (
	"errors"
	"testing"

	"go.bug.st/serial"
)

const missingPort = "/dev/nonexistent-serial-port-12345"

func TestNewRealFrameMux(t *testing.T) {
	// We can't open a real serial port in a unit test, but we can verify
	// the function returns an error for a missing device.
	mux, err := NewRealFrameMux(missingPort, PortOptions{})
	if err == nil {
		t.Error("Expected error when opening non-existent serial port")
		mux.Close()
	}
	if err != nil && mux != nil {
		t.Error("Expected nil mux when error is returned")
	}
}

func TestNewRealFrameMux_InvalidOptions(t *testing.T) {
	if _, err := NewRealFrameMux(missingPort, PortOptions{Parity: "X"}); err == nil {
		t.Error("Expected error for invalid parity")
	}
}

func TestNewRealSerialPortFactory(t *testing.T) {
	factory := NewRealSerialPortFactory()
	if factory == nil {
		t.Fatal("NewRealSerialPortFactory returned nil")
	}
	if factory.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", factory.ReadTimeout, DefaultReadTimeout)
	}
}

func TestRealSerialPortFactory_Open_InvalidPath(t *testing.T) {
	factory := NewRealSerialPortFactory()

	// nil mode falls back to the data port defaults; the error is about the path
	if _, err := factory.Open(missingPort, nil); err == nil {
		t.Error("Expected error when opening non-existent serial port")
	}
	if _, err := factory.Open(missingPort, &SerialPortMode{BaudRate: DefaultCLIBaudRate, DataBits: 7, Parity: EvenParity, StopBits: TwoStopBits}); err == nil {
		t.Error("Expected error when opening non-existent serial port")
	}
}

func TestOpenPort_PassesModeToFactory(t *testing.T) {
	port := NewTestableSerialPort()
	factory := NewMockSerialPortFactory(port)

	got, err := OpenPort(factory, "/dev/ttyUSB0", PortOptions{BaudRate: DefaultCLIBaudRate})
	if err != nil {
		t.Fatalf("OpenPort() error = %v", err)
	}
	if got != port {
		t.Error("OpenPort returned a different port")
	}
	call := factory.LastCall()
	if call == nil || call.Path != "/dev/ttyUSB0" {
		t.Fatalf("LastCall() = %+v", call)
	}
	if call.Mode.BaudRate != DefaultCLIBaudRate || call.Mode.DataBits != 8 {
		t.Errorf("mode = %+v", call.Mode)
	}
}

func TestOpenPort_Errors(t *testing.T) {
	factory := NewMockSerialPortFactory(nil)
	if _, err := OpenPort(factory, "/dev/ttyUSB0", PortOptions{StopBits: 3}); err == nil {
		t.Error("expected error for invalid stop bits")
	}
	if len(factory.OpenCalls) != 0 {
		t.Error("factory should not be called with invalid options")
	}

	factory.Error = errors.New("busy")
	if _, err := OpenPort(factory, "/dev/ttyUSB0", PortOptions{}); err == nil {
		t.Error("expected factory error")
	}
}

func TestConvertParity(t *testing.T) {
	tests := []struct {
		parity Parity
		want   serial.Parity
	}{
		{NoParity, serial.NoParity},
		{OddParity, serial.OddParity},
		{EvenParity, serial.EvenParity},
	}
	for _, tc := range tests {
		if got := convertParity(tc.parity); got != tc.want {
			t.Errorf("convertParity(%v) = %v, want %v", tc.parity, got, tc.want)
		}
	}
}

func TestConvertStopBits(t *testing.T) {
	if got := convertStopBits(OneStopBit); got != serial.OneStopBit {
		t.Errorf("convertStopBits(OneStopBit) = %v", got)
	}
	if got := convertStopBits(TwoStopBits); got != serial.TwoStopBits {
		t.Errorf("convertStopBits(TwoStopBits) = %v", got)
	}
}
