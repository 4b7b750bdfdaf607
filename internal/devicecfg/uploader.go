package devicecfg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"tailscale.com/tsweb"

	"github.com/hoangnv31/mmwave-tracking/internal/monitoring"
	"github.com/hoangnv31/mmwave-tracking/internal/serialmux"
)

var (
	// ErrInvalidBaudRate is returned for a baudRate command whose value
	// is not a positive integer.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	// ErrBaudRateUnsupported is returned when a script asks for a baud
	// rate change on a port that cannot change its mode.
	ErrBaudRateUnsupported = errors.New("port cannot change baud rate")
	// ErrWriteFailed is returned when the port accepts fewer bytes than
	// were written.
	ErrWriteFailed = errors.New("failed to write command to serial port")
)

// Options controls the pacing of an upload.
type Options struct {
	// BaudRate is the CLI port's baud rate when the upload starts.
	BaudRate int
	// LineDelay is slept before every command.
	LineDelay time.Duration
	// CharDelay is slept between characters when the port runs at
	// CharDelayBaudRate. Devices at that rate drop characters otherwise.
	CharDelay         time.Duration
	CharDelayBaudRate int
	// AckLines is the number of response lines read after each command.
	AckLines int
}

// DefaultOptions returns the pacing the EVM CLI needs.
func DefaultOptions() Options {
	return Options{
		BaudRate:          serialmux.DefaultCLIBaudRate,
		LineDelay:         30 * time.Millisecond,
		CharDelay:         time.Millisecond,
		CharDelayBaudRate: 1250000,
		AckLines:          4,
	}
}

// Response holds the lines the device echoed for one command.
type Response struct {
	Command string
	Ack     []string
}

// Uploader writes commands to the CLI port and collects acknowledgements.
type Uploader struct {
	port serialmux.SerialPorter
	opts Options

	mu   sync.Mutex
	baud int
}

// NewUploader returns an Uploader writing to port.
func NewUploader(port serialmux.SerialPorter, opts Options) *Uploader {
	return &Uploader{port: port, opts: opts, baud: opts.BaudRate}
}

// BaudRate returns the CLI port's current baud rate.
func (u *Uploader) BaudRate() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.baud
}

// Upload sends every line of a parsed script. A "baudRate <n>" line
// switches the port to n once its acknowledgement has been read. Unread
// input is dropped when the script completes.
func (u *Uploader) Upload(ctx context.Context, lines []string) ([]Response, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	responses := make([]Response, 0, len(lines))
	for _, line := range lines {
		resp, err := u.send(ctx, line)
		if err != nil {
			return responses, err
		}
		responses = append(responses, resp)
		monitoring.Logf("cfg %q: %s", resp.Command, strings.Join(resp.Ack, " | "))

		rate, ok, err := baudRateCommand(line)
		if err != nil {
			return responses, err
		}
		if ok {
			if err := u.setBaudRate(rate); err != nil {
				return responses, err
			}
		}
	}

	if err := sleep(ctx, u.opts.LineDelay); err != nil {
		return responses, err
	}
	if r, ok := u.port.(serialmux.InputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return responses, fmt.Errorf("reset input buffer: %w", err)
		}
	}
	return responses, nil
}

// Send writes a single command and reads its acknowledgement.
func (u *Uploader) Send(ctx context.Context, command string) (Response, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n" // ensure command ends with a newline
	}
	return u.send(ctx, command)
}

func (u *Uploader) send(ctx context.Context, line string) (Response, error) {
	resp := Response{Command: strings.TrimSpace(line)}
	if err := sleep(ctx, u.opts.LineDelay); err != nil {
		return resp, err
	}

	if u.opts.CharDelayBaudRate > 0 && u.baud == u.opts.CharDelayBaudRate {
		for i := 0; i < len(line); i++ {
			if err := sleep(ctx, u.opts.CharDelay); err != nil {
				return resp, err
			}
			if err := u.write(line[i : i+1]); err != nil {
				return resp, err
			}
		}
	} else if err := u.write(line); err != nil {
		return resp, err
	}

	for i := 0; i < u.opts.AckLines; i++ {
		ack, err := u.readLine()
		if err != nil {
			return resp, fmt.Errorf("read ack for %q: %w", resp.Command, err)
		}
		if ack != "" {
			resp.Ack = append(resp.Ack, ack)
		}
	}
	return resp, nil
}

func (u *Uploader) write(s string) error {
	n, err := u.port.Write([]byte(s))
	if err != nil {
		return err
	}
	if n != len(s) {
		return ErrWriteFailed
	}
	return nil
}

// readLine reads up to a newline. A timed-out or exhausted read ends the
// line early, returning whatever arrived.
func (u *Uploader) readLine() (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := u.port.Read(buf)
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				return strings.TrimSpace(b.String()), nil
			}
			return "", err
		}
		if buf[0] == '\n' {
			return strings.TrimSpace(b.String()), nil
		}
		b.WriteByte(buf[0])
	}
}

func (u *Uploader) setBaudRate(rate int) error {
	ms, ok := u.port.(serialmux.ModeSetter)
	if !ok {
		return ErrBaudRateUnsupported
	}
	mode := &serialmux.SerialPortMode{
		BaudRate: rate,
		DataBits: 8,
		Parity:   serialmux.NoParity,
		StopBits: serialmux.OneStopBit,
	}
	if err := ms.SetMode(mode); err != nil {
		return fmt.Errorf("switch CLI port to %d baud: %w", rate, err)
	}
	monitoring.Logf("CLI port switched to %d baud", rate)
	u.baud = rate
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// AttachAdminRoutes registers a debug endpoint for sending single CLI
// commands to the device.
func (u *Uploader) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		if !commandAllowed(command) {
			http.Error(w, "Invalid command", http.StatusBadRequest)
			return
		}
		resp, err := u.Send(r.Context(), command)
		if err != nil {
			monitoring.Logf("send-command-api %q: %v", command, err)
			http.Error(w, "Failed to write command", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "Wrote command %q to serial port\n", resp.Command)
		for _, ack := range resp.Ack {
			fmt.Fprintln(w, ack)
		}
	})
}
