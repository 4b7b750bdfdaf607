// Package serialmux reads mmWave frames from a serial port and fans them
// out to any number of subscribers.
package serialmux

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"tailscale.com/tsweb"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
	"github.com/hoangnv31/mmwave-tracking/internal/monitoring"
)

// subscriberBuffer is the number of frames a subscriber may lag behind
// before frames are dropped for it.
const subscriberBuffer = 16

// FrameMux is a generic serial port multiplexer that decodes frames from a
// single serial port and delivers them to every subscriber.
type FrameMux[T SerialPorter] struct {
	port         T
	decoder      *mmwave.Decoder
	subscribers  map[string]chan *mmwave.Frame
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex

	last    atomic.Pointer[mmwave.Frame]
	dropped atomic.Uint64
}

// FrameMuxInterface defines the interface for the FrameMux type.
type FrameMuxInterface interface {
	// Subscribe creates a new channel for receiving decoded frames. The
	// channel ID is used to identify the unique channel when
	// unsubscribing.
	Subscribe() (string, chan *mmwave.Frame)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// Monitor decodes frames from the serial port and sends them to the
	// subscribed channels.
	Monitor(context.Context) error
	// Stats returns the decoder counters.
	Stats() mmwave.Stats
	// Close closes all subscribed channels and closes the serial port.
	Close() error

	// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP
	// mux served at /debug/. These routes are accessible only over
	// localhost/via Tailscale and are not publicly accessible.
	AttachAdminRoutes(*http.ServeMux)
}

// NewFrameMux creates a FrameMux reading from port. decoderOpts are
// passed to the frame decoder.
func NewFrameMux[T SerialPorter](port T, decoderOpts ...mmwave.Option) *FrameMux[T] {
	return &FrameMux[T]{
		port:        port,
		decoder:     mmwave.NewDecoder(mmwave.NewReaderSource(port), decoderOpts...),
		subscribers: make(map[string]chan *mmwave.Frame),
	}
}

func (s *FrameMux[T]) Subscribe() (string, chan *mmwave.Frame) {
	id := uuid.NewString()
	ch := make(chan *mmwave.Frame, subscriberBuffer)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the frame mux.
func (s *FrameMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Stats returns the decoder counters.
func (s *FrameMux[T]) Stats() mmwave.Stats {
	return s.decoder.Stats()
}

// LastFrame returns the most recently decoded frame, or nil.
func (s *FrameMux[T]) LastFrame() *mmwave.Frame {
	return s.last.Load()
}

// Monitor decodes frames until ctx is done or the port fails. Frames
// lost to timeouts or corrupt lengths are logged and skipped; any other
// read error ends Monitor and is returned.
func (s *FrameMux[T]) Monitor(ctx context.Context) error {
	frameChan := make(chan *mmwave.Frame)
	decodeErrChan := make(chan error, 1)

	// the blocking decoder.Next runs in its own goroutine so it does not
	// interfere with the outer loop awaiting frames & context cancellation.
	go func() {
		defer close(frameChan)
		for {
			frame, err := s.decoder.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if mmwave.Recoverable(err) {
					monitoring.Logf("dropped frame: %v", err)
					continue
				}
				decodeErrChan <- err
				return
			}
			select {
			case frameChan <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-decodeErrChan:
			return err

		case frame, ok := <-frameChan:
			if !ok {
				select {
				case err := <-decodeErrChan:
					return err
				default:
					return ctx.Err()
				}
			}
			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			s.last.Store(frame)
			s.broadcast(frame)
		}
	}
}

func (s *FrameMux[T]) broadcast(frame *mmwave.Frame) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- frame:
		default:
			// subscriber is behind; skip so as not to block the decoder
			s.dropped.Add(1)
		}
	}
}

func (s *FrameMux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}

// adminStats is the body of the decoder-stats debug endpoint.
type adminStats struct {
	mmwave.Stats
	Subscribers     int    `json:"subscribers"`
	DroppedDelivery uint64 `json:"dropped_deliveries"`
}

func (s *FrameMux[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("decoder-stats", "frame decoder counters", func(w http.ResponseWriter, r *http.Request) {
		s.subscriberMu.Lock()
		n := len(s.subscribers)
		s.subscriberMu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(adminStats{
			Stats:           s.Stats(),
			Subscribers:     n,
			DroppedDelivery: s.dropped.Load(),
		})
	})

	debug.HandleFunc("last-frame", "most recently decoded frame as JSON", func(w http.ResponseWriter, r *http.Request) {
		frame := s.LastFrame()
		if frame == nil {
			http.Error(w, "no frame decoded yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(frame)
	})

	// API endpoint to issue Server-Side Events (SSE) with a summary line per decoded frame.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := s.Subscribe()
		defer s.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case frame, ok := <-c:
				if !ok {
					// Channel closed, exit gracefully
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", Summarise(frame)); err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
