package serialmux

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// DisabledFrameMux is a no-op FrameMux used when the radar hardware is
// absent (-disable-radar). It tracks subscribers so their channels are
// closed on Unsubscribe() or Close(), letting readers unblock during
// shutdown.
type DisabledFrameMux struct {
	mu          sync.Mutex
	subscribers map[string]chan *mmwave.Frame
	closing     bool
}

func NewDisabledFrameMux() *DisabledFrameMux {
	return &DisabledFrameMux{
		subscribers: make(map[string]chan *mmwave.Frame),
	}
}

func (d *DisabledFrameMux) Subscribe() (string, chan *mmwave.Frame) {
	id := uuid.NewString()
	ch := make(chan *mmwave.Frame)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		// If already closing, return a closed channel so callers don't block.
		close(ch)
		return id, ch
	}
	d.subscribers[id] = ch
	return id, ch
}

func (d *DisabledFrameMux) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.subscribers[id]; ok {
		close(ch)
		delete(d.subscribers, id)
	}
}

func (d *DisabledFrameMux) Monitor(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }

func (d *DisabledFrameMux) Stats() mmwave.Stats { return mmwave.Stats{} }

func (d *DisabledFrameMux) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		return nil
	}
	d.closing = true
	for id, ch := range d.subscribers {
		close(ch)
		delete(d.subscribers, id)
	}
	return nil
}

func (d *DisabledFrameMux) AttachAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/radar-disabled", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("radar disabled"))
	})
}
