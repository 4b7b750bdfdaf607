package serialmux

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
	"github.com/hoangnv31/mmwave-tracking/internal/monitoring"
)

// FrameHandler consumes one decoded frame. Returning an error logs it;
// it does not stop the subscription.
type FrameHandler func(*mmwave.Frame) error

// Summarise renders a one-line description of a frame for logs and the
// tail endpoint, e.g. "frame 12: PointCloud(34) TargetList(2) PresenceIndication(0x1)".
func Summarise(f *mmwave.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame %d:", f.Header.FrameNumber)
	if len(f.TLVs) == 0 {
		b.WriteString(" no TLVs")
	}
	for _, t := range f.TLVs {
		b.WriteByte(' ')
		b.WriteString(t.Type.String())
		if t.Err != nil {
			b.WriteString("(error)")
			continue
		}
		switch p := t.Payload.(type) {
		case mmwave.PointCloud:
			fmt.Fprintf(&b, "(%d)", len(p.Points))
		case mmwave.TargetList:
			fmt.Fprintf(&b, "(%d)", len(p.Targets))
		case mmwave.TargetIndex:
			fmt.Fprintf(&b, "(%d)", len(p.TargetIDs))
		case mmwave.PresenceIndication:
			fmt.Fprintf(&b, "(%#x)", p.Presence)
		case mmwave.TargetHeight:
			fmt.Fprintf(&b, "(%d)", len(p.Heights))
		case mmwave.Raw:
			fmt.Fprintf(&b, "(%d bytes)", len(p.Bytes))
		}
	}
	if f.Partial {
		fmt.Fprintf(&b, " [partial %d/%d]", len(f.TLVs), f.Header.NumTLVs)
	}
	return b.String()
}

// Dispatch subscribes to m and passes every frame to h until ctx is done
// or the subscription channel is closed.
func Dispatch(ctx context.Context, m FrameMuxInterface, name string, h FrameHandler) {
	id, c := m.Subscribe()
	defer m.Unsubscribe(id)
	for {
		select {
		case frame, ok := <-c:
			if !ok {
				monitoring.Logf("%s subscription closed", name)
				return
			}
			if err := h(frame); err != nil {
				monitoring.Logf("%s: error handling frame %d: %v", name, frame.Header.FrameNumber, err)
			}
		case <-ctx.Done():
			monitoring.Logf("%s routine terminated", name)
			return
		}
	}
}
