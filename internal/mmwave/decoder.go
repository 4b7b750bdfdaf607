package mmwave

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
)

// ctxCheckInterval is how many scanned bytes pass between context checks
// while searching for the magic word.
const ctxCheckInterval = 4096

// Stats are running counters of a Decoder.
type Stats struct {
	Frames          uint64 `json:"frames"`
	PartialFrames   uint64 `json:"partial_frames"`
	DiscardedFrames uint64 `json:"discarded_frames"`
	DiscardedBytes  uint64 `json:"discarded_bytes"`
	EmptyReads      uint64 `json:"empty_reads"`
	TLVs            uint64 `json:"tlvs"`
	MalformedTLVs   uint64 `json:"malformed_tlvs"`
	InvalidPayloads uint64 `json:"invalid_payloads"`
	UnknownTLVs     uint64 `json:"unknown_tlvs"`
	LastFrameNumber uint32 `json:"last_frame_number"`
}

type counters struct {
	frames, partial, discardedFrames, discardedBytes, emptyReads atomic.Uint64
	tlvs, malformed, invalidPayloads, unknown                    atomic.Uint64
	lastFrameNumber                                              atomic.Uint32
}

// Decoder turns a ByteSource into a sequence of Frames. A Decoder is not
// safe for concurrent use by multiple goroutines except for Stats; decode
// independent streams with independent Decoders.
type Decoder struct {
	src             ByteSource
	sync            Synchronizer
	reporter        Reporter
	maxPacketLength uint32
	stats           counters
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithReporter sets the diagnostics sink. The default discards everything.
func WithReporter(r Reporter) Option {
	return func(d *Decoder) { d.reporter = orNop(r) }
}

// WithMaxPacketLength bounds the packetLength a header may declare.
// Larger values are treated as corruption and the frame is dropped.
func WithMaxPacketLength(n uint32) Option {
	return func(d *Decoder) {
		if n >= HeaderSize {
			d.maxPacketLength = n
		}
	}
}

// NewDecoder returns a Decoder reading from src.
func NewDecoder(src ByteSource, opts ...Option) *Decoder {
	d := &Decoder{
		src:             src,
		reporter:        NopReporter,
		maxPacketLength: DefaultMaxPacketLength,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next reads and decodes the next frame.
//
// Errors wrapping ErrStreamExhausted or ErrInvalidPacketLength abort the
// current frame only; use Recoverable to decide whether to call Next
// again. TLV level problems never produce an error here: they are
// recorded on the returned Frame.
func (d *Decoder) Next(ctx context.Context) (*Frame, error) {
	if err := d.synchronize(ctx); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, prefixSize)
	buf = append(buf, Magic[:]...)
	rest, err := d.src.ReadFull(prefixSize - len(Magic))
	buf = append(buf, rest...)
	if err != nil {
		return nil, d.discard(KindIncompleteHeader, 0,
			fmt.Errorf("%w: read %d of %d bytes: %w", ErrIncompleteHeader, len(buf), HeaderSize, err))
	}

	packetLength := binary.LittleEndian.Uint32(buf[12:16])
	if packetLength < HeaderSize || packetLength > d.maxPacketLength {
		return nil, d.discard(KindInvalidPacketLength, 0,
			fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidPacketLength, packetLength, HeaderSize, d.maxPacketLength))
	}

	buf = append(make([]byte, 0, packetLength), buf...)
	rest, err = d.src.ReadFull(HeaderSize - prefixSize)
	buf = append(buf, rest...)
	if err != nil {
		return nil, d.discard(KindIncompleteHeader, 0,
			fmt.Errorf("%w: read %d of %d bytes: %w", ErrIncompleteHeader, len(buf), HeaderSize, err))
	}
	header, err := DecodeHeader(buf)
	if err != nil {
		return nil, d.discard(KindIncompleteHeader, 0, err)
	}

	rest, err = d.src.ReadFull(int(packetLength) - HeaderSize)
	buf = append(buf, rest...)
	if err != nil {
		return nil, d.discard(KindIncompleteFrame, header.FrameNumber,
			fmt.Errorf("%w: frame %d: read %d of %d bytes: %w", ErrIncompleteFrame, header.FrameNumber, len(buf), packetLength, err))
	}

	return d.decode(header, buf), nil
}

// synchronize consumes bytes until the magic word has been read.
func (d *Decoder) synchronize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.sync.Reset()
	before := d.sync.Discarded()
	defer func() {
		if n := d.sync.Discarded() - before; n > 0 {
			d.stats.discardedBytes.Add(n)
			d.reporter.Report(Diagnostic{
				Level:   LevelDebug,
				Kind:    KindResync,
				Message: fmt.Sprintf("discarded %d bytes before magic word", n),
			})
		}
	}()

	for scanned := 1; ; scanned++ {
		if scanned%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b, err := d.src.ReadByte()
		if errors.Is(err, ErrNoData) {
			d.stats.emptyReads.Add(1)
			d.reporter.Report(Diagnostic{
				Level:   LevelWarn,
				Kind:    KindNoData,
				Message: "read timed out waiting for magic word; check the device is configured and streaming",
			})
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: waiting for magic word: %w", ErrStreamExhausted, err)
		}
		if d.sync.Feed(b) {
			return nil
		}
	}
}

func (d *Decoder) discard(kind Kind, frameNumber uint32, err error) error {
	d.stats.discardedFrames.Add(1)
	d.reporter.Report(Diagnostic{Level: LevelError, Kind: kind, FrameNumber: frameNumber, Err: err})
	return err
}

func (d *Decoder) decode(header FrameHeader, buf []byte) *Frame {
	f := decodeFrame(header, buf, d.reporter)
	d.stats.frames.Add(1)
	d.stats.lastFrameNumber.Store(header.FrameNumber)
	d.stats.tlvs.Add(uint64(len(f.TLVs)))
	if f.Partial {
		d.stats.partial.Add(1)
	}
	for _, t := range f.TLVs {
		switch {
		case t.Err != nil:
			d.stats.invalidPayloads.Add(1)
		case !t.Type.Known():
			d.stats.unknown.Add(1)
		}
	}
	if f.Truncation != nil {
		d.stats.malformed.Add(1)
	}
	return f
}

func decodeFrame(header FrameHeader, buf []byte, r Reporter) *Frame {
	tlvs, err := decodeTLVs(buf, header.NumTLVs, header.FrameNumber, r)
	f := &Frame{
		Header:  header,
		TLVs:    tlvs,
		Partial: len(tlvs) < int(header.NumTLVs),
	}
	errors.As(err, &f.Truncation)
	return f
}

// DecodeFrame decodes an already assembled frame buffer, header
// included. Only header level problems are returned as errors.
func DecodeFrame(buf []byte, r Reporter) (*Frame, error) {
	header, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	return decodeFrame(header, buf, orNop(r)), nil
}

// Stats returns a snapshot of the decoder counters. It is safe to call
// while another goroutine is running Next.
func (d *Decoder) Stats() Stats {
	return Stats{
		Frames:          d.stats.frames.Load(),
		PartialFrames:   d.stats.partial.Load(),
		DiscardedFrames: d.stats.discardedFrames.Load(),
		DiscardedBytes:  d.stats.discardedBytes.Load(),
		EmptyReads:      d.stats.emptyReads.Load(),
		TLVs:            d.stats.tlvs.Load(),
		MalformedTLVs:   d.stats.malformed.Load(),
		InvalidPayloads: d.stats.invalidPayloads.Load(),
		UnknownTLVs:     d.stats.unknown.Load(),
		LastFrameNumber: d.stats.lastFrameNumber.Load(),
	}
}
