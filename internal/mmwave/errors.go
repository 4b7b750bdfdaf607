package mmwave

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamExhausted is returned when the byte source cannot supply
	// the bytes a frame needs. The frame is discarded.
	ErrStreamExhausted = errors.New("byte stream exhausted")

	// ErrIncompleteHeader and ErrIncompleteFrame wrap ErrStreamExhausted.
	ErrIncompleteHeader = fmt.Errorf("incomplete frame header: %w", ErrStreamExhausted)
	ErrIncompleteFrame  = fmt.Errorf("incomplete frame: %w", ErrStreamExhausted)

	// ErrNoData is returned by a ByteSource when a read yielded no bytes,
	// typically because a serial read timed out.
	ErrNoData = errors.New("no data available")

	ErrBadMagic             = errors.New("bad magic word")
	ErrInvalidPacketLength  = errors.New("invalid packet length")
	ErrMalformedTLV         = errors.New("malformed TLV")
	ErrInvalidPayloadLength = errors.New("invalid payload length")
)

// TLVError describes a TLV whose declared length cannot be honoured by
// the frame buffer. Decoding of the remaining TLVs in the frame stops.
type TLVError struct {
	Index          int     `json:"index"`  // position of the record in the frame
	Offset         int     `json:"offset"` // byte offset of the TLV sub-header in the frame
	Type           TLVType `json:"type"`
	DeclaredLength uint32  `json:"declaredLength"`
	Remaining      int     `json:"remaining"` // bytes left in the frame from Offset
}

func (e *TLVError) Error() string {
	return fmt.Sprintf("malformed TLV #%d (%s) at offset %d: declared length %d, %d bytes remaining",
		e.Index, e.Type, e.Offset, e.DeclaredLength, e.Remaining)
}

func (e *TLVError) Unwrap() error { return ErrMalformedTLV }

// PayloadError marks a single TLV whose payload violates a fixed-size
// expectation. The rest of the frame is unaffected.
type PayloadError struct {
	Type   TLVType
	Length int
	Want   string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s payload: got %d bytes, want %s", e.Type, e.Length, e.Want)
}

func (e *PayloadError) Unwrap() error { return ErrInvalidPayloadLength }

// Recoverable reports whether err only affected the current frame, so
// that calling Decoder.Next again is meaningful. Errors from the
// underlying transport (closed port, end of file) are not recoverable.
func Recoverable(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrInvalidPacketLength)
}
