package mmwave

import (
	"errors"
	"fmt"
	"io"
)

// ByteSource is an ordered byte stream without seeking.
//
// ReadByte returns ErrNoData when a read produced nothing (for example a
// serial read timed out); the caller may try again. ReadFull returns the
// bytes it managed to read alongside any error.
type ByteSource interface {
	ReadByte() (byte, error)
	ReadFull(n int) ([]byte, error)
}

const defaultSourceBufferSize = 4096

// ReaderSource adapts an io.Reader to ByteSource. A Read returning
// (0, nil) is treated as an empty read rather than retried forever, so
// readers with a timeout (serial ports) keep their timeout semantics.
type ReaderSource struct {
	r          io.Reader
	buf        []byte
	start, end int
	// MaxEmptyReads is the number of consecutive empty reads ReadFull
	// tolerates before giving up with ErrNoData.
	MaxEmptyReads int
}

// NewReaderSource returns a ByteSource reading from r.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{
		r:             r,
		buf:           make([]byte, defaultSourceBufferSize),
		MaxEmptyReads: 1,
	}
}

// fill performs exactly one Read on the underlying reader.
func (s *ReaderSource) fill() error {
	n, err := s.r.Read(s.buf)
	s.start, s.end = 0, n
	if n > 0 {
		return nil
	}
	if err == nil {
		return ErrNoData
	}
	return err
}

func (s *ReaderSource) ReadByte() (byte, error) {
	if s.start == s.end {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	b := s.buf[s.start]
	s.start++
	return b, nil
}

func (s *ReaderSource) ReadFull(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]byte, 0, n)
	empty := 0
	for len(out) < n {
		if s.start == s.end {
			err := s.fill()
			if errors.Is(err, ErrNoData) {
				empty++
				if empty >= s.MaxEmptyReads {
					return out, err
				}
				continue
			}
			if err != nil {
				if err == io.EOF && len(out) > 0 {
					err = io.ErrUnexpectedEOF
				}
				return out, err
			}
			empty = 0
		}
		k := copy(out[len(out):n], s.buf[s.start:s.end])
		out = out[:len(out)+k]
		s.start += k
	}
	return out, nil
}

// Buffered returns the number of bytes read from the underlying reader
// but not yet consumed.
func (s *ReaderSource) Buffered() int { return s.end - s.start }

// BytesSource is a ByteSource over an in-memory buffer. It returns
// io.EOF once the buffer is consumed.
type BytesSource struct {
	data []byte
	off  int
}

// NewBytesSource returns a ByteSource reading from data.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

func (s *BytesSource) ReadByte() (byte, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}
	b := s.data[s.off]
	s.off++
	return b, nil
}

func (s *BytesSource) ReadFull(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	avail := len(s.data) - s.off
	if avail <= 0 {
		return nil, io.EOF
	}
	if avail < n {
		out := append([]byte(nil), s.data[s.off:]...)
		s.off = len(s.data)
		return out, fmt.Errorf("read %d of %d bytes: %w", avail, n, io.ErrUnexpectedEOF)
	}
	out := append([]byte(nil), s.data[s.off:s.off+n]...)
	s.off += n
	return out, nil
}

// Consumed returns the number of bytes read so far.
func (s *BytesSource) Consumed() int { return s.off }
