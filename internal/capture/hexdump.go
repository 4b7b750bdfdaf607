package capture

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"
)

const hexDigits = "0123456789abcdef"

// DumpHex copies r to w as space-separated lowercase hex, one line per
// read. It stops when r is exhausted, ctx is done, or duration has
// elapsed; a zero duration captures until ctx is done. Empty reads from a
// port with a read timeout are skipped. It returns the number of bytes
// dumped.
func DumpHex(ctx context.Context, r io.Reader, w io.Writer, duration time.Duration) (int64, error) {
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	var total int64
	buf := make([]byte, 4096)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if n > 0 {
			if err := writeHexLine(bw, buf[:n]); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			return total, bw.Flush()
		}
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

func writeHexLine(w *bufio.Writer, b []byte) error {
	for i, c := range b {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteByte(hexDigits[c>>4])
		w.WriteByte(hexDigits[c&0x0f])
	}
	return w.WriteByte('\n')
}
