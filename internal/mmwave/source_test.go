package mmwave

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSource_ReadFullAcrossReads(t *testing.T) {
	src := NewReaderSource(&chunkReader{chunks: [][]byte{{1, 2}, {3}, {4, 5, 6}}})

	b, err := src.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	got, err := src.ReadFull(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4, 5}, got)
	assert.Equal(t, 1, src.Buffered())
}

func TestReaderSource_EmptyReads(t *testing.T) {
	t.Run("ReadByte", func(t *testing.T) {
		src := NewReaderSource(&chunkReader{chunks: [][]byte{nil, {7}}})
		_, err := src.ReadByte()
		assert.ErrorIs(t, err, ErrNoData)
		b, err := src.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte(7), b)
	})

	t.Run("ReadFull gives up", func(t *testing.T) {
		src := NewReaderSource(&chunkReader{chunks: [][]byte{{1, 2}, nil, {3, 4}}})
		got, err := src.ReadFull(4)
		assert.ErrorIs(t, err, ErrNoData)
		assert.Equal(t, []byte{1, 2}, got)
	})

	t.Run("ReadFull tolerates configured empty reads", func(t *testing.T) {
		src := NewReaderSource(&chunkReader{chunks: [][]byte{{1, 2}, nil, nil, {3, 4}}})
		src.MaxEmptyReads = 3
		got, err := src.ReadFull(4)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4}, got)
	})
}

func TestReaderSource_EOF(t *testing.T) {
	src := NewReaderSource(&chunkReader{chunks: [][]byte{{1, 2}}})
	got, err := src.ReadFull(3)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, []byte{1, 2}, got)

	_, err = src.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBytesSource(t *testing.T) {
	src := NewBytesSource([]byte{1, 2, 3})
	got, err := src.ReadFull(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	got, err = src.ReadFull(2)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, []byte{3}, got)
	assert.Equal(t, 3, src.Consumed())

	_, err = src.ReadFull(1)
	assert.ErrorIs(t, err, io.EOF)
	_, err = src.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}
