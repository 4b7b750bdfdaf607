package serialmux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

func testFrame(frameNumber uint32, payloads ...mmwave.Payload) []byte {
	return mmwave.EncodePayloads(mmwave.FrameHeader{Version: 0x0306, FrameNumber: frameNumber}, payloads...)
}

func receive(t *testing.T, ch <-chan *mmwave.Frame) *mmwave.Frame {
	t.Helper()
	select {
	case f, ok := <-ch:
		require.True(t, ok, "subscriber channel closed")
		return f
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
		return nil
	}
}

func TestNewFrameMux(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewFrameMux(port)
	require.NotNil(t, mux)
	assert.Empty(t, mux.subscribers)
	assert.Nil(t, mux.LastFrame())

	var _ FrameMuxInterface = mux
	var _ FrameMuxInterface = NewDisabledFrameMux()
}

func TestFrameMux_Subscribe(t *testing.T) {
	mux := NewFrameMux(NewTestableSerialPort())

	id1, ch1 := mux.Subscribe()
	id2, ch2 := mux.Subscribe()

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
	assert.NotNil(t, ch1)
	assert.NotNil(t, ch2)
	assert.Equal(t, subscriberBuffer, cap(ch1))
	assert.Len(t, mux.subscribers, 2)
}

func TestFrameMux_Unsubscribe(t *testing.T) {
	mux := NewFrameMux(NewTestableSerialPort())
	id, ch := mux.Subscribe()

	mux.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after Unsubscribe")
	assert.Empty(t, mux.subscribers)

	// unknown IDs are ignored
	mux.Unsubscribe("nonexistent")
}

func TestFrameMux_Close(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewFrameMux(port)

	id1, ch1 := mux.Subscribe()
	_, ch2 := mux.Subscribe()

	require.NoError(t, mux.Close())

	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)
	assert.True(t, port.Closed)
	assert.Empty(t, mux.subscribers)

	mux.closingMu.Lock()
	assert.True(t, mux.closing)
	mux.closingMu.Unlock()

	// Unsubscribing after close should be safe
	mux.Unsubscribe(id1)
}

func TestFrameMux_Close_PortError(t *testing.T) {
	port := NewTestableSerialPort()
	port.CloseError = errors.New("close error")
	mux := NewFrameMux(port)
	assert.EqualError(t, mux.Close(), "close error")
}

func TestFrameMux_Monitor_DeliversFrames(t *testing.T) {
	port := NewTestableSerialPort()
	port.BlockReads = true
	mux := NewFrameMux(port)
	_, ch1 := mux.Subscribe()
	_, ch2 := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	// leading line noise is skipped by the synchroniser
	port.AddReadData([]byte("Done\r\n"))
	port.AddReadData(testFrame(1, mmwave.TargetIndex{TargetIDs: []uint8{4, 7}}))
	port.AddReadData(testFrame(2, mmwave.PresenceIndication{Presence: 1}))

	for _, ch := range []chan *mmwave.Frame{ch1, ch2} {
		f := receive(t, ch)
		assert.Equal(t, uint32(1), f.Header.FrameNumber)
		require.Len(t, f.TLVs, 1)
		assert.Equal(t, mmwave.TargetIndex{TargetIDs: []uint8{4, 7}}, f.TLVs[0].Payload)

		f = receive(t, ch)
		assert.Equal(t, uint32(2), f.Header.FrameNumber)
	}

	assert.Eventually(t, func() bool {
		last := mux.LastFrame()
		return last != nil && last.Header.FrameNumber == 2
	}, time.Second, 5*time.Millisecond)

	stats := mux.Stats()
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(6), stats.DiscardedBytes)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
	mux.Close()
}

func TestFrameMux_Monitor_SkipsInvalidPacketLength(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewFrameMux(port)
	_, ch := mux.Subscribe()

	bad := testFrame(1)
	bad[12] = 10 // packetLength below the header size
	port.AddReadData(bad)
	port.AddReadData(testFrame(2))

	// the buffer drains to io.EOF after the second frame
	err := mux.Monitor(context.Background())
	assert.ErrorIs(t, err, mmwave.ErrStreamExhausted)

	f := receive(t, ch)
	assert.Equal(t, uint32(2), f.Header.FrameNumber)
	assert.Equal(t, uint64(1), mux.Stats().DiscardedFrames)
}

func TestFrameMux_Monitor_ReadError(t *testing.T) {
	port := NewTestableSerialPort()
	port.ReadError = errors.New("device unplugged")
	mux := NewFrameMux(port)

	err := mux.Monitor(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, mmwave.ErrStreamExhausted)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestFrameMux_Monitor_TimeoutsAreRecoverable(t *testing.T) {
	port := NewTestableSerialPort()
	port.SetReadTimeout(time.Millisecond)
	mux := NewFrameMux(port)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := mux.Monitor(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotZero(t, mux.Stats().EmptyReads)
}

func TestFrameMux_SlowSubscriberDropsFrames(t *testing.T) {
	mux := NewFrameMux(NewTestableSerialPort())
	_, ch := mux.Subscribe()

	for i := 0; i < subscriberBuffer+3; i++ {
		mux.broadcast(&mmwave.Frame{Header: mmwave.FrameHeader{FrameNumber: uint32(i)}})
	}
	assert.Len(t, ch, subscriberBuffer)
	assert.Equal(t, uint64(3), mux.dropped.Load())
}
