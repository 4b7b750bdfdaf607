// Package capture records decoded frames to replay files and plays them
// back.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// DefaultFramesPerFile is the number of frames between replay file writes.
const DefaultFramesPerFile = 100

// Entry is one recorded frame. Timestamp is milliseconds since the Unix
// epoch.
type Entry struct {
	FrameData *mmwave.Frame `json:"frameData"`
	Timestamp float64       `json:"timestamp"`
}

// Time returns the entry's timestamp.
func (e Entry) Time() time.Time {
	return time.UnixMicro(int64(e.Timestamp * 1000))
}

// File is the layout of a replay_<k>.json file.
type File struct {
	Data []Entry `json:"data"`
}

func replayFileName(k int) string {
	return fmt.Sprintf("replay_%d.json", k)
}

// Recorder accumulates frames and writes them to
// <dir>/<session>/replay_<k>.json every FramesPerFile frames. Each file
// holds every frame recorded so far.
type Recorder struct {
	path          string
	framesPerFile int
	now           func() time.Time

	mu      sync.Mutex
	entries []Entry
	written int
	files   int
	closed  bool
}

// NewRecorder creates a Recorder for a new session under dir. The session
// directory is named with a random UUID and created on the first write.
func NewRecorder(dir string, framesPerFile int) (*Recorder, error) {
	if dir == "" {
		return nil, fmt.Errorf("capture directory is required")
	}
	if framesPerFile <= 0 {
		framesPerFile = DefaultFramesPerFile
	}
	return &Recorder{
		path:          filepath.Join(dir, uuid.NewString()),
		framesPerFile: framesPerFile,
		now:           time.Now,
	}, nil
}

// Path returns the session directory.
func (r *Recorder) Path() string {
	return r.path
}

// FrameCount returns the number of frames recorded.
func (r *Recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Record appends a frame, writing the next replay file when a multiple of
// FramesPerFile frames has been recorded.
func (r *Recorder) Record(frame *mmwave.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("recorder is closed")
	}

	r.entries = append(r.entries, Entry{
		FrameData: frame,
		Timestamp: float64(r.now().UnixMicro()) / 1000,
	})
	if len(r.entries)%r.framesPerFile == 0 {
		return r.flush()
	}
	return nil
}

// Close writes any frames recorded since the last replay file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if len(r.entries) > r.written {
		return r.flush()
	}
	return nil
}

func (r *Recorder) flush() error {
	if r.files == 0 {
		if err := os.MkdirAll(r.path, 0755); err != nil {
			return fmt.Errorf("failed to create capture directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(File{Data: r.entries}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal replay file: %w", err)
	}
	k := r.files + 1
	if err := os.WriteFile(filepath.Join(r.path, replayFileName(k)), data, 0644); err != nil {
		return fmt.Errorf("failed to write replay file: %w", err)
	}
	r.files = k
	r.written = len(r.entries)
	return nil
}
