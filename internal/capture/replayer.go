package capture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// Replayer plays back the frames of a recorded session.
type Replayer struct {
	entries []Entry

	mu      sync.Mutex
	current int
}

// NewReplayer loads every replay_<k>.json file in dir in numeric order.
// Files written by a Recorder are cumulative, so entries already seen in
// an earlier file are skipped.
func NewReplayer(dir string) (*Replayer, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "replay_*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no replay files in %s", dir)
	}

	type numbered struct {
		k    int
		path string
	}
	files := make([]numbered, 0, len(paths))
	for _, p := range paths {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), "replay_"), ".json")
		k, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		files = append(files, numbered{k, p})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].k < files[j].k })

	r := &Replayer{}
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read replay file: %w", err)
		}
		var file File
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
		}
		if len(file.Data) > len(r.entries) {
			r.entries = append(r.entries, file.Data[len(r.entries):]...)
		}
	}
	return r, nil
}

// Len returns the number of frames in the session.
func (r *Replayer) Len() int {
	return len(r.entries)
}

// Entries returns a copy of every frame in the session.
func (r *Replayer) Entries() []Entry {
	return slices.Clone(r.entries)
}

// Next returns the next recorded frame, or io.EOF after the last one.
func (r *Replayer) Next() (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current >= len(r.entries) {
		return Entry{}, io.EOF
	}
	e := r.entries[r.current]
	r.current++
	return e, nil
}

// Rewind restarts playback from the first frame.
func (r *Replayer) Rewind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = 0
}

// Encode re-encodes a replayed frame into its wire form so it can be fed
// through a decoder again.
func Encode(e Entry) ([]byte, error) {
	if e.FrameData == nil {
		return nil, fmt.Errorf("replay entry has no frame")
	}
	payloads := make([]mmwave.Payload, 0, len(e.FrameData.TLVs))
	for _, t := range e.FrameData.TLVs {
		if t.Payload == nil {
			continue
		}
		payloads = append(payloads, t.Payload)
	}
	return mmwave.EncodePayloads(e.FrameData.Header, payloads...), nil
}
