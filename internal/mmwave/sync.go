package mmwave

// syncState is the state of the magic word matcher.
type syncState uint8

const (
	stateScanning syncState = iota // waiting for Magic[0]
	stateMatching                  // matched bytes of Magic so far in Synchronizer.matched
)

// Synchronizer finds the magic word in a byte stream one byte at a time.
// The zero value is ready to use.
type Synchronizer struct {
	state     syncState
	matched   int
	discarded uint64
}

// Feed advances the matcher by one byte and reports whether the byte
// completed the magic word. On completion the matcher returns to the
// scanning state.
//
// A byte that breaks a partial match is examined again as a possible
// start of the word, so garbage ending in a prefix of the marker (01 02
// 03 01 02 03 04 05 06 07 08) still synchronizes. Magic has no repeated
// bytes, which makes this sufficient without a full failure table.
func (s *Synchronizer) Feed(b byte) bool {
	if s.state == stateMatching {
		if b == Magic[s.matched] {
			s.matched++
			if s.matched == len(Magic) {
				s.Reset()
				return true
			}
			return false
		}
		s.discarded += uint64(s.matched)
		s.Reset()
	}

	if b == Magic[0] {
		s.state = stateMatching
		s.matched = 1
		return false
	}
	s.discarded++
	return false
}

// Matched returns the number of marker bytes matched so far.
func (s *Synchronizer) Matched() int {
	if s.state == stateScanning {
		return 0
	}
	return s.matched
}

// Discarded returns the number of bytes thrown away while scanning.
func (s *Synchronizer) Discarded() uint64 { return s.discarded }

// Reset returns the matcher to the scanning state.
func (s *Synchronizer) Reset() {
	s.state = stateScanning
	s.matched = 0
}
