package search

import (
	"fmt"
	"math/rand/v2"
)

// Stream is the run's single random source: a PCG generator whose state
// round-trips through binary marshaling, so a restored run continues the
// exact draw sequence the checkpoint interrupted. All randomness in a run
// flows through one Stream from one goroutine.
type Stream struct {
	src *rand.PCG
	*rand.Rand
}

// NewStream derives both PCG seed words from a single run seed.
func NewStream(seed uint64) *Stream {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Stream{src: src, Rand: rand.New(src)}
}

func (s *Stream) MarshalBinary() ([]byte, error) {
	return s.src.MarshalBinary()
}

func (s *Stream) UnmarshalBinary(data []byte) error {
	if err := s.src.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("restore random state: %w", err)
	}
	return nil
}
