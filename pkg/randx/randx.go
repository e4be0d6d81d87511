// Package randx draws scheduling decisions from crypto/rand. The bot's
// pacing must not be reproducible from a seed, so math/rand is banned here.
package randx

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Source implements models.RandomSource on top of crypto/rand.
type Source struct{}

// New returns a Source.
func New() *Source {
	return &Source{}
}

// IntRange returns a uniform value in [min, max], inclusive. min > max
// panics, mirroring the misuse semantics of crypto/rand.Int.
func (s *Source) IntRange(min, max int) int {
	if min > max {
		panic("randx: IntRange min > max")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		// crypto/rand failing means the platform entropy source is gone;
		// nothing sensible can continue.
		panic(err)
	}
	return min + int(n.Int64())
}

// IntChoice returns a uniformly chosen element of choices.
func (s *Source) IntChoice(choices []int) int {
	return choices[s.IntRange(0, len(choices)-1)]
}

// DurationChoice returns a uniformly chosen element of choices.
func (s *Source) DurationChoice(choices []time.Duration) time.Duration {
	return choices[s.IntRange(0, len(choices)-1)]
}
