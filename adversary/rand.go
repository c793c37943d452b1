package adversary

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Rand is the randomness source of a generator. It is safe for concurrent
// use.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a deterministic source. The same seed yields the same
// sequence of documents.
func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewCryptoRand returns an unpredictable source backed by crypto/rand.
func NewCryptoRand() *Rand {
	return &Rand{r: rand.New(cryptoSource{})}
}

var shared = sync.OnceValue(NewCryptoRand)

// Shared returns the process-wide unpredictable source, created on first
// use.
func Shared() *Rand {
	return shared()
}

// Float64 returns a number in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// IntN returns a number in [0, n).
func (r *Rand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

func (r *Rand) perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Perm(n)
}

// Chance reports true with probability p.
func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return r.Float64() < p
}

type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("adversary: crypto/rand failed: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}
