package application

import (
	"math/rand"
	"sync"
	"time"
)

// MaxPlaceholderPosition bounds the placeholder position.
const MaxPlaceholderPosition = 100

// RandomPositions hands out a random placeholder position in 1..100.
// There is no backing count; the number only decorates the success panel.
type RandomPositions struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPositions uses rng, or a time-seeded source when rng is nil.
func NewRandomPositions(rng *rand.Rand) *RandomPositions {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomPositions{rng: rng}
}

func (r *RandomPositions) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(MaxPlaceholderPosition) + 1
}
