package service

import (
	"math/rand/v2"
	"sync"

	"keybot/keyhub/internal/model"
)

// SelectionPolicy picks the pooled key handed to a claiming member.
type SelectionPolicy interface {
	Pick(candidates []model.Key) (model.Key, error)
}

type randomSelection struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelection picks uniformly among candidates. A nil rng uses the global generator.
func NewRandomSelection(rng *rand.Rand) SelectionPolicy {
	return &randomSelection{rng: rng}
}

func (s *randomSelection) Pick(candidates []model.Key) (model.Key, error) {
	if len(candidates) == 0 {
		return model.Key{}, ErrNoCandidates
	}
	return candidates[s.index(len(candidates))], nil
}

func (s *randomSelection) index(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
