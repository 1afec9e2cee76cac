// internal/sampler/sampler.go
//
// Subset-sum sampler used to deal the next star target.
//
// Given the numbers still on the board and an upper bound, every non-empty
// subset whose sum fits under the bound contributes one entry to a pool of
// sums. A target is drawn by picking a pool index uniformly, so a sum that
// several subsets reach is proportionally more likely than a sum only one
// subset reaches.
//
// Notes:
//   - Enumeration is exponential in len(numbers); callers pass at most 9.
//   - Randomness comes from an injected Source so draws are reproducible.

package sampler

import (
	"math/rand/v2"
	"sync"
)

// Source yields uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// lockedSource serialises access to a *rand.Rand, which is not safe for
// concurrent use on its own.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// globalSource delegates to the math/rand/v2 top-level generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Default returns the process-wide source.
func Default() Source { return globalSource{} }

// Seeded returns a deterministic, goroutine-safe source.
func Seeded(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sums returns the weighted pool of subset sums of numbers that are <= bound.
//
// Subsets are grown incrementally: for each number, it is appended to every
// subset kept so far (starting from the empty subset) and the result is
// kept only if its sum still fits under bound. Each kept subset records its
// sum once, so equal sums from different subsets appear more than once.
func Sums(numbers []int, bound int) []int {
	// Only sums matter for growth, so each kept subset is represented by its sum.
	kept := []int{0}
	var pool []int
	for _, n := range numbers {
		for j, size := 0, len(kept); j < size; j++ {
			s := kept[j] + n
			if s <= bound {
				kept = append(kept, s)
				pool = append(pool, s)
			}
		}
	}
	return pool
}

// Sample draws one sum from the pool of numbers under bound.
// ok is false when the pool is empty (no subset fits, or numbers is empty).
func Sample(numbers []int, bound int, src Source) (sum int, ok bool) {
	pool := Sums(numbers, bound)
	if len(pool) == 0 {
		return 0, false
	}
	if src == nil {
		src = Default()
	}
	return pool[src.IntN(len(pool))], true
}
