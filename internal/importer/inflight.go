package importer

import (
	"fmt"
	"sync"
)

// inflightGuard is the advisory in-memory set of checksums currently being
// imported. It short-circuits the obvious same-process race; the catalog's
// uniqueness constraints remain the authoritative backstop. Entries are
// released on completion, success or not, and the set is bounded so a stuck
// worker cannot grow it without limit.
type inflightGuard struct {
	mu    sync.Mutex
	limit int
	held  map[string]struct{}
}

func newInflightGuard(limit int) *inflightGuard {
	if limit <= 0 {
		limit = 64
	}
	return &inflightGuard{limit: limit, held: make(map[string]struct{})}
}

// acquire claims every checksum or none of them.
func (g *inflightGuard) acquire(sums []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, sum := range sums {
		if _, exists := g.held[sum]; exists {
			return fmt.Errorf("content %s is already importing", sum[:min(12, len(sum))])
		}
	}
	if len(g.held)+len(sums) > g.limit {
		return fmt.Errorf("in-flight import limit %d reached", g.limit)
	}
	for _, sum := range sums {
		g.held[sum] = struct{}{}
	}
	return nil
}

func (g *inflightGuard) release(sums []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sum := range sums {
		delete(g.held, sum)
	}
}
