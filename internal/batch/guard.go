package batch

import (
	"fmt"
	"sync"

	"github.com/bnema/potato-cli/internal/domain"
)

// Guard allows at most one running operation per target. A second caller is
// rejected, not queued.
type Guard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{running: make(map[string]struct{})}
}

// Acquire marks target as running. The returned release is safe to call more than once.
func (g *Guard) Acquire(target string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.running[target]; busy {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyInProgress, target)
	}
	g.running[target] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, target)
			g.mu.Unlock()
		})
	}, nil
}

func (g *Guard) InProgress(target string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, busy := g.running[target]
	return busy
}
