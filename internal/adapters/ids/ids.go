package ids

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/potato-cli/internal/ports"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULID generates lexically sortable identifiers. Monotonic entropy keeps IDs
// minted within the same millisecond strictly increasing.
type ULID struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

var _ ports.IDGenerator = (*ULID)(nil)

func NewULID() *ULID {
	return &ULID{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (g *ULID) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

type UUID struct{}

var _ ports.IDGenerator = UUID{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence hands out prefix1, prefix2, ... and is meant for tests and fixtures.
type Sequence struct {
	prefix string
	next   atomic.Uint64
}

var _ ports.IDGenerator = (*Sequence)(nil)

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return s.prefix + strconv.FormatUint(s.next.Add(1), 10)
}

// Prefixed decorates a generator so every ID starts with prefix, e.g. "acc_".
type Prefixed struct {
	prefix string
	inner  ports.IDGenerator
}

var _ ports.IDGenerator = Prefixed{}

func WithPrefix(prefix string, inner ports.IDGenerator) Prefixed {
	return Prefixed{prefix: prefix, inner: inner}
}

func (p Prefixed) NewID() string {
	return p.prefix + p.inner.NewID()
}

// New returns the generator for a configured strategy name.
func New(strategy string) (ports.IDGenerator, error) {
	switch strategy {
	case "", "ulid":
		return NewULID(), nil
	case "uuid":
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("unsupported id strategy %q", strategy)
	}
}
