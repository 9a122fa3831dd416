package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bnema/potato-cli/internal/adapters/repo/atomicfile"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

// SessionRepository persists the signed-in operator between CLI invocations.
type SessionRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(path string) (*SessionRepository, error) {
	normalized, err := atomicfile.NormalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session path: %w", err)
	}

	return &SessionRepository{path: normalized, mu: atomicfile.LockForPath(normalized)}, nil
}

// Get returns the zero Session when nobody is signed in.
func (r *SessionRepository) Get(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, nil
		}
		return domain.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var file sessionFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.Session{}, fmt.Errorf("decode session file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		OperatorID: domain.OperatorID(file.OperatorID),
		StartedAt:  parseTime(file.StartedAt),
	}, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := sessionFileSchema{
		OperatorID: string(session.OperatorID),
		StartedAt:  formatTime(session.StartedAt),
	}
	file.applyDefaults()

	return writeTOMLFile(r.path, file)
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}
