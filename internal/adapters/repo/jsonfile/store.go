// Package jsonfile persists named record collections as JSON arrays, one file per
// collection under a store directory.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/potato-cli/internal/adapters/repo/atomicfile"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	"github.com/rs/zerolog"
)

const (
	fileExt         = ".json"
	corruptSuffix   = ".corrupt"
	tempFilePattern = ".collection-*.json.tmp"
)

var ErrInvalidCollectionName = errors.New("invalid collection name")

type Store struct {
	dir    string
	logger zerolog.Logger
}

func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	normalized, err := atomicfile.NormalizePath(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve store directory: %w", err)
	}

	return &Store{
		dir:    normalized,
		logger: logger.With().Str("component", "record-store").Logger(),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Collection is a typed view over one named JSON array. All collections opened on
// the same path share a lock, so each Append is a full read-modify-write that never
// interleaves with another write to the same name.
type Collection[T any] struct {
	name   string
	path   string
	mu     *sync.RWMutex
	logger zerolog.Logger
}

var (
	_ ports.AccountCollection       = (*Collection[domain.Account])(nil)
	_ ports.CollectedUserCollection = (*Collection[domain.CollectedUser])(nil)
)

func NewCollection[T any](store *Store, name string) (*Collection[T], error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	path := filepath.Join(store.dir, name+fileExt)

	return &Collection[T]{
		name:   name,
		path:   path,
		mu:     atomicfile.LockForPath(path),
		logger: store.logger.With().Str("collection", name).Logger(),
	}, nil
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) Path() string {
	return c.path
}

// Load returns the persisted records. A missing, empty or undecodable file yields an
// empty sequence; only I/O and context errors are returned.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	records, _, err := c.read()
	return records, err
}

func (c *Collection[T]) Append(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, corrupt, err := c.read()
	if err != nil {
		return err
	}
	if corrupt {
		c.preserveCorrupt()
	}

	merged := make([]T, 0, len(current)+len(records))
	merged = append(merged, current...)
	merged = append(merged, records...)

	return c.write(merged)
}

func (c *Collection[T]) Overwrite(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if records == nil {
		records = []T{}
	}

	return c.write(records)
}

func (c *Collection[T]) read() ([]T, bool, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []T{}, false, nil
		}
		return nil, false, fmt.Errorf("read collection %s: %w", c.name, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, false, nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn().Err(err).Str("path", c.path).Msg("collection file is corrupt, treating as empty")
		return []T{}, true, nil
	}
	if records == nil {
		records = []T{}
	}

	return records, false, nil
}

func (c *Collection[T]) write(records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c.name, err)
	}

	if err := atomicfile.Write(c.path, data, tempFilePattern); err != nil {
		return fmt.Errorf("write collection %s: %w", c.name, err)
	}

	c.logger.Debug().Int("records", len(records)).Msg("collection written")
	return nil
}

func (c *Collection[T]) preserveCorrupt() {
	backup := c.path + corruptSuffix
	if err := os.Rename(c.path, backup); err != nil {
		c.logger.Warn().Err(err).Msg("could not preserve corrupt collection file")
		return
	}
	c.logger.Warn().Str("backup", backup).Msg("corrupt collection file preserved before rewrite")
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return fmt.Errorf("%w: %q", ErrInvalidCollectionName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidCollectionName, name)
	}

	return nil
}
