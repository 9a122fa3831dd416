package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bnema/potato-cli/internal/adapters/repo/atomicfile"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const tempFilePattern = ".potato-*.toml.tmp"

// OperatorRepository keeps the operator registry in a versioned TOML file.
type OperatorRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.OperatorRepository = (*OperatorRepository)(nil)

func NewOperatorRepository(path string) (*OperatorRepository, error) {
	normalized, err := atomicfile.NormalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve operators path: %w", err)
	}

	return &OperatorRepository{path: normalized, mu: atomicfile.LockForPath(normalized)}, nil
}

// Save inserts or replaces by ID. Usernames are unique case-insensitively.
func (r *OperatorRepository) Save(ctx context.Context, operator domain.Operator) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toOperatorSchema(operator)
	updated := false
	for i := range file.Operators {
		existing := file.Operators[i]
		if existing.ID != encoded.ID && strings.EqualFold(existing.Username, encoded.Username) {
			return fmt.Errorf("%w: %s", domain.ErrOperatorExists, operator.Username)
		}
		if existing.ID == encoded.ID {
			file.Operators[i] = encoded
			updated = true
		}
	}
	if !updated {
		file.Operators = append(file.Operators, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.path, file)
}

func (r *OperatorRepository) GetByID(ctx context.Context, id domain.OperatorID) (domain.Operator, error) {
	return r.find(ctx, func(entry operatorSchema) bool {
		return entry.ID == string(id)
	})
}

func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (domain.Operator, error) {
	return r.find(ctx, func(entry operatorSchema) bool {
		return strings.EqualFold(entry.Username, username)
	})
}

func (r *OperatorRepository) List(ctx context.Context) ([]domain.Operator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	operators := make([]domain.Operator, 0, len(file.Operators))
	for _, entry := range file.Operators {
		operators = append(operators, fromOperatorSchema(entry))
	}

	return operators, nil
}

func (r *OperatorRepository) find(ctx context.Context, match func(operatorSchema) bool) (domain.Operator, error) {
	if err := ctx.Err(); err != nil {
		return domain.Operator{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Operator{}, err
	}

	for _, entry := range file.Operators {
		if match(entry) {
			return fromOperatorSchema(entry), nil
		}
	}

	return domain.Operator{}, domain.ErrOperatorNotFound
}

func (r *OperatorRepository) readSchema() (operatorsFileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return operatorsFileSchema{Version: currentOperatorsSchemaVersion}, nil
		}
		return operatorsFileSchema{}, fmt.Errorf("read operators file: %w", err)
	}

	var file operatorsFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return operatorsFileSchema{}, fmt.Errorf("decode operators file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return operatorsFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func writeTOMLFile(path string, file any) error {
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode file: %w", err)
	}

	return atomicfile.Write(path, data, tempFilePattern)
}

func toOperatorSchema(operator domain.Operator) operatorSchema {
	return operatorSchema{
		ID:           string(operator.ID),
		Username:     operator.Username,
		PasswordHash: operator.PasswordHash,
		CreatedAt:    formatTime(operator.CreatedAt),
		LastLoginAt:  formatTime(operator.LastLoginAt),
	}
}

func fromOperatorSchema(schema operatorSchema) domain.Operator {
	return domain.Operator{
		ID:           domain.OperatorID(schema.ID),
		Username:     schema.Username,
		PasswordHash: schema.PasswordHash,
		CreatedAt:    parseTime(schema.CreatedAt),
		LastLoginAt:  parseTime(schema.LastLoginAt),
	}
}
