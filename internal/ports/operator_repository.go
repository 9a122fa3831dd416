package ports

import (
	"context"

	"github.com/bnema/potato-cli/internal/domain"
)

type OperatorRepository interface {
	GetByID(ctx context.Context, id domain.OperatorID) (domain.Operator, error)
	GetByUsername(ctx context.Context, username string) (domain.Operator, error)
	List(ctx context.Context) ([]domain.Operator, error)
	Save(ctx context.Context, operator domain.Operator) error
}

type SessionRepository interface {
	Get(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
}
