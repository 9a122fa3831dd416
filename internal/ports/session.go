package ports

import (
	"context"

	"github.com/bnema/potato-cli/internal/domain"
)

// SessionGate answers whether an operator is signed in.
type SessionGate interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	CurrentOperator(ctx context.Context) (domain.Operator, error)
}
