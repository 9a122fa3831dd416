package ports

import (
	"context"

	"github.com/bnema/potato-cli/internal/domain"
)

const (
	AccountsCollection       = "accounts"
	CollectedUsersCollection = "collected_users"
)

// RecordCollection is a named, persisted sequence of records.
type RecordCollection[T any] interface {
	Name() string
	Load(ctx context.Context) ([]T, error)
	Append(ctx context.Context, records []T) error
	Overwrite(ctx context.Context, records []T) error
}

type AccountCollection = RecordCollection[domain.Account]

type CollectedUserCollection = RecordCollection[domain.CollectedUser]
