package application

import (
	"time"

	"github.com/bnema/potato-cli/internal/domain"
)

// Dashboard is the aggregate view over both record collections.
type Dashboard struct {
	Accounts    domain.AccountStats
	Collection  domain.CollectionStats
	GeneratedAt time.Time
}

type RefreshResult struct {
	Checked  int
	Changed  int
	Accounts []domain.Account
}

type ExportResult struct {
	Data     []byte
	FileName string
	Count    int
}
