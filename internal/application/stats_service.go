package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
)

type StatsService struct {
	gate     ports.SessionGate
	accounts ports.AccountCollection
	users    ports.CollectedUserCollection
	clock    ports.Clock
	location *time.Location
}

// NewStatsService counts "registered today" in the local time zone.
func NewStatsService(gate ports.SessionGate, accounts ports.AccountCollection, users ports.CollectedUserCollection, clock ports.Clock) *StatsService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &StatsService{
		gate:     gate,
		accounts: accounts,
		users:    users,
		clock:    clock,
		location: time.Local,
	}
}

func (s *StatsService) Dashboard(ctx context.Context) (Dashboard, error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return Dashboard{}, err
	}

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load accounts: %w", err)
	}
	users, err := s.users.Load(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load collected users: %w", err)
	}

	now := s.clock.Now().In(s.location)
	return Dashboard{
		Accounts:    domain.SummarizeAccounts(accounts, now),
		Collection:  domain.SummarizeCollectedUsers(users),
		GeneratedAt: now,
	}, nil
}
