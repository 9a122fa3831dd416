package domain

import (
	"fmt"
	"strings"
	"time"
)

type AccountID string

type AccountStatus string

const (
	AccountStatusOnline  AccountStatus = "online"
	AccountStatusOffline AccountStatus = "offline"
	AccountStatusUnknown AccountStatus = "unknown"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusOnline, AccountStatusOffline, AccountStatusUnknown:
		return true
	default:
		return false
	}
}

// Account is a provisioned or manually logged-in messaging identity.
// Phone is empty for username/password accounts.
type Account struct {
	ID        AccountID     `json:"id"`
	Phone     string        `json:"phone,omitempty"`
	Username  string        `json:"username"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (a Account) Validate() error {
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.Username) == "" && strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("username or phone is required")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("unsupported status %q", a.Status)
	}
	if a.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}

	return nil
}

type AccountStats struct {
	Total           int
	Online          int
	RegisteredToday int
}

// SummarizeAccounts counts accounts; "today" is the calendar day of now in now's location.
func SummarizeAccounts(accounts []Account, now time.Time) AccountStats {
	stats := AccountStats{Total: len(accounts)}
	year, month, day := now.Date()
	for _, account := range accounts {
		if account.Status == AccountStatusOnline {
			stats.Online++
		}
		y, m, d := account.CreatedAt.In(now.Location()).Date()
		if y == year && m == month && d == day {
			stats.RegisteredToday++
		}
	}

	return stats
}
