package domain

import "time"

type OperatorID string

// Operator is a person allowed to drive provisioning and collection work.
type Operator struct {
	ID           OperatorID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

type Session struct {
	OperatorID OperatorID
	StartedAt  time.Time
}

func (s Session) Active() bool {
	return s.OperatorID != ""
}
