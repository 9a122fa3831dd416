package toml

import (
	"fmt"
	"time"
)

const (
	currentOperatorsSchemaVersion = 1
	currentSessionSchemaVersion   = 1
)

type operatorsFileSchema struct {
	Version   int              `toml:"version"`
	Operators []operatorSchema `toml:"operators"`
}

func (s *operatorsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentOperatorsSchemaVersion
	}
}

func (s operatorsFileSchema) validateVersion() error {
	if s.Version > currentOperatorsSchemaVersion {
		return fmt.Errorf("unsupported operators schema version %d (current %d)", s.Version, currentOperatorsSchemaVersion)
	}

	return nil
}

type operatorSchema struct {
	ID           string `toml:"id"`
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"`
	CreatedAt    string `toml:"created_at"`
	LastLoginAt  string `toml:"last_login_at,omitempty"`
}

type sessionFileSchema struct {
	Version    int    `toml:"version"`
	OperatorID string `toml:"operator_id"`
	StartedAt  string `toml:"started_at,omitempty"`
}

func (s *sessionFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSessionSchemaVersion
	}
}

func (s sessionFileSchema) validateVersion() error {
	if s.Version > currentSessionSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSessionSchemaVersion)
	}

	return nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
