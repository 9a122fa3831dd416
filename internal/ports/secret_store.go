package ports

import (
	"context"
	"strings"
)

// SecretStore holds provider credentials keyed as "scheme://path", e.g.
// "sms://activate/api_key". Get returns an error wrapping domain.ErrSecretNotFound
// for unknown keys.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

func SMSAPIKeySecret(service string) string {
	return "sms://" + strings.ToLower(strings.TrimSpace(service)) + "/api_key"
}
