package ports

import (
	"context"

	"github.com/bnema/potato-cli/internal/domain"
)

type RegistrationRequest struct {
	Index      int
	SMSService string
	APIKey     string
}

// ProvisioningService is the remote messaging platform plus SMS provider. Returned
// accounts carry platform data only; callers assign IDs and timestamps.
type ProvisioningService interface {
	AttemptRegistration(ctx context.Context, req RegistrationRequest) (domain.Account, error)
	AttemptLogin(ctx context.Context, phone, code string) (domain.Account, error)
	SendVerificationCode(ctx context.Context, phone string) error
	CheckStatus(ctx context.Context, account domain.Account) (domain.AccountStatus, error)
}

// CollectionService scans the platform for candidate users.
type CollectionService interface {
	ScanNearby(ctx context.Context, query domain.NearbyQuery) ([]domain.CollectedUser, error)
	ScanGroup(ctx context.Context, query domain.GroupQuery) ([]domain.CollectedUser, error)
}
