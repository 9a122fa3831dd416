package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	"github.com/rs/zerolog"
)

// ProvisioningService creates and maintains accounts. Operations that write the
// accounts collection hold the guard for it, so a second one is rejected with
// ErrAlreadyInProgress while the first runs.
type ProvisioningService struct {
	gate     ports.SessionGate
	remote   ports.ProvisioningService
	accounts ports.AccountCollection
	secrets  ports.SecretStore
	runner   *batch.Runner[domain.Account]
	guard    *batch.Guard
	clock    ports.Clock
	logger   zerolog.Logger
}

func NewProvisioningService(
	gate ports.SessionGate,
	remote ports.ProvisioningService,
	accounts ports.AccountCollection,
	secrets ports.SecretStore,
	runner *batch.Runner[domain.Account],
	guard *batch.Guard,
	clock ports.Clock,
	logger zerolog.Logger,
) *ProvisioningService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ProvisioningService{
		gate:     gate,
		remote:   remote,
		accounts: accounts,
		secrets:  secrets,
		runner:   runner,
		guard:    guard,
		clock:    clock,
		logger:   logger.With().Str("component", "provisioning-service").Logger(),
	}
}

// BatchRegister attempts cmd.Count registrations and appends the successful ones
// once the whole batch has settled.
func (s *ProvisioningService) BatchRegister(ctx context.Context, cmd BatchRegisterCommand, progress batch.ProgressFunc) (batch.Result[domain.Account], error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return batch.Result[domain.Account]{}, err
	}
	if err := cmd.Validate(); err != nil {
		return batch.Result[domain.Account]{}, err
	}

	service := strings.ToLower(strings.TrimSpace(cmd.SMSService))
	apiKey, err := s.resolveAPIKey(ctx, service, cmd.APIKey)
	if err != nil {
		return batch.Result[domain.Account]{}, err
	}

	release, err := s.guard.Acquire(s.accounts.Name())
	if err != nil {
		return batch.Result[domain.Account]{}, err
	}
	defer release()

	existing, err := s.accounts.Load(ctx)
	if err != nil {
		return batch.Result[domain.Account]{}, fmt.Errorf("load accounts: %w", err)
	}
	usernames := newUsernameSet(existing)

	result, err := s.runner.Run(ctx, cmd.Count, func(ctx context.Context, unit batch.Unit) (domain.Account, error) {
		account, err := s.remote.AttemptRegistration(ctx, ports.RegistrationRequest{
			Index:      unit.Index,
			SMSService: service,
			APIKey:     apiKey,
		})
		if err != nil {
			return domain.Account{}, err
		}

		return s.admit(account, unit.ID, usernames)
	}, progress)
	if err != nil {
		return batch.Result[domain.Account]{}, err
	}

	if err := s.accounts.Append(ctx, result.Records); err != nil {
		return batch.Result[domain.Account]{}, fmt.Errorf("append accounts: %w", err)
	}

	return result, nil
}

// ManualLogin signs an existing phone number in with a verification code. It is a
// one-unit batch: a rejected code shows up as zero successes, not as an error.
func (s *ProvisioningService) ManualLogin(ctx context.Context, cmd ManualLoginCommand, progress batch.ProgressFunc) (batch.Result[domain.Account], error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return batch.Result[domain.Account]{}, err
	}
	if err := cmd.Validate(); err != nil {
		return batch.Result[domain.Account]{}, err
	}
	phone := strings.TrimSpace(cmd.Phone)
	code := strings.TrimSpace(cmd.Code)

	release, err := s.guard.Acquire(s.accounts.Name())
	if err != nil {
		return batch.Result[domain.Account]{}, err
	}
	defer release()

	existing, err := s.accounts.Load(ctx)
	if err != nil {
		return batch.Result[domain.Account]{}, fmt.Errorf("load accounts: %w", err)
	}
	for _, account := range existing {
		if account.Phone == phone {
			return batch.Result[domain.Account]{}, fmt.Errorf("%w: account for %s already exists (%s)", domain.ErrInvalidArgument, phone, account.ID)
		}
	}
	usernames := newUsernameSet(existing)

	result, err := s.runner.Run(ctx, 1, func(ctx context.Context, unit batch.Unit) (domain.Account, error) {
		account, err := s.remote.AttemptLogin(ctx, phone, code)
		if err != nil {
			return domain.Account{}, err
		}
		if account.Phone == "" {
			account.Phone = phone
		}

		return s.admit(account, unit.ID, usernames)
	}, progress)
	if err != nil {
		return batch.Result[domain.Account]{}, err
	}

	if err := s.accounts.Append(ctx, result.Records); err != nil {
		return batch.Result[domain.Account]{}, fmt.Errorf("append accounts: %w", err)
	}

	return result, nil
}

func (s *ProvisioningService) RequestCode(ctx context.Context, phone string) error {
	if err := requireOperator(ctx, s.gate); err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("%w: phone number is required", domain.ErrInvalidArgument)
	}

	if err := s.remote.SendVerificationCode(ctx, phone); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}

	return nil
}

// Refresh asks the platform for each account's status and persists the changes.
// An account whose check fails keeps its previous status.
func (s *ProvisioningService) Refresh(ctx context.Context) (RefreshResult, error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return RefreshResult{}, err
	}

	release, err := s.guard.Acquire(s.accounts.Name())
	if err != nil {
		return RefreshResult{}, err
	}
	defer release()

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("load accounts: %w", err)
	}

	result := RefreshResult{Accounts: accounts}
	for i, account := range accounts {
		status, err := s.remote.CheckStatus(ctx, account)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return RefreshResult{}, ctxErr
			}
			s.logger.Debug().Err(err).Str("account", string(account.ID)).Msg("status check failed")
			continue
		}
		result.Checked++
		if status.Valid() && status != account.Status {
			accounts[i].Status = status
			result.Changed++
		}
	}

	if result.Changed == 0 {
		return result, nil
	}
	if err := s.accounts.Overwrite(ctx, accounts); err != nil {
		return RefreshResult{}, fmt.Errorf("overwrite accounts: %w", err)
	}

	return result, nil
}

func (s *ProvisioningService) Delete(ctx context.Context, id domain.AccountID) error {
	if err := requireOperator(ctx, s.gate); err != nil {
		return err
	}
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: account id is required", domain.ErrInvalidArgument)
	}

	release, err := s.guard.Acquire(s.accounts.Name())
	if err != nil {
		return err
	}
	defer release()

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	kept := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if account.ID != id {
			kept = append(kept, account)
		}
	}
	if len(kept) == len(accounts) {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	if err := s.accounts.Overwrite(ctx, kept); err != nil {
		return fmt.Errorf("overwrite accounts: %w", err)
	}

	return nil
}

func (s *ProvisioningService) List(ctx context.Context) ([]domain.Account, error) {
	if err := requireOperator(ctx, s.gate); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	return accounts, nil
}

func (s *ProvisioningService) SetSMSKey(ctx context.Context, cmd SetSMSKeyCommand) error {
	if err := requireOperator(ctx, s.gate); err != nil {
		return err
	}
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := s.secrets.Put(ctx, ports.SMSAPIKeySecret(cmd.SMSService), strings.TrimSpace(cmd.APIKey)); err != nil {
		return fmt.Errorf("store sms api key: %w", err)
	}

	return nil
}

func (s *ProvisioningService) RemoveSMSKey(ctx context.Context, smsService string) error {
	if err := requireOperator(ctx, s.gate); err != nil {
		return err
	}
	if strings.TrimSpace(smsService) == "" {
		return fmt.Errorf("%w: sms service is required", domain.ErrInvalidArgument)
	}

	if err := s.secrets.Delete(ctx, ports.SMSAPIKeySecret(smsService)); err != nil {
		return fmt.Errorf("delete sms api key: %w", err)
	}

	return nil
}

func (s *ProvisioningService) resolveAPIKey(ctx context.Context, service, explicit string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}

	key, err := s.secrets.Get(ctx, ports.SMSAPIKeySecret(service))
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: no api key for sms service %q (pass --api-key or run sms set-key)", domain.ErrInvalidArgument, service)
		}
		return "", fmt.Errorf("load sms api key: %w", err)
	}

	return key, nil
}

// admit stamps a remote account with its batch identity and claims its username.
func (s *ProvisioningService) admit(account domain.Account, id string, usernames *usernameSet) (domain.Account, error) {
	account.ID = domain.AccountID(id)
	account.CreatedAt = s.clock.Now()
	if account.Status == "" {
		account.Status = domain.AccountStatusOnline
	}
	if err := account.Validate(); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %w", domain.ErrUnitFailure, err)
	}
	if !usernames.claim(account.Username) {
		return domain.Account{}, fmt.Errorf("%w: username %q already taken", domain.ErrUnitFailure, account.Username)
	}

	return account, nil
}

type usernameSet struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func newUsernameSet(accounts []domain.Account) *usernameSet {
	set := &usernameSet{taken: make(map[string]struct{}, len(accounts))}
	for _, account := range accounts {
		if account.Username != "" {
			set.taken[strings.ToLower(account.Username)] = struct{}{}
		}
	}

	return set
}

// claim reports false when name is already taken. Empty names are never tracked.
func (u *usernameSet) claim(name string) bool {
	if name == "" {
		return true
	}

	key := strings.ToLower(name)
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.taken[key]; ok {
		return false
	}
	u.taken[key] = struct{}{}
	return true
}
