package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/potato-cli/internal/adapters/ids"
	"github.com/bnema/potato-cli/internal/adapters/repo/jsonfile"
	"github.com/bnema/potato-cli/internal/batch"
	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	portmocks "github.com/bnema/potato-cli/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubGate struct{ authenticated bool }

func (g stubGate) IsAuthenticated(context.Context) (bool, error) {
	return g.authenticated, nil
}

func (g stubGate) CurrentOperator(context.Context) (domain.Operator, error) {
	if !g.authenticated {
		return domain.Operator{}, domain.ErrNotAuthenticated
	}
	return domain.Operator{ID: "op-1", Username: "alice"}, nil
}

var errRemote = errors.New("remote rejected")

// scriptedProvisioning fails the registration indices listed in fail.
type scriptedProvisioning struct {
	mu        sync.Mutex
	fail      map[int]bool
	usernames map[int]string
	requests  []ports.RegistrationRequest
	loginErr  error
	codeErr   error
	statuses  map[domain.AccountID]domain.AccountStatus
}

func (p *scriptedProvisioning) AttemptRegistration(_ context.Context, req ports.RegistrationRequest) (domain.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if p.fail[req.Index] {
		return domain.Account{}, errRemote
	}
	username := fmt.Sprintf("user%d", req.Index)
	if name, ok := p.usernames[req.Index]; ok {
		username = name
	}

	return domain.Account{
		Phone:    fmt.Sprintf("+79%09d", req.Index),
		Username: username,
		Status:   domain.AccountStatusOnline,
	}, nil
}

func (p *scriptedProvisioning) AttemptLogin(_ context.Context, phone, _ string) (domain.Account, error) {
	if p.loginErr != nil {
		return domain.Account{}, p.loginErr
	}
	return domain.Account{Phone: phone, Username: "login" + phone, Status: domain.AccountStatusOnline}, nil
}

func (p *scriptedProvisioning) SendVerificationCode(context.Context, string) error {
	return p.codeErr
}

func (p *scriptedProvisioning) CheckStatus(_ context.Context, account domain.Account) (domain.AccountStatus, error) {
	status, ok := p.statuses[account.ID]
	if !ok {
		return "", errRemote
	}
	return status, nil
}

// blockingCollection returns users once release is closed and signals started
// when a scan begins.
type blockingCollection struct {
	users   []domain.CollectedUser
	err     error
	started chan struct{}
	release chan struct{}
}

func (c *blockingCollection) scan() ([]domain.CollectedUser, error) {
	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		<-c.release
	}
	return c.users, c.err
}

func (c *blockingCollection) ScanNearby(context.Context, domain.NearbyQuery) ([]domain.CollectedUser, error) {
	return c.scan()
}

func (c *blockingCollection) ScanGroup(context.Context, domain.GroupQuery) ([]domain.CollectedUser, error) {
	return c.scan()
}

type stores struct {
	accounts *jsonfile.Collection[domain.Account]
	users    *jsonfile.Collection[domain.CollectedUser]
}

func newStores(t *testing.T) stores {
	t.Helper()

	store, err := jsonfile.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	accounts, err := jsonfile.NewCollection[domain.Account](store, ports.AccountsCollection)
	require.NoError(t, err)
	users, err := jsonfile.NewCollection[domain.CollectedUser](store, ports.CollectedUsersCollection)
	require.NoError(t, err)

	return stores{accounts: accounts, users: users}
}

func newProvisioning(t *testing.T, authenticated bool, remote ports.ProvisioningService, secrets ports.SecretStore) (*ProvisioningService, stores) {
	t.Helper()

	st := newStores(t)
	runner, err := batch.NewRunner[domain.Account](ids.WithPrefix("acc_", ids.NewSequence("")), 1, zerolog.Nop())
	require.NoError(t, err)
	if secrets == nil {
		secrets = portmocks.NewMockSecretStore(t)
	}

	service := NewProvisioningService(stubGate{authenticated: authenticated}, remote, st.accounts, secrets, runner, batch.NewGuard(), fixedClock{now: testNow}, zerolog.Nop())
	return service, st
}

func newCollection(t *testing.T, authenticated bool, remote ports.CollectionService) (*CollectionService, stores, *batch.Guard) {
	t.Helper()

	st := newStores(t)
	runner, err := batch.NewRunner[domain.CollectedUser](ids.WithPrefix("user_", ids.NewSequence("")), 1, zerolog.Nop())
	require.NoError(t, err)
	guard := batch.NewGuard()

	service := NewCollectionService(stubGate{authenticated: authenticated}, remote, st.users, runner, guard, fixedClock{now: testNow}, zerolog.Nop())
	return service, st, guard
}

func nearbyUsers(n int) []domain.CollectedUser {
	users := make([]domain.CollectedUser, 0, n)
	for i := range n {
		users = append(users, domain.CollectedUser{
			Username: fmt.Sprintf("nearby_user_%d", i),
			Phone:    fmt.Sprintf("+79%09d", i),
			Distance: domain.IntPtr(i * 100),
			Source:   domain.SourceNearby,
		})
	}
	return users
}

func groupUsers(n int, link string) []domain.CollectedUser {
	users := make([]domain.CollectedUser, 0, n)
	for i := range n {
		activity := domain.ActivityActive
		if i%3 == 0 {
			activity = domain.ActivityInactive
		}
		users = append(users, domain.CollectedUser{
			Username: fmt.Sprintf("group_member_%d", i),
			Phone:    fmt.Sprintf("+79%09d", 500+i),
			Group:    link,
			Activity: activity,
			Source:   domain.SourceGroup,
		})
	}
	return users
}
