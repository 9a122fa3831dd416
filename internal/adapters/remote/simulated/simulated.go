// Package simulated stands in for the messaging platform and SMS provider. Every
// call succeeds with a configured probability after an optional delay.
package simulated

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
)

const (
	DefaultSuccessRate = 0.8

	// activeShare is the fraction of group members reported as active.
	activeShare = 0.7
	phonePrefix = "+79"
	phoneSpace  = 1_000_000_000
)

type Options struct {
	SuccessRate float64
	Latency     time.Duration
	// Seed 0 seeds from the clock.
	Seed  uint64
	Clock ports.Clock
}

type engine struct {
	mu      sync.Mutex
	rng     *rand.Rand
	rate    float64
	latency time.Duration
	clock   ports.Clock
}

func newEngine(opts Options) *engine {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &engine{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		rate:    opts.SuccessRate,
		latency: opts.Latency,
		clock:   clock,
	}
}

func (e *engine) wait(ctx context.Context) error {
	if e.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(e.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *engine) roll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rng.Float64() < e.rate
}

func (e *engine) intN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rng.IntN(n)
}

func (e *engine) phone() string {
	return fmt.Sprintf("%s%09d", phonePrefix, e.intN(phoneSpace))
}

// Provisioning simulates registration, login and verification codes.
type Provisioning struct {
	*engine
}

var _ ports.ProvisioningService = (*Provisioning)(nil)

func NewProvisioning(opts Options) *Provisioning {
	return &Provisioning{engine: newEngine(opts)}
}

func (p *Provisioning) AttemptRegistration(ctx context.Context, req ports.RegistrationRequest) (domain.Account, error) {
	if err := p.wait(ctx); err != nil {
		return domain.Account{}, err
	}
	if !p.roll() {
		return domain.Account{}, fmt.Errorf("%w: registration %d via %s: no number delivered", domain.ErrUnitFailure, req.Index, req.SMSService)
	}

	return domain.Account{
		Phone:    p.phone(),
		Username: fmt.Sprintf("user%d%d", p.clock.Now().UnixMilli(), req.Index),
		Status:   domain.AccountStatusOnline,
	}, nil
}

func (p *Provisioning) AttemptLogin(ctx context.Context, phone, code string) (domain.Account, error) {
	if err := p.wait(ctx); err != nil {
		return domain.Account{}, err
	}
	if !p.roll() {
		return domain.Account{}, fmt.Errorf("%w: login %s: code %s rejected", domain.ErrUnitFailure, phone, code)
	}

	return domain.Account{
		Phone:    phone,
		Username: "user" + strings.TrimPrefix(phone, "+"),
		Status:   domain.AccountStatusOnline,
	}, nil
}

func (p *Provisioning) SendVerificationCode(ctx context.Context, phone string) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	if !p.roll() {
		return fmt.Errorf("%w: code delivery to %s failed", domain.ErrUnitFailure, phone)
	}

	return nil
}

// CheckStatus reports online with the configured success rate, offline otherwise.
func (p *Provisioning) CheckStatus(ctx context.Context, _ domain.Account) (domain.AccountStatus, error) {
	if err := p.wait(ctx); err != nil {
		return domain.AccountStatusUnknown, err
	}
	if p.roll() {
		return domain.AccountStatusOnline, nil
	}

	return domain.AccountStatusOffline, nil
}

// Collection simulates nearby and group-member scans. Scans always return the
// full expected population; IDs and collection time are left to the caller.
type Collection struct {
	*engine
}

var _ ports.CollectionService = (*Collection)(nil)

func NewCollection(opts Options) *Collection {
	return &Collection{engine: newEngine(opts)}
}

func (c *Collection) ScanNearby(ctx context.Context, query domain.NearbyQuery) ([]domain.CollectedUser, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	count := query.ExpectedUsers()
	users := make([]domain.CollectedUser, 0, count)
	for i := range count {
		users = append(users, domain.CollectedUser{
			Username: fmt.Sprintf("nearby_user_%d", i),
			Phone:    c.phone(),
			Distance: domain.IntPtr(c.intN(query.Range)),
			Source:   domain.SourceNearby,
		})
	}

	return users, nil
}

func (c *Collection) ScanGroup(ctx context.Context, query domain.GroupQuery) ([]domain.CollectedUser, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	count := query.Method.ExpectedMembers()
	users := make([]domain.CollectedUser, 0, count)
	for i := range count {
		activity := domain.ActivityInactive
		if c.active() {
			activity = domain.ActivityActive
		}
		users = append(users, domain.CollectedUser{
			Username: fmt.Sprintf("group_member_%d", i),
			Phone:    c.phone(),
			Group:    query.Link,
			Activity: activity,
			Source:   domain.SourceGroup,
		})
	}

	return users, nil
}

func (c *Collection) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64() < activeShare
}
