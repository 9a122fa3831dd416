package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/potato-cli/internal/domain"
	"github.com/bnema/potato-cli/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// SessionService manages operators and the signed-in session. It is the
// SessionGate every provisioning and collection operation checks first.
type SessionService struct {
	operators ports.OperatorRepository
	sessions  ports.SessionRepository
	ids       ports.IDGenerator
	clock     ports.Clock
	logger    zerolog.Logger
	cost      int
}

var _ ports.SessionGate = (*SessionService)(nil)

func NewSessionService(operators ports.OperatorRepository, sessions ports.SessionRepository, ids ports.IDGenerator, clock ports.Clock, logger zerolog.Logger) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{
		operators: operators,
		sessions:  sessions,
		ids:       ids,
		clock:     clock,
		logger:    logger.With().Str("component", "session-service").Logger(),
		cost:      bcrypt.DefaultCost,
	}
}

func (s *SessionService) Register(ctx context.Context, cmd RegisterOperatorCommand) (domain.Operator, error) {
	if err := cmd.Validate(); err != nil {
		return domain.Operator{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
	if err != nil {
		return domain.Operator{}, fmt.Errorf("hash password: %w", err)
	}

	operator := domain.Operator{
		ID:           domain.OperatorID(s.ids.NewID()),
		Username:     strings.TrimSpace(cmd.Username),
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.operators.Save(ctx, operator); err != nil {
		return domain.Operator{}, fmt.Errorf("save operator: %w", err)
	}

	s.logger.Info().Str("operator", operator.Username).Msg("operator registered")
	return operator, nil
}

// Login verifies the password and starts a session. Unknown usernames and wrong
// passwords both report ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, username, password string) (domain.Operator, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.Operator{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidArgument)
	}

	operator, err := s.verify(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return domain.Operator{}, err
	}

	now := s.clock.Now()
	operator.LastLoginAt = now
	if err := s.operators.Save(ctx, operator); err != nil {
		return domain.Operator{}, fmt.Errorf("save operator login time: %w", err)
	}
	if err := s.sessions.Save(ctx, domain.Session{OperatorID: operator.ID, StartedAt: now}); err != nil {
		return domain.Operator{}, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info().Str("operator", operator.Username).Msg("operator signed in")
	return operator, nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	return nil
}

func (s *SessionService) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	current, err := s.CurrentOperator(ctx)
	if err != nil {
		return err
	}
	if len(cmd.NewPassword) < minOperatorPassword {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, minOperatorPassword)
	}

	operator, err := s.verify(ctx, current.Username, cmd.OldPassword)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	operator.PasswordHash = string(hash)

	if err := s.operators.Save(ctx, operator); err != nil {
		return fmt.Errorf("save operator: %w", err)
	}

	return nil
}

func (s *SessionService) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.CurrentOperator(ctx)
	if errors.Is(err, domain.ErrNotAuthenticated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// CurrentOperator resolves the session. A session pointing at a removed operator
// counts as signed out.
func (s *SessionService) CurrentOperator(ctx context.Context) (domain.Operator, error) {
	session, err := s.sessions.Get(ctx)
	if err != nil {
		return domain.Operator{}, fmt.Errorf("load session: %w", err)
	}
	if !session.Active() {
		return domain.Operator{}, domain.ErrNotAuthenticated
	}

	operator, err := s.operators.GetByID(ctx, session.OperatorID)
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			s.logger.Warn().Str("operator_id", string(session.OperatorID)).Msg("session refers to unknown operator")
			return domain.Operator{}, domain.ErrNotAuthenticated
		}
		return domain.Operator{}, fmt.Errorf("get session operator: %w", err)
	}

	return operator, nil
}

func (s *SessionService) verify(ctx context.Context, username, password string) (domain.Operator, error) {
	operator, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			return domain.Operator{}, domain.ErrInvalidCredentials
		}
		return domain.Operator{}, fmt.Errorf("get operator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return domain.Operator{}, domain.ErrInvalidCredentials
	}

	return operator, nil
}

// requireOperator is the precondition shared by every gated operation.
func requireOperator(ctx context.Context, gate ports.SessionGate) error {
	ok, err := gate.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return domain.ErrNotAuthenticated
	}

	return nil
}
