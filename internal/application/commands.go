package application

import (
	"fmt"
	"strings"

	"github.com/bnema/potato-cli/internal/domain"
)

const (
	minOperatorUsername = 3
	minOperatorPassword = 6
)

type RegisterOperatorCommand struct {
	Username string
	Password string
}

func (c RegisterOperatorCommand) Validate() error {
	if len(strings.TrimSpace(c.Username)) < minOperatorUsername {
		return fmt.Errorf("%w: username must be at least %d characters", domain.ErrInvalidArgument, minOperatorUsername)
	}
	if len(c.Password) < minOperatorPassword {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidArgument, minOperatorPassword)
	}

	return nil
}

type ChangePasswordCommand struct {
	OldPassword string
	NewPassword string
}

// BatchRegisterCommand requests Count registrations through an SMS provider. An
// empty APIKey is resolved from the secret store.
type BatchRegisterCommand struct {
	Count      int
	SMSService string
	APIKey     string
}

func (c BatchRegisterCommand) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("%w: registration count must be >= 1, got %d", domain.ErrInvalidArgument, c.Count)
	}
	if strings.TrimSpace(c.SMSService) == "" {
		return fmt.Errorf("%w: sms service is required", domain.ErrInvalidArgument)
	}

	return nil
}

type ManualLoginCommand struct {
	Phone string
	Code  string
}

func (c ManualLoginCommand) Validate() error {
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("%w: phone number is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: verification code is required", domain.ErrInvalidArgument)
	}

	return nil
}

type SetSMSKeyCommand struct {
	SMSService string
	APIKey     string
}

func (c SetSMSKeyCommand) Validate() error {
	if strings.TrimSpace(c.SMSService) == "" {
		return fmt.Errorf("%w: sms service is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api key is required", domain.ErrInvalidArgument)
	}

	return nil
}
