package domain

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrUnitFailure       = errors.New("unit of work failed")

	ErrAccountNotFound    = errors.New("account not found")
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrOperatorExists     = errors.New("operator already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSecretNotFound     = errors.New("secret not found")
)
