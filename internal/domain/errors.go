package domain

import "errors"

// Sentinel errors used across all layers. Business failures are ordinary
// result values; nothing here is ever a panic.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("validation error")
	ErrInvalidIndex       = errors.New("invalid item index")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInventoryNotEmpty  = errors.New("inventory not empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrLoginFrozen        = errors.New("login temporarily disabled")
)
