package services

import "errors"

// Common service errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrDuplicate        = errors.New("duplicate record")
	ErrNotConnected     = errors.New("company has no ledger connection")
	ErrInvalidOAuthCode = errors.New("invalid or expired authorization state")
)
