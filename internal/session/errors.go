package session

import "errors"

var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session is invalid or expired")
	ErrInvalidTransition  = errors.New("invalid view transition")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrAvatarRequired     = errors.New("avatar is required")
	ErrUnknownSignal      = errors.New("unknown activity signal")
	ErrSSOUnavailable     = errors.New("single sign-on is not configured")
	ErrForbidden          = errors.New("operation not allowed for this role")
)
