package auth

import "errors"

var (
	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrInvalidCredentials covers unknown email and wrong password
	// alike, so login probes leak nothing.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidRole is returned for an unknown role.
	ErrInvalidRole = errors.New("auth: invalid role")
	// ErrMisconfiguration is returned when the signing secret is absent.
	ErrMisconfiguration = errors.New("auth: missing jwt secret")
	// ErrNilUser is returned when persisting a nil user.
	ErrNilUser = errors.New("auth: nil user")
)
