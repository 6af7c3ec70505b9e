package domain

import "errors"

var (
	// ErrUnauthorized reports a command acting without, or against, the
	// connection's customer binding.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidMessage reports an unparseable wire frame.
	ErrInvalidMessage = errors.New("invalid message format")
	// ErrAlreadyAuthenticated reports a second authenticate command on a
	// connection that is already bound; rebinding is rejected.
	ErrAlreadyAuthenticated = errors.New("connection already authenticated")
)
