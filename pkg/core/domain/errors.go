package domain

import "errors"

// Error kinds surfaced by the core. Adapters wrap them with detail via
// fmt.Errorf("%w: ...") and callers match with errors.Is.
var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrUnsafeURL          = errors.New("url is not safe")
	ErrInvalidAlias       = errors.New("invalid alias")
	ErrAliasTaken         = errors.New("short code or custom alias already exists")
	ErrNotFound           = errors.New("link not found")
	ErrExpired            = errors.New("link has expired")
	ErrForbidden          = errors.New("not authorized to modify this link")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrUserExists         = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)
