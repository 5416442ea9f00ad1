package app

import "errors"

// Error kinds. Operations wrap these with fmt.Errorf("...: %w", ...) so
// the HTTP layer can map them to status codes with errors.Is while the
// message keeps enough context for the caller to correct input.
var (
	// ErrValidation covers malformed input: bad price, bad score,
	// out-of-bounds text length.
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthorized means the authenticated user is the wrong actor
	// for the action.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the action is not valid for the entity's
	// current state, such as accepting an already answered offer.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict covers duplicate submissions: a second rating for the
	// same purchase role, or the comment spam limit.
	ErrConflict = errors.New("conflict")
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	// ErrUserDisabled is returned when an account is disabled.
	// Handlers should generally NOT expose this to clients to avoid account enumeration.
	ErrUserDisabled = errors.New("user disabled")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already exists")

	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
)
