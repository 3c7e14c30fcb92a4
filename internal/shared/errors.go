package shared

import "errors"

var (
	// ErrValidation indicates a request is missing required fields or carries malformed values.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a unique field is already taken.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a missing or rejected session token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid session without the required privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, tampered and expired session tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// PublicError pairs a sentinel kind with a message that is safe to show clients.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }

func (e *PublicError) Unwrap() error { return e.Kind }

// NewPublicError builds a PublicError of the given kind.
func NewPublicError(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}

// PublicMessage returns the client-facing message carried by err, or fallback.
func PublicMessage(err error, fallback string) string {
	var pub *PublicError
	if errors.As(err, &pub) && pub.Message != "" {
		return pub.Message
	}
	return fallback
}
