package auth

import "github.com/pkg/errors"

var (
	ErrNoToken          = errors.New("authorization token missing or malformed")
	ErrTokenInvalid     = errors.New("token is invalid")
	ErrTokenExpired     = errors.New("token has expired")
	ErrIdentityNotFound = errors.New("user not found")
	ErrInsufficientRole = errors.New("insufficient permissions")
)

// messages returned to API clients, keyed by rejection reason
var reasonMessages = map[error]string{
	ErrNoToken:          "Authorization token missing or malformed",
	ErrTokenInvalid:     "Invalid or expired token",
	ErrTokenExpired:     "Invalid or expired token",
	ErrIdentityNotFound: "User not found",
	ErrInsufficientRole: "Access forbidden: insufficient permissions",
}

// RejectionError carries a rejecting Decision up to the HTTP error handler.
type RejectionError struct {
	Decision Decision
}

func (e *RejectionError) Error() string {
	if e.Decision.Reason == nil {
		return "request rejected"
	}
	return e.Decision.Reason.Error()
}

func (e *RejectionError) Unwrap() error { return e.Decision.Reason }
