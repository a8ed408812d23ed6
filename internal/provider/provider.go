// Package provider defines the hosted auth backend boundary. The backend is
// an opaque remote service; every call may reject with an error of
// unspecified shape, which the classifier handles defensively.
package provider

import (
	"context"
	"fmt"

	"github.com/planwise/authguard/internal/core/domain"
)

// AuthProvider is the set of operations the hosted backend exposes.
type AuthProvider interface {
	SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	SignUp(ctx context.Context, params domain.SignUpParams) (*domain.User, error)
	SignInWithOAuth(ctx context.Context, oauthProvider domain.OAuthProvider, redirectTo string) (*domain.OAuthRedirect, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*domain.Session, error)

	// OnSessionChange registers a callback invoked when the provider
	// reports a session change. The returned func unregisters it.
	OnSessionChange(fn func(*domain.Session)) func()
}

// Error carries the provider's structured failure detail across the
// boundary so classification does not depend on message text alone.
type Error struct {
	raw domain.RawError
}

// NewError builds a provider error from the response fields.
func NewError(status int, code, message string) *Error {
	return &Error{raw: domain.RawError{
		Status:  status,
		Code:    code,
		Message: message,
	}}
}

// Error implements error.
func (e *Error) Error() string {
	if e.raw.Message != "" {
		return fmt.Sprintf("provider: %s", e.raw.Message)
	}
	if e.raw.Code != "" {
		return fmt.Sprintf("provider: %s", e.raw.Code)
	}
	return fmt.Sprintf("provider: http %d", e.raw.Status)
}

// Raw exposes the structured detail for classification.
func (e *Error) Raw() *domain.RawError {
	raw := e.raw
	raw.Err = e
	return &raw
}
