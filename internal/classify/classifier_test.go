package classify

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/planwise/authguard/internal/core/domain"
)

func TestClassify_Totality(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		raw  *domain.RawError
		want domain.ErrorKind
	}{
		{"nil input", nil, domain.ErrUnknown},
		{"empty raw error", &domain.RawError{}, domain.ErrUnknown},
		{"gibberish", &domain.RawError{Message: "zxqwv"}, domain.ErrUnknown},
		{"status 502", &domain.RawError{Status: 502}, domain.ErrServiceUnavailable},
		{"status 503", &domain.RawError{Status: 503}, domain.ErrServiceUnavailable},
		{"status 504", &domain.RawError{Status: 504}, domain.ErrServiceUnavailable},
		{"status 429", &domain.RawError{Status: 429}, domain.ErrRateLimited},
		{"status 500", &domain.RawError{Status: 500}, domain.ErrServer},
		{"status 511", &domain.RawError{Status: 511}, domain.ErrServer},
		{
			"maintenance beats unavailable",
			&domain.RawError{Message: "Service unavailable: scheduled maintenance"},
			domain.ErrServiceMaintenance,
		},
		{
			"bad gateway text",
			&domain.RawError{Message: "Bad Gateway"},
			domain.ErrServiceUnavailable,
		},
		{
			"english credentials",
			&domain.RawError{Message: "Invalid login credentials"},
			domain.ErrInvalidCredentials,
		},
		{
			"spanish credentials",
			&domain.RawError{Message: "Credenciales inválidas"},
			domain.ErrInvalidCredentials,
		},
		{
			"credentials via code",
			&domain.RawError{Code: "invalid_credentials"},
			domain.ErrInvalidCredentials,
		},
		{
			"network fetch failed",
			&domain.RawError{Message: "fetch failed"},
			domain.ErrNetwork,
		},
		{
			"network spanish",
			&domain.RawError{Message: "Error de red no disponible"},
			domain.ErrNetwork,
		},
		{
			"timeout code from transport",
			&domain.RawError{Message: "request aborted", Code: "timeout"},
			domain.ErrNetwork,
		},
		{
			"rate limit text",
			&domain.RawError{Message: "Too many requests"},
			domain.ErrRateLimited,
		},
		{
			"user exists",
			&domain.RawError{Message: "User already registered"},
			domain.ErrUserExists,
		},
		{
			"user not found spanish",
			&domain.RawError{Message: "Usuario no encontrado"},
			domain.ErrUserNotFound,
		},
		{
			"weak password",
			&domain.RawError{Message: "Password should be at least 6 characters"},
			domain.ErrWeakPassword,
		},
		{
			"email not confirmed",
			&domain.RawError{Code: "email_not_confirmed"},
			domain.ErrEmailNotConfirmed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.raw); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_OAuthSubReasons(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		raw  *domain.RawError
		want domain.ErrorKind
	}{
		{
			"access denied",
			&domain.RawError{Message: "OAuth error: access_denied by user"},
			domain.ErrOAuthAccessDenied,
		},
		{
			"popup blocked",
			&domain.RawError{Message: "google sign-in popup was blocked"},
			domain.ErrOAuthPopupBlocked,
		},
		{
			"oauth timeout",
			&domain.RawError{Message: "signing in with GitHub timed out"},
			domain.ErrOAuthTimeout,
		},
		{
			"oauth unavailable",
			&domain.RawError{Message: "azure login temporarily_unavailable"},
			domain.ErrOAuthUnavailable,
		},
		{
			"generic oauth failure",
			&domain.RawError{Message: "oauth exchange failed"},
			domain.ErrOAuthProvider,
		},
		{
			"provider name without auth wording is not oauth",
			&domain.RawError{Message: "google"},
			domain.ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.raw); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_GRPCCodes(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		code codes.Code
		want domain.ErrorKind
	}{
		{codes.Unavailable, domain.ErrServiceUnavailable},
		{codes.DeadlineExceeded, domain.ErrNetwork},
		{codes.Unauthenticated, domain.ErrInvalidCredentials},
		{codes.PermissionDenied, domain.ErrOAuthAccessDenied},
		{codes.ResourceExhausted, domain.ErrRateLimited},
		{codes.NotFound, domain.ErrUserNotFound},
		{codes.AlreadyExists, domain.ErrUserExists},
		{codes.Internal, domain.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			raw := &domain.RawError{Err: status.Error(tt.code, "backend rejected call")}
			if got := c.Classify(raw); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassify_CustomOAuthStrategy(t *testing.T) {
	fixed := oauthStrategyFunc(func(string) (domain.ErrorKind, bool) {
		return domain.ErrOAuthTimeout, true
	})
	c := NewClassifierWithStrategy(fixed)

	raw := &domain.RawError{Message: "oauth handshake exploded"}
	if got := c.Classify(raw); got != domain.ErrOAuthTimeout {
		t.Errorf("Classify() = %s, want %s", got, domain.ErrOAuthTimeout)
	}
}

type oauthStrategyFunc func(text string) (domain.ErrorKind, bool)

func (f oauthStrategyFunc) Reason(text string) (domain.ErrorKind, bool) { return f(text) }

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		text string
		want domain.OAuthProvider
	}{
		{"accounts.google.com rejected the request", domain.ProviderGoogle},
		{"GitHub login failed", domain.ProviderGitHub},
		{"microsoft identity platform error", domain.ProviderAzure},
		{"facebook session expired", domain.ProviderFacebook},
		{"nothing to see here", ""},
	}

	for _, tt := range tests {
		if got := DetectProvider(tt.text); got != tt.want {
			t.Errorf("DetectProvider(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestFromError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if got := FromError(nil); got != nil {
			t.Errorf("FromError(nil) = %+v, want nil", got)
		}
	})

	t.Run("deadline exceeded maps to timeout code", func(t *testing.T) {
		raw := FromError(context.DeadlineExceeded)
		if raw == nil || raw.Code != "timeout" {
			t.Fatalf("FromError(DeadlineExceeded) = %+v, want timeout code", raw)
		}
	})

	t.Run("plain error keeps message", func(t *testing.T) {
		raw := FromError(errors.New("boom"))
		if raw.Message != "boom" {
			t.Errorf("Message = %q, want boom", raw.Message)
		}
	})
}
