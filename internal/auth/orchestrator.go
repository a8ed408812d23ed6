// Package auth is the caller-facing façade over the hosted provider. It
// wraps every operation with timing, failure processing and the retry loop,
// and tracks OAuth provider attempts for fallback affordances.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/planwise/authguard/internal/classify"
	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/errhandler"
	"github.com/planwise/authguard/internal/errlog"
	"github.com/planwise/authguard/internal/infra/store"
	"github.com/planwise/authguard/internal/provider"
)

const sessionFlagKey = "authguard:session_active"

// Orchestrator drives provider calls through the resilience layer. Retries
// of one logical operation are sequential; concurrent calls to different
// operations are tracked independently through per-call contexts.
type Orchestrator struct {
	provider provider.AuthProvider
	handler  *errhandler.Handler
	logger   *errlog.Logger
	store    store.Store
	locale   string
	log      *slog.Logger

	mu            sync.Mutex
	oauthAttempts map[domain.OAuthProvider]bool
	oauthDenied   map[domain.OAuthProvider]bool
}

// Config assembles an Orchestrator.
type Config struct {
	Provider provider.AuthProvider
	Handler  *errhandler.Handler
	Logger   *errlog.Logger
	Store    store.Store
	Locale   string
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	locale := cfg.Locale
	if locale == "" {
		locale = classify.DefaultLocale
	}
	return &Orchestrator{
		provider:      cfg.Provider,
		handler:       cfg.Handler,
		logger:        cfg.Logger,
		store:         cfg.Store,
		locale:        locale,
		log:           slog.Default(),
		oauthAttempts: make(map[domain.OAuthProvider]bool),
		oauthDenied:   make(map[domain.OAuthProvider]bool),
	}
}

// SignIn authenticates with email and password, retrying transient failures
// within the policy table's caps and the backoff budget.
func (o *Orchestrator) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	var session *domain.Session
	err := o.execute(ctx, "signIn", nil, func(ctx context.Context) error {
		s, err := o.provider.SignIn(ctx, creds)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.cacheSessionFlag(true)
	return session, nil
}

// SignUp registers a new account. Definitive outcomes (existing user, weak
// password) are surfaced without retry per the policy table.
func (o *Orchestrator) SignUp(ctx context.Context, params domain.SignUpParams) (*domain.User, error) {
	var user *domain.User
	err := o.execute(ctx, "signUp", nil, func(ctx context.Context) error {
		u, err := o.provider.SignUp(ctx, params)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SignInWithOAuth starts an OAuth flow and records the attempt so the UI
// can offer alternatives on failure.
func (o *Orchestrator) SignInWithOAuth(ctx context.Context, oauthProvider domain.OAuthProvider, redirectTo string) (*domain.OAuthRedirect, error) {
	o.mu.Lock()
	o.oauthAttempts[oauthProvider] = true
	o.mu.Unlock()

	var redirect *domain.OAuthRedirect
	extra := map[string]any{"oauth_provider": string(oauthProvider)}
	err := o.executeWith(ctx, "signInWithOAuth", extra, oauthProvider, func(ctx context.Context) error {
		r, err := o.provider.SignInWithOAuth(ctx, oauthProvider, redirectTo)
		if err != nil {
			return err
		}
		redirect = r
		return nil
	})
	if err != nil {
		var processed *domain.ProcessedError
		if pe, ok := err.(*domain.ProcessedError); ok {
			processed = pe
		}
		// An explicit denial reflects user choice, not a provider fault;
		// remember it so this provider is not re-offered as a fallback.
		if processed != nil && processed.Kind == domain.ErrOAuthAccessDenied {
			o.mu.Lock()
			o.oauthDenied[oauthProvider] = true
			o.mu.Unlock()
		}
		return nil, err
	}
	return redirect, nil
}

// OAuthAlternatives returns the providers worth offering after failed, the
// failed provider and any explicitly denied ones excluded.
func (o *Orchestrator) OAuthAlternatives(failed domain.OAuthProvider) []domain.OAuthProvider {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.oauthDenied[failed] {
		// The user cancelled; suggesting another provider would second-
		// guess an explicit choice.
		return nil
	}

	out := make([]domain.OAuthProvider, 0, len(domain.OAuthProviders))
	for _, p := range domain.OAuthProviders {
		if p == failed || o.oauthDenied[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AttemptedOAuthProviders returns the providers tried this session.
func (o *Orchestrator) AttemptedOAuthProviders() []domain.OAuthProvider {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]domain.OAuthProvider, 0, len(o.oauthAttempts))
	for p := range o.oauthAttempts {
		out = append(out, p)
	}
	return out
}

// ResetPassword requests a recovery email.
func (o *Orchestrator) ResetPassword(ctx context.Context, email, redirectTo string) error {
	return o.execute(ctx, "resetPassword", nil, func(ctx context.Context) error {
		return o.provider.ResetPasswordForEmail(ctx, email, redirectTo)
	})
}

// SignOut invalidates the session. Failures are processed but the local
// session flag is cleared regardless: a stale flag is worse than a failed
// remote logout.
func (o *Orchestrator) SignOut(ctx context.Context) error {
	err := o.execute(ctx, "signOut", nil, func(ctx context.Context) error {
		return o.provider.SignOut(ctx)
	})
	o.cacheSessionFlag(false)
	return err
}

// GetSession retrieves the current session, nil when signed out.
func (o *Orchestrator) GetSession(ctx context.Context) (*domain.Session, error) {
	var session *domain.Session
	err := o.execute(ctx, "getSession", nil, func(ctx context.Context) error {
		s, err := o.provider.GetSession(ctx)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (o *Orchestrator) execute(ctx context.Context, operation string, extra map[string]any, call func(context.Context) error) error {
	return o.executeWith(ctx, operation, extra, "", call)
}

// executeWith runs one logical operation through the retry loop. On failure
// it returns the last ProcessedError; the caller decides how to surface it.
func (o *Orchestrator) executeWith(ctx context.Context, operation string, extra map[string]any, oauthProvider domain.OAuthProvider, call func(context.Context) error) error {
	started := time.Now()

	for attempt := 0; ; attempt++ {
		callStart := time.Now()
		err := call(ctx)
		elapsed := time.Since(callStart)

		if err == nil {
			o.logger.LogPerformance(operation, elapsed, true, extra)
			return nil
		}

		processed := o.handler.Handle(classify.FromError(err), domain.ErrorContext{
			Operation:    operation,
			AttemptCount: attempt,
			TotalElapsed: time.Since(started),
			Locale:       o.locale,
			Provider:     oauthProvider,
			Extra:        extra,
		})
		o.logger.LogPerformance(operation, elapsed, false, extra)

		if !processed.CanRetry {
			return processed
		}

		select {
		case <-ctx.Done():
			return processed
		case <-time.After(processed.RetryDelay):
		}
	}
}

// cacheSessionFlag mirrors the signed-in state to the key/value store so the
// UI can render an optimistic shell before the first session fetch. Best
// effort only.
func (o *Orchestrator) cacheSessionFlag(active bool) {
	if o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	if active {
		err = o.store.Set(ctx, sessionFlagKey, "1", 24*time.Hour)
	} else {
		err = o.store.Delete(ctx, sessionFlagKey)
	}
	if err != nil {
		o.log.Warn("failed to cache session flag", "error", err)
	}
}
