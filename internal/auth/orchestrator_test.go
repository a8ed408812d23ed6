package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
	"github.com/planwise/authguard/internal/errhandler"
	"github.com/planwise/authguard/internal/errlog"
	"github.com/planwise/authguard/internal/infra/store"
	"github.com/planwise/authguard/internal/provider"
	"github.com/planwise/authguard/internal/retry"
)

type fakeProvider struct {
	signInErrs   []error
	signInCalls  int
	signUpErrs   []error
	signUpCalls  int
	oauthErrs    []error
	oauthCalls   int
	signOutErr   error
	session      *domain.Session
	sessionError error
}

func (f *fakeProvider) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	call := f.signInCalls
	f.signInCalls++
	if call < len(f.signInErrs) && f.signInErrs[call] != nil {
		return nil, f.signInErrs[call]
	}
	return &domain.Session{AccessToken: "at", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, params domain.SignUpParams) (*domain.User, error) {
	call := f.signUpCalls
	f.signUpCalls++
	if call < len(f.signUpErrs) && f.signUpErrs[call] != nil {
		return nil, f.signUpErrs[call]
	}
	return &domain.User{ID: "u1", Email: params.Email}, nil
}

func (f *fakeProvider) SignInWithOAuth(ctx context.Context, p domain.OAuthProvider, redirectTo string) (*domain.OAuthRedirect, error) {
	call := f.oauthCalls
	f.oauthCalls++
	if call < len(f.oauthErrs) && f.oauthErrs[call] != nil {
		return nil, f.oauthErrs[call]
	}
	return &domain.OAuthRedirect{Provider: p, URL: "https://idp.example.com/authorize"}, nil
}

func (f *fakeProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error { return f.signOutErr }

func (f *fakeProvider) GetSession(ctx context.Context) (*domain.Session, error) {
	return f.session, f.sessionError
}

func (f *fakeProvider) OnSessionChange(fn func(*domain.Session)) func() { return func() {} }

func fastHandler(logger *errlog.Logger) *errhandler.Handler {
	return errhandler.NewWith(nil, nil, retry.Backoff{
		Initial:    time.Millisecond,
		Max:        2 * time.Millisecond,
		Multiplier: 2,
		Budget:     time.Second,
	}, logger)
}

func newTestOrchestrator(p provider.AuthProvider, s store.Store) (*Orchestrator, *errlog.Logger) {
	logger := errlog.New()
	o := New(Config{
		Provider: p,
		Handler:  fastHandler(logger),
		Logger:   logger,
		Store:    s,
	})
	return o, logger
}

func unavailableErr() error {
	return provider.NewError(503, "", "Service unavailable")
}

func TestSignIn_SuccessFirstTry(t *testing.T) {
	fp := &fakeProvider{}
	mem := store.NewMemory()
	o, logger := newTestOrchestrator(fp, mem)

	session, err := o.SignIn(context.Background(), domain.Credentials{Email: "a", Password: "b"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if session == nil || session.AccessToken != "at" {
		t.Fatalf("session = %+v", session)
	}
	if fp.signInCalls != 1 {
		t.Errorf("provider called %d times, want 1", fp.signInCalls)
	}

	if _, err := mem.Get(context.Background(), sessionFlagKey); err != nil {
		t.Error("session flag not cached after sign-in")
	}

	stats := logger.Stats("signIn")
	if stats.Count != 1 || stats.Successes != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSignIn_RetriesTransientFailure(t *testing.T) {
	fp := &fakeProvider{signInErrs: []error{unavailableErr(), unavailableErr()}}
	o, _ := newTestOrchestrator(fp, nil)

	session, err := o.SignIn(context.Background(), domain.Credentials{Email: "a", Password: "b"})
	if err != nil {
		t.Fatalf("SignIn failed after transient errors: %v", err)
	}
	if session == nil {
		t.Fatal("nil session")
	}
	if fp.signInCalls != 3 {
		t.Errorf("provider called %d times, want 3", fp.signInCalls)
	}
}

func TestSignIn_ExhaustsRetriesAndReturnsProcessedError(t *testing.T) {
	errs := make([]error, 20)
	for i := range errs {
		errs[i] = unavailableErr()
	}
	fp := &fakeProvider{signInErrs: errs}
	o, _ := newTestOrchestrator(fp, nil)

	_, err := o.SignIn(context.Background(), domain.Credentials{Email: "a", Password: "b"})
	if err == nil {
		t.Fatal("expected error")
	}

	var processed *domain.ProcessedError
	if !errors.As(err, &processed) {
		t.Fatalf("error %T is not a ProcessedError", err)
	}
	if processed.Kind != domain.ErrServiceUnavailable {
		t.Errorf("Kind = %s", processed.Kind)
	}
	if processed.UserMessage == "" {
		t.Error("empty user message")
	}
	// SERVICE_UNAVAILABLE allows five retries: six calls total.
	if fp.signInCalls != 6 {
		t.Errorf("provider called %d times, want 6", fp.signInCalls)
	}
}

func TestSignIn_RateLimitedNotAutoRetried(t *testing.T) {
	fp := &fakeProvider{signInErrs: []error{provider.NewError(429, "", "Too many requests")}}
	o, _ := newTestOrchestrator(fp, nil)

	_, err := o.SignIn(context.Background(), domain.Credentials{Email: "a", Password: "b"})
	if err == nil {
		t.Fatal("expected error")
	}

	var processed *domain.ProcessedError
	if !errors.As(err, &processed) {
		t.Fatalf("error %T is not a ProcessedError", err)
	}
	if processed.Kind != domain.ErrRateLimited {
		t.Errorf("Kind = %s", processed.Kind)
	}
	if fp.signInCalls != 1 {
		t.Errorf("provider called %d times, want 1", fp.signInCalls)
	}
	if !processed.RetryAfterWait {
		t.Error("RetryAfterWait = false; the UI loses the wait-and-retry affordance")
	}
}

func TestSignUp_DefinitiveOutcomeNotRetried(t *testing.T) {
	fp := &fakeProvider{signUpErrs: []error{
		provider.NewError(422, "user_already_exists", "User already registered"),
	}}
	o, _ := newTestOrchestrator(fp, nil)

	_, err := o.SignUp(context.Background(), domain.SignUpParams{Email: "a", Password: "b"})
	if err == nil {
		t.Fatal("expected error")
	}

	var processed *domain.ProcessedError
	if !errors.As(err, &processed) {
		t.Fatalf("error %T is not a ProcessedError", err)
	}
	if processed.Kind != domain.ErrUserExists {
		t.Errorf("Kind = %s", processed.Kind)
	}
	if fp.signUpCalls != 1 {
		t.Errorf("provider called %d times, want 1", fp.signUpCalls)
	}
}

func TestSignInWithOAuth_DenialTracked(t *testing.T) {
	fp := &fakeProvider{oauthErrs: []error{
		provider.NewError(403, "access_denied", "OAuth access_denied by user"),
	}}
	o, _ := newTestOrchestrator(fp, nil)

	_, err := o.SignInWithOAuth(context.Background(), domain.ProviderGoogle, "")
	if err == nil {
		t.Fatal("expected error")
	}

	// The user said no; never re-offer the provider they refused.
	if alts := o.OAuthAlternatives(domain.ProviderGoogle); alts != nil {
		t.Errorf("alternatives after denial = %v, want none", alts)
	}

	// A different provider's failure excludes both it and the denied one.
	alts := o.OAuthAlternatives(domain.ProviderGitHub)
	for _, p := range alts {
		if p == domain.ProviderGitHub || p == domain.ProviderGoogle {
			t.Errorf("alternatives include excluded provider %s", p)
		}
	}
	if len(alts) != 2 {
		t.Errorf("alternatives = %v, want 2 providers", alts)
	}
}

func TestSignInWithOAuth_Success(t *testing.T) {
	fp := &fakeProvider{}
	o, _ := newTestOrchestrator(fp, nil)

	redirect, err := o.SignInWithOAuth(context.Background(), domain.ProviderGitHub, "app://done")
	if err != nil {
		t.Fatalf("SignInWithOAuth failed: %v", err)
	}
	if redirect.URL == "" {
		t.Error("empty redirect URL")
	}

	attempted := o.AttemptedOAuthProviders()
	if len(attempted) != 1 || attempted[0] != domain.ProviderGitHub {
		t.Errorf("attempted = %v", attempted)
	}
}

func TestSignOut_ClearsSessionFlagEvenOnFailure(t *testing.T) {
	mem := store.NewMemory()
	fp := &fakeProvider{}
	o, _ := newTestOrchestrator(fp, mem)

	if _, err := o.SignIn(context.Background(), domain.Credentials{Email: "a", Password: "b"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	fp.signOutErr = provider.NewError(503, "", "Service unavailable")
	_ = o.SignOut(context.Background())

	if _, err := mem.Get(context.Background(), sessionFlagKey); err == nil {
		t.Error("session flag survives sign-out")
	}
}

func TestSignIn_ContextCancelStopsRetries(t *testing.T) {
	errs := make([]error, 20)
	for i := range errs {
		errs[i] = unavailableErr()
	}
	fp := &fakeProvider{signInErrs: errs}

	logger := errlog.New()
	o := New(Config{
		Provider: fp,
		Handler: errhandler.NewWith(nil, nil, retry.Backoff{
			Initial:    time.Hour,
			Max:        time.Hour,
			Multiplier: 2,
			Budget:     24 * time.Hour,
		}, logger),
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.SignIn(ctx, domain.Credentials{Email: "a", Password: "b"})
	if err == nil {
		t.Fatal("expected error")
	}
	if fp.signInCalls != 1 {
		t.Errorf("provider called %d times with cancelled context, want 1", fp.signInCalls)
	}
}

func TestGetSession(t *testing.T) {
	fp := &fakeProvider{session: &domain.Session{AccessToken: "at"}}
	o, _ := newTestOrchestrator(fp, nil)

	session, err := o.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session == nil || session.AccessToken != "at" {
		t.Errorf("session = %+v", session)
	}
}
