package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/planwise/authguard/internal/core/domain"
)

// HTTPProvider talks to a GoTrue-style auth REST API.
type HTTPProvider struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client

	mu        sync.Mutex
	session   *domain.Session
	callbacks map[int]func(*domain.Session)
	nextCB    int
}

// Config holds provider connection settings.
type Config struct {
	URL     string        `yaml:"url"`
	AnonKey string        `yaml:"anon_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// NewHTTPProvider creates a provider client.
func NewHTTPProvider(cfg Config) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPProvider{
		baseURL: cfg.URL,
		anonKey: cfg.AnonKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		callbacks: make(map[int]func(*domain.Session)),
	}
}

// HealthURL returns the backend health endpoint used by connectivity probes.
func (p *HTTPProvider) HealthURL() string {
	return p.baseURL + "/auth/v1/health"
}

// SignIn performs a password grant.
func (p *HTTPProvider) SignIn(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}

	var resp sessionResponse
	err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, &resp)
	if err != nil {
		return nil, err
	}

	session := resp.session()
	p.setSession(session)
	return session, nil
}

// SignUp registers a new user.
func (p *HTTPProvider) SignUp(ctx context.Context, params domain.SignUpParams) (*domain.User, error) {
	body := map[string]any{
		"email":    params.Email,
		"password": params.Password,
	}
	if len(params.Metadata) > 0 {
		body["data"] = params.Metadata
	}

	var resp userResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/signup", body, &resp); err != nil {
		return nil, err
	}
	return resp.user(), nil
}

// SignInWithOAuth returns the provider-hosted authorization URL the UI must
// navigate to.
func (p *HTTPProvider) SignInWithOAuth(ctx context.Context, oauthProvider domain.OAuthProvider, redirectTo string) (*domain.OAuthRedirect, error) {
	q := url.Values{}
	q.Set("provider", string(oauthProvider))
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}

	// The authorize endpoint answers with a redirect; we only need its
	// target, so redirects are not followed here.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/auth/v1/authorize?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create authorize request: %w", err)
	}
	p.decorate(req)

	client := *p.httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return &domain.OAuthRedirect{
			Provider: oauthProvider,
			URL:      resp.Header.Get("Location"),
		}, nil
	}
	return nil, p.errorFromResponse(resp)
}

// ResetPasswordForEmail requests a recovery email.
func (p *HTTPProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	body := map[string]string{"email": email}
	if redirectTo != "" {
		body["redirect_to"] = redirectTo
	}
	return p.do(ctx, http.MethodPost, "/auth/v1/recover", body, nil)
}

// SignOut invalidates the current session.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	err := p.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
	if err == nil {
		p.setSession(nil)
	}
	return err
}

// GetSession returns the cached session, refreshing the user record when a
// session is held. Callers receive a copy; the cached session is never
// mutated and its pointer never escapes.
func (p *HTTPProvider) GetSession(ctx context.Context) (*domain.Session, error) {
	p.mu.Lock()
	cached := p.session
	p.mu.Unlock()

	if cached == nil {
		return nil, nil
	}

	var resp userResponse
	if err := p.do(ctx, http.MethodGet, "/auth/v1/user", nil, &resp); err != nil {
		return nil, err
	}

	session := *cached
	session.User = resp.user()
	return &session, nil
}

// OnSessionChange implements AuthProvider.
func (p *HTTPProvider) OnSessionChange(fn func(*domain.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextCB
	p.nextCB++
	p.callbacks[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.callbacks, id)
	}
}

func (p *HTTPProvider) setSession(session *domain.Session) {
	p.mu.Lock()
	p.session = session
	callbacks := make([]func(*domain.Session), 0, len(p.callbacks))
	for _, fn := range p.callbacks {
		callbacks = append(callbacks, fn)
	}
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(session)
	}
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	p.decorate(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return p.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (p *HTTPProvider) decorate(req *http.Request) {
	if p.anonKey != "" {
		req.Header.Set("apikey", p.anonKey)
		req.Header.Set("Authorization", "Bearer "+p.anonKey)
	}

	p.mu.Lock()
	session := p.session
	p.mu.Unlock()
	if session != nil && session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}
}

// errorFromResponse parses the backend's error body, tolerating every shape
// the hosted service is known to produce.
func (p *HTTPProvider) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))

	var parsed struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorCode        string `json:"error_code"`
		Code             any    `json:"code"`
	}
	_ = json.Unmarshal(body, &parsed)

	message := parsed.ErrorDescription
	if message == "" {
		message = parsed.Msg
	}
	if message == "" {
		message = parsed.Message
	}
	if message == "" {
		message = parsed.Error
	}
	if message == "" {
		message = string(body)
	}

	code := parsed.ErrorCode
	if code == "" {
		if s, ok := parsed.Code.(string); ok {
			code = s
		}
	}
	if code == "" {
		code = parsed.Error
	}

	return NewError(resp.StatusCode, code, message)
}

var _ AuthProvider = (*HTTPProvider)(nil)
