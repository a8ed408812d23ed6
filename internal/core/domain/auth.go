package domain

import "time"

// OAuthProvider identifies an external identity provider.
type OAuthProvider string

const (
	ProviderGoogle   OAuthProvider = "google"
	ProviderGitHub   OAuthProvider = "github"
	ProviderAzure    OAuthProvider = "azure"
	ProviderFacebook OAuthProvider = "facebook"
)

// OAuthProviders lists the providers the orchestrator can offer as
// alternatives when one of them fails.
var OAuthProviders = []OAuthProvider{
	ProviderGoogle, ProviderGitHub, ProviderAzure, ProviderFacebook,
}

// Credentials are the email/password pair for a password grant.
type Credentials struct {
	Email    string
	Password string
}

// SignUpParams carries registration input.
type SignUpParams struct {
	Email    string
	Password string
	Metadata map[string]any
}

// User is the normalized view of the hosted provider's user record.
type User struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Session is an authenticated session returned by the provider.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         *User
}

// Expired reports whether the session's access token is past its expiry.
func (s *Session) Expired() bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// OAuthRedirect is the provider-hosted URL the UI must navigate to for an
// OAuth sign-in.
type OAuthRedirect struct {
	Provider OAuthProvider
	URL      string
}
