package classify

import (
	"strings"

	"github.com/planwise/authguard/internal/core/domain"
)

// OAuthReasonStrategy disambiguates an OAuth-related failure into a
// sub-reason. Detection relies on keyword co-occurrence in free-text
// provider messages, which is brittle against provider message changes, so
// it lives behind this interface and can be swapped without touching the
// classifier.
type OAuthReasonStrategy interface {
	// Reason returns the sub-reason kind and true when one is recognized.
	Reason(text string) (domain.ErrorKind, bool)
}

var oauthMarkers = []string{
	"oauth", "sso", "single sign", "id_token", "authorization code",
}

var providerMarkers = map[domain.OAuthProvider][]string{
	domain.ProviderGoogle:   {"google", "accounts.google"},
	domain.ProviderGitHub:   {"github"},
	domain.ProviderAzure:    {"azure", "microsoft"},
	domain.ProviderFacebook: {"facebook"},
}

// isOAuthRelated reports whether the failure text identifies an OAuth flow:
// either an explicit OAuth marker, or a known provider name mentioned
// alongside auth wording.
func isOAuthRelated(text string) bool {
	if containsAny(text, oauthMarkers) {
		return true
	}
	if DetectProvider(text) != "" {
		return strings.Contains(text, "auth") || strings.Contains(text, "sign") ||
			strings.Contains(text, "login") || strings.Contains(text, "sesión") ||
			strings.Contains(text, "sesion")
	}
	return false
}

// DetectProvider returns the identity provider named in the text, if any.
func DetectProvider(text string) domain.OAuthProvider {
	lower := strings.ToLower(text)
	for provider, markers := range providerMarkers {
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return provider
			}
		}
	}
	return ""
}

// KeywordOAuthStrategy is the default sub-reason detector.
type KeywordOAuthStrategy struct{}

// Reason implements OAuthReasonStrategy.
func (KeywordOAuthStrategy) Reason(text string) (domain.ErrorKind, bool) {
	switch {
	case containsAny(text, []string{
		"access_denied", "access denied", "consent_required",
		"acceso denegado", "permiso denegado",
	}):
		return domain.ErrOAuthAccessDenied, true
	case strings.Contains(text, "popup") || strings.Contains(text, "ventana emergente"):
		return domain.ErrOAuthPopupBlocked, true
	case containsAny(text, []string{
		"timeout", "timed out", "expired", "tiempo de espera",
	}):
		return domain.ErrOAuthTimeout, true
	case containsAny(text, []string{
		"unavailable", "no disponible", "temporarily_unavailable",
	}):
		return domain.ErrOAuthUnavailable, true
	}
	return domain.ErrUnknown, false
}
