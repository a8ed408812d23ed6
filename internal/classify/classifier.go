// Package classify maps raw provider failures onto the closed error-kind
// taxonomy and resolves localized user messages.
package classify

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/planwise/authguard/internal/core/domain"
)

// Keyword sets are matched against the lower-cased concatenation of message,
// code and name. Spanish and English phrasings are both recognized because
// the hosted provider localizes some responses.
var (
	maintenanceKeywords = []string{
		"maintenance", "mantenimiento", "scheduled downtime",
	}
	networkKeywords = []string{
		"network", "timeout", "timed out", "connection refused",
		"connection reset", "fetch failed", "unreachable", "no such host",
		"econnrefused", "conexión", "conexion", "red no disponible",
		"tiempo de espera",
	}
	credentialKeywords = []string{
		"invalid login credentials", "invalid credentials",
		"invalid_credentials", "invalid_grant", "wrong password",
		"credenciales inválidas", "credenciales invalidas",
		"contraseña incorrecta",
	}
	userNotFoundKeywords = []string{
		"user not found", "user_not_found", "no user found",
		"usuario no encontrado",
	}
	userExistsKeywords = []string{
		"already registered", "already exists", "user_already_exists",
		"ya está registrado", "ya esta registrado", "ya existe",
	}
	weakPasswordKeywords = []string{
		"weak password", "weak_password", "password should be",
		"password is too short", "contraseña débil", "contrasena debil",
		"al menos 6 caracteres",
	}
	rateLimitKeywords = []string{
		"rate limit", "too many requests", "over_request_rate_limit",
		"demasiados intentos", "demasiadas solicitudes",
	}
	emailNotConfirmedKeywords = []string{
		"email not confirmed", "email_not_confirmed",
		"correo no confirmado", "confirma tu correo",
	}
	serviceUnavailableKeywords = []string{
		"service unavailable", "servicio no disponible", "bad gateway",
	}
)

// Classifier turns raw failures into error kinds. Classification is a total
// function: any input, including nil, resolves to exactly one kind.
type Classifier struct {
	oauth OAuthReasonStrategy
}

// NewClassifier creates a classifier with the default keyword-based OAuth
// sub-reason strategy.
func NewClassifier() *Classifier {
	return &Classifier{oauth: KeywordOAuthStrategy{}}
}

// NewClassifierWithStrategy allows swapping the OAuth sub-reason detection,
// which depends on brittle free-text matching and may need hardening
// independently of the rest of the taxonomy.
func NewClassifierWithStrategy(s OAuthReasonStrategy) *Classifier {
	if s == nil {
		s = KeywordOAuthStrategy{}
	}
	return &Classifier{oauth: s}
}

// Classify maps a raw error to its kind. Never panics.
func (c *Classifier) Classify(raw *domain.RawError) domain.ErrorKind {
	if raw == nil {
		return domain.ErrUnknown
	}

	// gRPC-shaped causes carry an explicit code; trust it over text.
	if raw.Err != nil {
		if st, ok := status.FromError(raw.Err); ok && st.Code() != codes.OK {
			if kind, ok := fromGRPCCode(st.Code()); ok {
				return kind
			}
		}
	}

	// HTTP-like status ranges. Gateway errors are a more specific signal
	// than the generic >=500 fallback, so they are checked first.
	switch {
	case raw.Status == 502 || raw.Status == 503 || raw.Status == 504:
		return domain.ErrServiceUnavailable
	case raw.Status == 429:
		return domain.ErrRateLimited
	case raw.Status >= 500:
		return domain.ErrServer
	}

	text := lowerText(raw)
	if text == "" {
		return domain.ErrUnknown
	}

	// Maintenance before the generic unavailability superset.
	if containsAny(text, maintenanceKeywords) {
		return domain.ErrServiceMaintenance
	}
	if containsAny(text, serviceUnavailableKeywords) {
		return domain.ErrServiceUnavailable
	}

	// OAuth sub-reasons apply only once the failure is identified as
	// OAuth-related and a provider was identified.
	if isOAuthRelated(text) {
		if kind, ok := c.oauth.Reason(text); ok {
			return kind
		}
		return domain.ErrOAuthProvider
	}

	if containsAny(text, networkKeywords) {
		return domain.ErrNetwork
	}
	if containsAny(text, rateLimitKeywords) {
		return domain.ErrRateLimited
	}
	if containsAny(text, userExistsKeywords) {
		return domain.ErrUserExists
	}
	if containsAny(text, userNotFoundKeywords) {
		return domain.ErrUserNotFound
	}
	if containsAny(text, credentialKeywords) {
		return domain.ErrInvalidCredentials
	}
	if containsAny(text, weakPasswordKeywords) {
		return domain.ErrWeakPassword
	}
	if containsAny(text, emailNotConfirmedKeywords) {
		return domain.ErrEmailNotConfirmed
	}

	return domain.ErrUnknown
}

func fromGRPCCode(code codes.Code) (domain.ErrorKind, bool) {
	switch code {
	case codes.Unavailable:
		return domain.ErrServiceUnavailable, true
	case codes.DeadlineExceeded:
		return domain.ErrNetwork, true
	case codes.Unauthenticated:
		return domain.ErrInvalidCredentials, true
	case codes.PermissionDenied:
		return domain.ErrOAuthAccessDenied, true
	case codes.ResourceExhausted:
		return domain.ErrRateLimited, true
	case codes.NotFound:
		return domain.ErrUserNotFound, true
	case codes.AlreadyExists:
		return domain.ErrUserExists, true
	case codes.Internal:
		return domain.ErrServer, true
	}
	return domain.ErrUnknown, false
}

func lowerText(raw *domain.RawError) string {
	parts := make([]string, 0, 4)
	if raw.Message != "" {
		parts = append(parts, raw.Message)
	}
	if raw.Code != "" {
		parts = append(parts, raw.Code)
	}
	if raw.Name != "" {
		parts = append(parts, raw.Name)
	}
	if raw.Err != nil {
		parts = append(parts, raw.Err.Error())
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
