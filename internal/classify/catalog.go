package classify

import "github.com/planwise/authguard/internal/core/domain"

// DefaultLocale is the locale used when the caller supplies none or an
// unsupported one.
const DefaultLocale = "es"

var messagesES = map[domain.ErrorKind]string{
	domain.ErrNetwork:            "Error de conexión. Verifica tu conexión a internet e inténtalo de nuevo.",
	domain.ErrServiceUnavailable: "El servicio no está disponible en este momento. Inténtalo de nuevo en unos minutos.",
	domain.ErrServiceMaintenance: "El servicio está en mantenimiento. Vuelve a intentarlo más tarde.",
	domain.ErrInvalidCredentials: "Correo o contraseña incorrectos. Verifica tus datos e inténtalo de nuevo.",
	domain.ErrUserNotFound:       "No existe una cuenta con ese correo electrónico.",
	domain.ErrUserExists:         "Ya existe una cuenta con ese correo electrónico. Inicia sesión en su lugar.",
	domain.ErrWeakPassword:       "La contraseña es demasiado débil. Usa al menos 6 caracteres.",
	domain.ErrRateLimited:        "Demasiados intentos. Espera un momento antes de volver a intentarlo.",
	domain.ErrEmailNotConfirmed:  "Tu correo aún no está confirmado. Revisa tu bandeja de entrada.",
	domain.ErrOAuthProvider:      "No se pudo iniciar sesión con el proveedor externo. Inténtalo de nuevo.",
	domain.ErrOAuthUnavailable:   "El proveedor de inicio de sesión no está disponible. Prueba con otro método.",
	domain.ErrOAuthAccessDenied:  "Cancelaste el inicio de sesión con el proveedor externo.",
	domain.ErrOAuthPopupBlocked:  "El navegador bloqueó la ventana de inicio de sesión. Permite ventanas emergentes e inténtalo de nuevo.",
	domain.ErrOAuthTimeout:       "El inicio de sesión con el proveedor externo tardó demasiado. Inténtalo de nuevo.",
	domain.ErrServer:             "Ocurrió un error en el servidor. Inténtalo de nuevo más tarde.",
	domain.ErrUnknown:            "Ocurrió un error inesperado. Inténtalo de nuevo.",
}

var messagesEN = map[domain.ErrorKind]string{
	domain.ErrNetwork:            "Connection error. Check your internet connection and try again.",
	domain.ErrServiceUnavailable: "The service is currently unavailable. Please try again in a few minutes.",
	domain.ErrServiceMaintenance: "The service is under maintenance. Please try again later.",
	domain.ErrInvalidCredentials: "Incorrect email or password. Check your details and try again.",
	domain.ErrUserNotFound:       "No account exists with that email address.",
	domain.ErrUserExists:         "An account with that email already exists. Sign in instead.",
	domain.ErrWeakPassword:       "The password is too weak. Use at least 6 characters.",
	domain.ErrRateLimited:        "Too many attempts. Please wait a moment before trying again.",
	domain.ErrEmailNotConfirmed:  "Your email is not confirmed yet. Check your inbox.",
	domain.ErrOAuthProvider:      "Could not sign in with the external provider. Please try again.",
	domain.ErrOAuthUnavailable:   "The sign-in provider is unavailable. Try a different method.",
	domain.ErrOAuthAccessDenied:  "You cancelled the sign-in with the external provider.",
	domain.ErrOAuthPopupBlocked:  "The browser blocked the sign-in window. Allow popups and try again.",
	domain.ErrOAuthTimeout:       "Signing in with the external provider took too long. Please try again.",
	domain.ErrServer:             "A server error occurred. Please try again later.",
	domain.ErrUnknown:            "An unexpected error occurred. Please try again.",
}

var catalogs = map[string]map[domain.ErrorKind]string{
	"es": messagesES,
	"en": messagesEN,
}

// Catalog resolves user-facing messages. Pure and stateless.
type Catalog struct{}

// NewCatalog creates a message catalog.
func NewCatalog() Catalog { return Catalog{} }

// Message returns the localized message for a kind. Unsupported locales fall
// back to the default locale; unknown kinds fall back to the UNKNOWN entry.
func (Catalog) Message(kind domain.ErrorKind, locale string) string {
	messages, ok := catalogs[locale]
	if !ok {
		messages = catalogs[DefaultLocale]
	}
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return messages[domain.ErrUnknown]
}
