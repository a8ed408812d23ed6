package errlog

import (
	"encoding/json"
	"strings"
)

// RedactedValue replaces the value of every sensitive context key.
const RedactedValue = "[REDACTED]"

// sensitiveKeys are matched case-insensitively at the top level of the
// context map.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"apikey":        {},
	"api_key":       {},
	"secret":        {},
	"authorization": {},
	"refreshtoken":  {},
	"refresh_token": {},
	"access_token":  {},
}

// SanitizeContext returns a copy of ctx with sensitive values redacted. The
// caller's map is never mutated. If the serialized copy exceeds maxBytes it
// is replaced with a truncation marker carrying the original size.
func SanitizeContext(ctx map[string]any, maxBytes int) map[string]any {
	if ctx == nil {
		return nil
	}

	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		if _, sensitive := sensitiveKeys[strings.ToLower(k)]; sensitive {
			out[k] = RedactedValue
			continue
		}
		out[k] = v
	}

	if maxBytes > 0 {
		serialized, err := json.Marshal(out)
		if err == nil && len(serialized) > maxBytes {
			return map[string]any{
				"_truncated":    true,
				"original_size": len(serialized),
			}
		}
	}

	return out
}
