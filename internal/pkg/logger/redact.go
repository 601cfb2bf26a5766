package logger

import "strings"

// secretKeyHints are substrings of field names whose values are always masked.
var secretKeyHints = []string{"token", "secret", "password", "credential", "private_key", "api_key"}

// RedactSecret masks a credential for safe logging, keeping a short prefix
// so different credentials remain distinguishable in the log stream.
// "EAABsbCS1iHgBA..." becomes "EAAB***".
func RedactSecret(val string) string {
	if len(val) <= 4 {
		return "***"
	}
	return val[:4] + "***"
}

func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(lower, hint) {
			return RedactSecret(val)
		}
	}
	// Redact tokens embedded in URLs regardless of the field name
	if idx := strings.Index(val, "access_token="); idx >= 0 {
		end := idx + len("access_token=")
		rest := val[end:]
		if amp := strings.IndexByte(rest, '&'); amp >= 0 {
			rest = rest[:amp]
		}
		return strings.Replace(val, rest, RedactSecret(rest), 1)
	}
	return val
}
