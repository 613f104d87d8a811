package log

import (
	"strings"
)

// SanitizeField masks the value when the key looks like it carries a
// credential. The service handles a shared API key and an upstream session
// cookie, neither of which may ever appear in full in log output.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)

	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api-key",
		"token", "cookie", "session",
		"secret", "auth", "authorization",
		"credential", "private_key", "privatekey",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return maskSecret(value)
		}
	}

	return value
}

// maskSecret shows only the first and last four characters of a secret.
func maskSecret(value string) string {
	if len(value) <= 8 {
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
