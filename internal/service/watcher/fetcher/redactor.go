package fetcher

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

var (
	// sensitiveExactKeys are query parameter names that are redacted only
	// on an exact, case-insensitive match. Substring matching would also
	// hit harmless words like "monkey" or "broken".
	sensitiveExactKeys = []string{
		"token", "auth", "key", "secret", "pass", "credential", "signature", "password", "passwd",
		"access_token", "api_key", "client_secret", "refresh_token", "id_token",
		"access_key", "secret_key", "private_key", "public_key",
		"client_id", "client_key", "app_key", "auth_key",
	}

	// sensitiveSuffixes catch structured names such as client_secret or
	// session_token without listing every combination.
	sensitiveSuffixes = []string{
		"_token", "_secret", "_cred", "_sig", "_password", "_passwd",
	}
)

// redactHeaders returns a copy of h with authentication-bearing headers
// masked. The original headers are not modified.
func redactHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}

	masked := h.Clone()

	sensitive := []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie"}
	for _, key := range sensitive {
		if masked.Get(key) != "" {
			masked.Set(key, "***")
		}
	}

	return masked
}

// redactURL renders u with userinfo and sensitive query parameter values
// masked, keeping the overall structure readable for logs.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	ru := *u

	if u.User != nil {
		if _, has := u.User.Password(); has {
			ru.User = url.UserPassword(u.User.Username(), "xxxxx")
		} else if u.User.Username() != "" {
			// A lone username is often a token (e.g. https://token@api.com).
			ru.User = url.User("xxxxx")
		}
	}

	if u.RawQuery != "" {
		query := ru.Query()
		for key := range query {
			if isSensitiveKey(key) {
				query.Set(key, "xxxxx")
			}
		}

		ru.RawQuery = query.Encode()
	}

	return ru.String()
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	if slices.Contains(sensitiveExactKeys, lowerKey) {
		return true
	}

	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lowerKey, suffix) {
			return true
		}
	}

	return false
}
