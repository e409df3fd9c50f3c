package util

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// HideSecret obscures a token for logging, showing only the first and last few characters.
func HideSecret(secret string) string {
	switch {
	case len(secret) > 8:
		return secret[:4] + "..." + secret[len(secret)-4:]
	case len(secret) > 4:
		return secret[:2] + "..." + secret[len(secret)-2:]
	case len(secret) > 2:
		return secret[:1] + "..." + secret[len(secret)-1:]
	}
	return secret
}

// MaskIdentifier hides most of an email local part or phone number for log output.
// "alice@example.com" becomes "a***@example.com" and "+15551234567" becomes "+1******4567".
func MaskIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ""
	}
	if at := strings.LastIndex(identifier, "@"); at >= 0 {
		local, domain := identifier[:at], identifier[at:]
		if local == "" {
			return "***" + domain
		}
		_, size := utf8.DecodeRuneInString(local)
		return local[:size] + "***" + domain
	}
	runes := []rune(identifier)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	keepHead := 2
	if len(runes) < 8 {
		keepHead = 0
	}
	tail := string(runes[len(runes)-4:])
	return string(runes[:keepHead]) + strings.Repeat("*", len(runes)-keepHead-4) + tail
}

// MaskSensitiveQuery masks sensitive query parameters, e.g. ticket or code, within the raw query string.
func MaskSensitiveQuery(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "&")
	changed := false
	for i, part := range parts {
		if part == "" {
			continue
		}
		keyPart := part
		valuePart := ""
		if idx := strings.Index(part, "="); idx >= 0 {
			keyPart = part[:idx]
			valuePart = part[idx+1:]
		}
		decodedKey, err := url.QueryUnescape(keyPart)
		if err != nil {
			decodedKey = keyPart
		}
		if !shouldMaskQueryParam(decodedKey) {
			continue
		}
		decodedValue, err := url.QueryUnescape(valuePart)
		if err != nil {
			decodedValue = valuePart
		}
		parts[i] = keyPart + "=" + url.QueryEscape(HideSecret(strings.TrimSpace(decodedValue)))
		changed = true
	}
	if !changed {
		return raw
	}
	return strings.Join(parts, "&")
}

func shouldMaskQueryParam(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.TrimSuffix(key, "[]")
	switch key {
	case "":
		return false
	case "code", "ticket", "session", "admin_session":
		return true
	}
	return strings.Contains(key, "token") || strings.Contains(key, "secret") || strings.Contains(key, "password")
}
