package security

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/settings"
)

// ErrPasskeysDisabled is returned by NewWebAuthn when no origin is configured.
var ErrPasskeysDisabled = errors.New("passkeys not configured")

// NewWebAuthn builds the relying party from cfg, with DB settings taking precedence.
func NewWebAuthn(cfg config.WebAuthnConfig) (*webauthn.WebAuthn, error) {
	origins := settings.Strings(settings.WebAuthnOriginsKey)
	if len(origins) == 0 {
		origins = normalizeOrigins(cfg.Origins)
	}
	if len(origins) == 0 {
		return nil, ErrPasskeysDisabled
	}

	rpID := settings.String(settings.WebAuthnRPIDKey)
	if rpID == "" {
		rpID = strings.TrimSpace(cfg.RPID)
	}
	if rpID == "" {
		rpID = deriveRPIDFromOrigins(origins)
	}

	rpName := settings.String(settings.WebAuthnRPNameKey)
	if rpName == "" {
		rpName = strings.TrimSpace(cfg.RPName)
	}
	if rpName == "" {
		rpName = settings.SiteName()
	}

	return webauthn.New(&webauthn.Config{
		RPID:          rpID,
		RPDisplayName: rpName,
		RPOrigins:     origins,
	})
}

func deriveRPIDFromOrigins(origins []string) string {
	for _, origin := range origins {
		if host := originHost(origin); host != "" {
			return host
		}
	}
	return ""
}

func originHost(origin string) string {
	trimmed := strings.TrimSpace(origin)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimSpace(parsed.Hostname())
}

func normalizeOrigins(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
