package settings

// Keys and defaults of the DB-backed settings.
const (
	// SiteNameKey names the product shown in code emails.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is used when SITE_NAME is unset.
	DefaultSiteName = "Hirelane"
	// RetentionDaysKey controls how long finished challenges and sessions are kept.
	RetentionDaysKey = "RETENTION_DAYS"
	// DefaultRetentionDays is used when RETENTION_DAYS is unset. Zero disables cleanup.
	DefaultRetentionDays = 30

	// Passkey relying party overrides; they take precedence over the webauthn config section.
	WebAuthnRPIDKey    = "WEB_AUTHN_RPID"
	WebAuthnRPNameKey  = "WEB_AUTHN_RP_NAME"
	WebAuthnOriginsKey = "WEB_AUTHN_ORIGINS"
)
