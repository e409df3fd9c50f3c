// Package config loads the service configuration from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for recognized options.
const (
	DefaultConfigPath      = "config.yaml"
	DefaultListen          = ":8080"
	DefaultOTPTTLMinutes   = 10
	DefaultOTPMaxTries     = 5
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultCookieName      = "admin_session"
	DefaultProtectedPrefix = "/admin"
	DefaultRestrictedRole  = "support"
	DefaultAllowedPath     = "/admin/settings"
	DefaultTicketTTL       = 30 * time.Minute
	DefaultTicketIssuer    = "hirelane-identity"
	DefaultIdentityTimeout = 3 * time.Second
	DefaultSendCooldown    = 30 * time.Second
	DefaultSendWindow      = 15 * time.Minute
	DefaultSendMaxInWindow = 5
	DefaultSettingsPoll    = time.Minute

	EnvProduction = "production"

	NotifierSMTP = "smtp"
	NotifierLog  = "log"
)

// AppConfig carries command line inputs.
type AppConfig struct {
	ConfigPath string
}

// Config is the full service configuration.
type Config struct {
	App      AppSection     `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	OTP      OTPConfig      `yaml:"otp"`
	Session  SessionConfig  `yaml:"session"`
	Gate     GateConfig     `yaml:"gate"`
	JWT      JWTConfig      `yaml:"jwt"`
	WebAuthn WebAuthnConfig `yaml:"webauthn"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppSection holds process level settings.
type AppSection struct {
	Env                  string        `yaml:"env"`                    // "production" enables strict checks.
	Listen               string        `yaml:"listen"`                 // HTTP listen address.
	Notifier             string        `yaml:"notifier"`               // "smtp" or "log".
	DashboardDir         string        `yaml:"dashboard-dir"`          // Optional built dashboard bundle directory.
	SettingsPollInterval time.Duration `yaml:"settings-poll-interval"` // How often the settings table is reloaded.
}

// DatabaseConfig holds the DSN and pool settings.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	TimeZone     string `yaml:"timezone"`
	MaxOpenConns int    `yaml:"max-open-conns"`
	MaxIdleConns int    `yaml:"max-idle-conns"`
}

// RedisConfig configures the optional OTP send limiter.
type RedisConfig struct {
	Addr            string        `yaml:"addr"`
	Password        string        `yaml:"password"`
	DB              int           `yaml:"db"`
	SendCooldown    time.Duration `yaml:"send-cooldown"`
	SendWindow      time.Duration `yaml:"send-window"`
	SendMaxInWindow int           `yaml:"send-max-in-window"`
}

// OTPConfig configures one-time code issuance.
type OTPConfig struct {
	TTLMinutes int `yaml:"ttl-minutes"`
	MaxTries   int `yaml:"max-tries"`
}

// TTL returns the code lifetime.
func (c OTPConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SessionConfig configures admin sessions and their cookie.
type SessionConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	CookieName   string        `yaml:"cookie-name"`
	CookieSecure *bool         `yaml:"cookie-secure"` // Defaults to true in production.
}

// GateConfig configures role restriction on the dashboard prefix.
type GateConfig struct {
	ProtectedPrefix string        `yaml:"protected-prefix"`
	RestrictedRole  string        `yaml:"restricted-role"`
	AllowedPath     string        `yaml:"allowed-path"`
	IdentityURL     string        `yaml:"identity-url"` // When set, roles are resolved over HTTP.
	IdentityTimeout time.Duration `yaml:"identity-timeout"`
}

// JWTConfig configures verification tickets handed out after a successful code check.
type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	Issuer    string        `yaml:"issuer"`
	TicketTTL time.Duration `yaml:"ticket-ttl"`
}

// WebAuthnConfig configures passkeys as an admin second factor. Passkeys stay disabled
// until at least one origin is configured here or in the WEB_AUTHN_ORIGINS setting.
type WebAuthnConfig struct {
	RPID    string   `yaml:"rp-id"`   // Derived from the first origin when empty.
	RPName  string   `yaml:"rp-name"` // Defaults to the SITE_NAME setting.
	Origins []string `yaml:"origins"` // Allowed dashboard origins, e.g. https://admin.example.com.
}

// SMTPConfig configures email delivery of codes.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// LoggingConfig configures logrus output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
	Compress   bool   `yaml:"compress"`
}

// ResolveConfigPath picks the config path from the flag, HIRELANE_CONFIG, or the default.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return filepath.Clean(trimmed)
	}
	if env := strings.TrimSpace(os.Getenv("HIRELANE_CONFIG")); env != "" {
		return filepath.Clean(env)
	}
	return DefaultConfigPath
}

// ConfigExists reports whether a config file is present at path.
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the YAML file at path (a missing file yields defaults), applies environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	data, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	cfg.applyDefaults()
	if errEnv := cfg.applyEnv(os.LookupEnv); errEnv != nil {
		return Config{}, errEnv
	}
	if errValidate := cfg.Validate(); errValidate != nil {
		return Config{}, errValidate
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production safeguards.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.App.Env), EnvProduction)
}

// CookieSecure resolves the Secure attribute for the session cookie.
func (c Config) CookieSecure() bool {
	if c.Session.CookieSecure != nil {
		return *c.Session.CookieSecure
	}
	return c.IsProduction()
}

func (c *Config) applyDefaults() {
	if c.App.Listen == "" {
		c.App.Listen = DefaultListen
	}
	if c.App.SettingsPollInterval <= 0 {
		c.App.SettingsPollInterval = DefaultSettingsPoll
	}
	if c.App.Notifier == "" {
		c.App.Notifier = NotifierSMTP
	}
	if c.Database.TimeZone == "" {
		c.Database.TimeZone = "UTC"
	}
	if c.OTP.TTLMinutes == 0 {
		c.OTP.TTLMinutes = DefaultOTPTTLMinutes
	}
	if c.OTP.MaxTries == 0 {
		c.OTP.MaxTries = DefaultOTPMaxTries
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Gate.ProtectedPrefix == "" {
		c.Gate.ProtectedPrefix = DefaultProtectedPrefix
	}
	if c.Gate.RestrictedRole == "" {
		c.Gate.RestrictedRole = DefaultRestrictedRole
	}
	if c.Gate.AllowedPath == "" {
		c.Gate.AllowedPath = DefaultAllowedPath
	}
	if c.Gate.IdentityTimeout == 0 {
		c.Gate.IdentityTimeout = DefaultIdentityTimeout
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = DefaultTicketIssuer
	}
	if c.JWT.TicketTTL == 0 {
		c.JWT.TicketTTL = DefaultTicketTTL
	}
	if c.Redis.SendCooldown == 0 {
		c.Redis.SendCooldown = DefaultSendCooldown
	}
	if c.Redis.SendWindow == 0 {
		c.Redis.SendWindow = DefaultSendWindow
	}
	if c.Redis.SendMaxInWindow == 0 {
		c.Redis.SendMaxInWindow = DefaultSendMaxInWindow
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// applyEnv overlays the recognized environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("APP_ENV", &c.App.Env)
	str("LISTEN_ADDR", &c.App.Listen)
	str("DATABASE_DSN", &c.Database.DSN)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("JWT_SECRET", &c.JWT.Secret)
	str("SMTP_PASSWORD", &c.SMTP.Password)
	str("WEBAUTHN_RP_ID", &c.WebAuthn.RPID)
	if v, ok := lookup("WEBAUTHN_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.WebAuthn.Origins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.WebAuthn.Origins = append(c.WebAuthn.Origins, origin)
			}
		}
	}
	if err := num("OTP_TTL_MINUTES", &c.OTP.TTLMinutes); err != nil {
		return err
	}
	if err := num("OTP_MAX_TRIES", &c.OTP.MaxTries); err != nil {
		return err
	}
	if v, ok := lookup("SESSION_TTL"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: SESSION_TTL: %w", err)
		}
		c.Session.TTL = d
	}
	return nil
}

// Validate checks option ranges and production safeguards.
func (c Config) Validate() error {
	if c.OTP.TTLMinutes <= 0 {
		return errors.New("config: otp ttl-minutes must be positive")
	}
	if c.OTP.MaxTries <= 0 {
		return errors.New("config: otp max-tries must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session ttl must be positive")
	}
	if !strings.HasPrefix(c.Gate.ProtectedPrefix, "/") {
		return errors.New("config: gate protected-prefix must start with /")
	}
	if !strings.HasPrefix(c.Gate.AllowedPath, c.Gate.ProtectedPrefix) {
		return errors.New("config: gate allowed-path must live under protected-prefix")
	}
	if strings.TrimSpace(c.Gate.RestrictedRole) == "" {
		return errors.New("config: gate restricted-role must be set")
	}
	switch c.App.Notifier {
	case NotifierSMTP, NotifierLog:
	default:
		return fmt.Errorf("config: unknown notifier %q", c.App.Notifier)
	}
	if c.IsProduction() {
		if c.App.Notifier == NotifierLog {
			return errors.New("config: notifier=log must not be used when app.env=production")
		}
		if strings.TrimSpace(c.JWT.Secret) == "" {
			return errors.New("config: jwt secret is required when app.env=production")
		}
	}
	return nil
}
