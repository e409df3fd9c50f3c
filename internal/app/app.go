// Package app wires configuration, storage and HTTP routes into runnable commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/admins"
	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/db"
	internalhttp "github.com/hirelane/hirelane-identity/internal/http"
	"github.com/hirelane/hirelane-identity/internal/http/api/admin"
	"github.com/hirelane/hirelane-identity/internal/http/api/admin/handlers"
	"github.com/hirelane/hirelane-identity/internal/http/api/front"
	"github.com/hirelane/hirelane-identity/internal/http/gate"
	"github.com/hirelane/hirelane-identity/internal/logging"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/notify"
	"github.com/hirelane/hirelane-identity/internal/otp"
	"github.com/hirelane/hirelane-identity/internal/retention"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/session"
	"github.com/hirelane/hirelane-identity/internal/settings"
	"github.com/hirelane/hirelane-identity/internal/webui"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// CreateAdminParams holds inputs for admin creation from the command line.
type CreateAdminParams struct {
	Email    string
	Role     string
	Password string
}

func loadConfig(cfg config.AppConfig) (config.Config, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	loaded, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if !config.ConfigExists(configPath) {
		log.Infof("config %s not found, using defaults and environment", configPath)
	}
	return loaded, nil
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}
	return conn, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	loaded, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	conn, err := db.Open(loaded.Database)
	if err != nil {
		return err
	}
	return db.Migrate(conn.WithContext(ctx))
}

// CreateAdmin registers an operator account.
func CreateAdmin(ctx context.Context, cfg config.AppConfig, params CreateAdminParams) (*models.Admin, error) {
	loaded, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := openDatabase(loaded)
	if err != nil {
		return nil, err
	}
	return admins.Create(ctx, conn, admins.CreateParams{
		Email:    params.Email,
		Role:     params.Role,
		Password: params.Password,
	})
}

// Cleanup runs one retention pass.
func Cleanup(ctx context.Context, cfg config.AppConfig) (retention.Result, error) {
	loaded, err := loadConfig(cfg)
	if err != nil {
		return retention.Result{}, err
	}
	conn, err := openDatabase(loaded)
	if err != nil {
		return retention.Result{}, err
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		return retention.Result{}, fmt.Errorf("load settings: %w", errRefresh)
	}
	return retention.NewCleaner(conn).CleanupOnce(ctx)
}

// RunServer serves the code, admin and dashboard endpoints until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	loaded, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	logCloser, err := logging.Setup(loaded.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	conn, err := openDatabase(loaded)
	if err != nil {
		return err
	}
	if errRefresh := settings.Refresh(ctx, conn); errRefresh != nil {
		log.WithError(errRefresh).Warn("settings: initial load failed, using defaults")
	}

	var redisClient redis.UniversalClient
	var limiter otp.SendLimiter
	if addr := strings.TrimSpace(loaded.Redis.Addr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: loaded.Redis.Password,
			DB:       loaded.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		redisClient = client
		limiter = otp.NewRedisLimiter(client, loaded.Redis)
	} else {
		log.Info("redis not configured, code send limits disabled")
	}

	tickets, err := newTicketSigner(loaded)
	if err != nil {
		return err
	}
	codes := otp.NewService(otp.NewGormStore(conn), otp.Options{
		TTL:      loaded.OTP.TTL(),
		MaxTries: loaded.OTP.MaxTries,
		Notifier: newNotifier(loaded),
		Limiter:  limiter,
	})
	sessions := session.NewManager(session.NewGormRepository(conn), loaded.Session.TTL)

	bundle, err := webui.Load(loaded.App.DashboardDir)
	if err != nil {
		return fmt.Errorf("load dashboard: %w", err)
	}

	if loaded.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), internalhttp.RequestLogger())

	front.RegisterFrontRoutes(engine, codes, tickets)
	admin.RegisterAdminRoutes(engine, admin.Dependencies{
		DB:       conn,
		Codes:    codes,
		Sessions: sessions,
		Cookie:   handlers.CookieConfig{Name: loaded.Session.CookieName, Secure: loaded.CookieSecure()},
		Redis:    redisClient,
		WebAuthn: loaded.WebAuthn,
	})
	gateCfg := gate.Config{
		ProtectedPrefix: loaded.Gate.ProtectedPrefix,
		RestrictedRole:  loaded.Gate.RestrictedRole,
		AllowedPath:     loaded.Gate.AllowedPath,
		CookieName:      loaded.Session.CookieName,
	}
	admin.RegisterDashboard(engine, gateCfg, newGateResolver(loaded, sessions), bundle)
	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, gateCfg.ProtectedPrefix)
	})

	go settings.Poll(ctx, conn, loaded.App.SettingsPollInterval)
	retention.NewCleaner(conn).Start(ctx)

	server := &http.Server{
		Addr:              loaded.App.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (env=%s)", loaded.App.Listen, loaded.App.Env)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			serveErr <- errServe
		}
		close(serveErr)
	}()

	select {
	case errServe := <-serveErr:
		return errServe
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func newNotifier(cfg config.Config) notify.Notifier {
	if cfg.App.Notifier == config.NotifierLog {
		log.Warn("notifier=log: codes are written to the log and not delivered")
		return notify.NewLogNotifier(nil)
	}
	return notify.NewSMTPNotifier(cfg.SMTP)
}

// newTicketSigner uses the configured secret, or a per-process random one outside production.
func newTicketSigner(cfg config.Config) (*security.TicketSigner, error) {
	secret := strings.TrimSpace(cfg.JWT.Secret)
	if secret == "" {
		generated, err := security.GenerateSessionToken()
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Warn("jwt secret not configured, tickets will not survive a restart")
	}
	return security.NewTicketSigner(secret, cfg.JWT.Issuer, cfg.JWT.TicketTTL), nil
}

func newGateResolver(cfg config.Config, sessions *session.Manager) gate.Resolver {
	if url := strings.TrimSpace(cfg.Gate.IdentityURL); url != "" {
		return gate.NewHTTPResolver(url, cfg.Session.CookieName, cfg.Gate.IdentityTimeout)
	}
	return gate.NewSessionResolver(sessions)
}
