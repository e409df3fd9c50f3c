package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hirelane/hirelane-identity/internal/app"
	"github.com/hirelane/hirelane-identity/internal/config"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: server [-config path] <command> [flags]

commands:
  serve          run the HTTP server (default)
  migrate        create or update database tables
  create-admin   register an admin: -email, -role, -password
  cleanup        run one retention pass
`

func main() {
	var cfg config.AppConfig
	flag.StringVar(&cfg.ConfigPath, "config", "", "path to config.yaml (defaults to $HIRELANE_CONFIG or ./config.yaml)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	command := "serve"
	args := flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, command, args); err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func run(ctx context.Context, cfg config.AppConfig, command string, args []string) error {
	switch command {
	case "serve":
		return app.RunServer(ctx, cfg)
	case "migrate":
		if err := app.Migrate(ctx, cfg); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	case "create-admin":
		fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
		var params app.CreateAdminParams
		fs.StringVar(&params.Email, "email", "", "admin email (required)")
		fs.StringVar(&params.Role, "role", "admin", "role tag, e.g. admin or support")
		fs.StringVar(&params.Password, "password", "", "optional password checked before a code is sent")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if params.Email == "" {
			fs.Usage()
			return fmt.Errorf("-email is required")
		}
		created, err := app.CreateAdmin(ctx, cfg, params)
		if err != nil {
			return err
		}
		log.Infof("created admin %s (id=%d role=%s)", created.Email, created.ID, created.Role)
		return nil
	case "cleanup":
		result, err := app.Cleanup(ctx, cfg)
		if err != nil {
			return err
		}
		log.Infof("deleted %d challenges and %d sessions", result.Challenges, result.Sessions)
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
