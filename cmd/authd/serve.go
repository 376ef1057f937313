package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	authd "github.com/goliatone/go-authd"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the credential issuance server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("authd"),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("serve")

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return err
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	if err := authd.CreateSchema(ctx, db); err != nil {
		logger.Error("failed to create schema", "error", err)
		return err
	}

	repo := authd.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	tokens, err := authd.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		lgr.GetLogger("tokens"),
	)
	if err != nil {
		logger.Error("failed to initialize token service", "error", err)
		return err
	}

	if err := authd.EnsureBootstrapAccounts(
		ctx,
		repo,
		authd.BootstrapAccountsFromConfig(cfg),
		lgr.GetLogger("bootstrap"),
	); err != nil {
		logger.Error("bootstrap seeding failed", "error", err)
		return err
	}

	auther := authd.New(repo, tokens).WithLogger(lgr.GetLogger("auth"))

	app := fiber.New(fiber.Config{
		AppName:               "authd",
		DisableStartupMessage: true,
	})

	authd.RegisterRoutes(app, authd.NewAuthController(
		auther,
		authd.WithControllerLogger(lgr.GetLogger("http")),
	))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.GetAddr())
		errCh <- app.Listen(cfg.GetAddr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		return app.ShutdownWithTimeout(10 * time.Second)
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "context cancelled")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func openDatabase(cfg *authd.Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
