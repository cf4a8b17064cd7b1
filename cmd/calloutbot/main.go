package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/calloutkit/calloutbot/internal/api"
	"github.com/calloutkit/calloutbot/internal/commands"
	"github.com/calloutkit/calloutbot/internal/content"
	"github.com/calloutkit/calloutbot/internal/events"
	"github.com/calloutkit/calloutbot/internal/i18n"
	"github.com/calloutkit/calloutbot/internal/messaging"
	"github.com/calloutkit/calloutbot/internal/render"
	"github.com/calloutkit/calloutbot/internal/session"
	"github.com/calloutkit/calloutbot/internal/store"
	"github.com/calloutkit/calloutbot/internal/telegram"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for bot state data
	DefaultStateDir = "/var/lib/calloutbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "calloutbot.db"
)

// Config holds environment configuration.
type Config struct {
	TelegramToken   string `env:"TELEGRAM_TOKEN"`
	DatabaseURL     string `env:"DATABASE_URL"`
	StateDir        string `env:"CALLOUTBOT_STATE_DIR"`
	ContentURL      string `env:"CONTENT_API_URL"`
	ContentToken    string `env:"CONTENT_API_TOKEN"`
	ContentSchedule string `env:"CONTENT_POLL_SCHEDULE" envDefault:"@every 5m"`
	WebhookSecret   string `env:"WEBHOOK_SECRET"`
	APIAddr         string `env:"API_ADDR" envDefault:":8080"`
	Locale          string `env:"LOCALE" envDefault:"en"`
	LocalesDir      string `env:"LOCALES_DIR"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

// Flags holds command line flag values.
type Flags struct {
	telegramToken   *string
	dbDSN           *string
	stateDir        *string
	contentURL      *string
	contentToken    *string
	contentSchedule *string
	webhookSecret   *string
	apiAddr         *string
	locale          *string
	localesDir      *string
}

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.LogLevel)
	flags := parseCommandLineFlags(config)

	if *flags.telegramToken == "" {
		slog.Error("No Telegram token configured, set TELEGRAM_TOKEN or -telegram-token")
		os.Exit(1)
	}
	if *flags.contentURL == "" {
		slog.Error("No content API URL configured, set CONTENT_API_URL or -content-url")
		os.Exit(1)
	}

	if err := run(flags); err != nil {
		slog.Error("calloutbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("calloutbot exited successfully")
}

func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := loadCatalog(flags)
	if err != nil {
		return err
	}

	bus := events.NewDispatcher()
	sessions := session.NewStore(db)
	if err := sessions.Restore(ctx); err != nil {
		slog.Warn("Failed to restore sessions, starting fresh", "error", err)
	}

	svc, err := telegram.NewService(telegram.WithToken(*flags.telegramToken))
	if err != nil {
		return err
	}
	comm := session.NewCommunication(svc, bus, sessions)

	client, err := content.NewClient(
		content.WithBaseURL(*flags.contentURL),
		content.WithToken(*flags.contentToken),
	)
	if err != nil {
		return err
	}
	watcher := content.NewWatcher(client, bus)
	if err := watcher.Start(ctx, *flags.contentSchedule); err != nil {
		return err
	}
	defer watcher.Stop()

	registry := commands.NewRegistry(&commands.Deps{
		Comm:      comm,
		Renderer:  render.NewRenderer(catalog),
		Source:    watcher,
		Submitter: client,
		Store:     db,
	})
	registry.Attach(bus)

	if *flags.webhookSecret != "" {
		server, err := api.NewServer(bus,
			api.WithAddr(*flags.apiAddr),
			api.WithSecret(*flags.webhookSecret),
			api.WithAllowedEvents("callout:added", "callout:updated", "callout:removed"),
		)
		if err != nil {
			return err
		}
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("API shutdown failed", "error", err)
			}
		}()
	} else {
		slog.Info("No webhook secret configured, webhook API disabled")
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			slog.Warn("Telegram service stop failed", "error", err)
		}
	}()

	slog.Info("calloutbot running", "locale", catalog.Locale())
	messaging.DispatchLoop(ctx, svc, bus)
	return nil
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and a
// .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	var config Config
	if err := env.Parse(&config); err != nil {
		slog.Error("failed to parse environment configuration", "error", err)
		os.Exit(1)
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		telegramToken:   flag.String("telegram-token", config.TelegramToken, "Telegram bot API token (overrides $TELEGRAM_TOKEN)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		stateDir:        flag.String("state-dir", config.StateDir, "state directory for bot data (overrides $CALLOUTBOT_STATE_DIR)"),
		contentURL:      flag.String("content-url", config.ContentURL, "content system API base URL (overrides $CONTENT_API_URL)"),
		contentToken:    flag.String("content-token", config.ContentToken, "content system API token (overrides $CONTENT_API_TOKEN)"),
		contentSchedule: flag.String("content-schedule", config.ContentSchedule, "content polling schedule (overrides $CONTENT_POLL_SCHEDULE)"),
		webhookSecret:   flag.String("webhook-secret", config.WebhookSecret, "shared secret for webhook tokens (overrides $WEBHOOK_SECRET)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		locale:          flag.String("locale", config.Locale, "message catalog locale (overrides $LOCALE)"),
		localesDir:      flag.String("locales-dir", config.LocalesDir, "directory with locale catalogs, overrides the embedded ones (overrides $LOCALES_DIR)"),
	}
	flag.Parse()
	return flags
}

func openStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Info("Using SQLite store", "path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

func loadCatalog(flags Flags) (*i18n.Catalog, error) {
	if *flags.localesDir != "" {
		return i18n.LoadDir(*flags.localesDir, *flags.locale)
	}
	return i18n.Load(*flags.locale)
}
