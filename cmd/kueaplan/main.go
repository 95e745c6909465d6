package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhthies/online-kueaplan-sub000/internal/application"
	"github.com/mhthies/online-kueaplan-sub000/internal/config"
	httptransport "github.com/mhthies/online-kueaplan-sub000/internal/http"
	"github.com/mhthies/online-kueaplan-sub000/internal/logging"
	"github.com/mhthies/online-kueaplan-sub000/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, logLevel(cfg.LogLevel))

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	events := sqlite.NewEventRepository(pool)
	categories := sqlite.NewCategoryRepository(pool)
	rooms := sqlite.NewRoomRepository(pool)
	entries := sqlite.NewEntryRepository(pool)
	passphrases := sqlite.NewPassphraseRepository(pool)
	announcements := sqlite.NewAnnouncementRepository(pool)

	authService := application.NewAuthService(cfg.SessionSecret, cfg.AdminSecret, cfg.SessionMaxAge, passphrases, time.Now, logger)
	planService := application.NewPlanService(events, entries, announcements, nil, time.Now, logger)
	feedService := application.NewFeedService(planService, rooms, logger)
	eventService := application.NewEventService(events, categories, rooms, logger)
	entryService := application.NewEntryService(entries, logger)
	passphraseService := application.NewPassphraseService(passphrases, logger)
	announcementService := application.NewAnnouncementService(announcements, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, cfg.SessionMaxAge, logger),
		Plans:         httptransport.NewPlanHandler(authService, planService, feedService, time.Now, logger),
		Events:        httptransport.NewEventHandler(authService, eventService, logger),
		Entries:       httptransport.NewEntryHandler(authService, entryService, logger),
		Passphrases:   httptransport.NewPassphraseHandler(authService, passphraseService, logger),
		Announcements: httptransport.NewAnnouncementHandler(authService, announcementService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("kueaplan API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
