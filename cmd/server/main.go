// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/westhockey/clubhouse/internal/api/auth"
	"github.com/westhockey/clubhouse/internal/config"
	"github.com/westhockey/clubhouse/internal/db"
	"github.com/westhockey/clubhouse/internal/email"
	"github.com/westhockey/clubhouse/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	store := auth.NewStore(database, cfg.App.Environment != "development")

	var sender email.EmailSender
	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID,
			cfg.Email.SecretAccessKey,
			cfg.Email.Region,
			cfg.Email.Sender,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SES client")
		}
		sender = sesClient
	}

	var sched *scheduler.Service
	if cfg.Scheduler.Enabled {
		if sender == nil {
			log.Fatal().Msg("Scheduler requires email to be enabled")
		}
		sched, err = scheduler.New()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		_, err = sched.AddJob("weekly-team-sheets", cfg.Scheduler.SelectionsCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := email.SendWeekSheets(ctx, database, sender, cfg.App.Season); err != nil {
				log.Error().Err(err).Msg("Weekly team sheet job failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to register weekly team sheet job")
		}
		sched.Start()
	}

	server := newServer(cfg, database, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("season", cfg.App.Season).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if sched != nil {
			if err := sched.Stop(); err != nil {
				log.Error().Err(err).Msg("Scheduler shutdown failed")
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
