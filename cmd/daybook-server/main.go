// Command daybook-server starts the diary/task sync server: REST API plus
// the WebSocket realtime channel.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/daybook-app/server/config"
	"github.com/daybook-app/server/providers"
	"github.com/daybook-app/server/src/migrate"
	"github.com/daybook-app/server/src/store/postgres"
)

var version = "dev"

func main() {
	cfg := config.FromEnv()
	addr := flag.String("addr", cfg.Addr, "listen address")
	dsn := flag.String("dsn", cfg.DatabaseDSN, "PostgreSQL DSN")
	jwtKey := flag.String("jwt-key", cfg.JWTSigningKey, "HS256 signing key (required)")
	flag.Parse()
	cfg.Addr = *addr
	cfg.DatabaseDSN = *dsn
	cfg.JWTSigningKey = *jwtKey

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Info().Str("version", version).Str("addr", cfg.Addr).Msg("starting")

	if cfg.JWTSigningKey == "" {
		logger.Fatal().Msg("missing jwt signing key (--jwt-key or DAYBOOK_JWT_KEY)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal().Err(err).Msg("migrate up")
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to postgres")
	}
	defer db.Close()

	app := providers.NewApp(cfg,
		postgres.NewTodoRepo(db),
		postgres.NewDiaryRepo(db),
		postgres.NewMoodRepo(db),
		postgres.NewUserRepo(db),
		logger,
	)

	server := &fasthttp.Server{
		Handler: app.Handler(),
		Name:    "daybook-server",
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		errCh <- server.ListenAndServe(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}
}
