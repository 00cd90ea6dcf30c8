package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"handmade/internal/cache"
	"handmade/internal/config"
	"handmade/internal/eventbus"
	"handmade/internal/http/handlers"
	applog "handmade/internal/log"
	"handmade/internal/repos"
	"handmade/internal/services"
)

func main() {
	app := &cli.App{
		Name:  "handmade",
		Usage: "handmade goods marketplace backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: ".", Usage: "directory holding app.env"},
		},
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API", Action: serve},
			{Name: "migrate", Usage: "apply database migrations", Action: migrateCmd},
			{Name: "seed", Usage: "apply migrations and insert demo data", Action: seedCmd},
		},
		DefaultCommand: "serve",
	}
	if err := app.Run(os.Args); err != nil {
		applog.Logger().Fatal().Err(err).Msg("handmade stopped")
	}
}

// setup loads config and points the log at stdout plus the optional log file.
func setup(c *cli.Context) (config.Config, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, nil, errors.Wrap(err, "load config")
	}
	applog.SetLevel(cfg.LogLevel)
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			applog.Logger().Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			applog.SetOutput(zerolog.MultiLevelWriter(os.Stdout, f))
			closeLog = func() { _ = f.Close() }
		}
	}
	return cfg, closeLog, nil
}

func migrateCmd(c *cli.Context) error {
	cfg, closeLog, err := setup(c)
	if err != nil {
		return err
	}
	defer closeLog()
	db, err := repos.Connect(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repos.Migrate(db); err != nil {
		return err
	}
	applog.Logger().Info().Str("db", cfg.DBDSN).Msg("migrations applied")
	return nil
}

func seedCmd(c *cli.Context) error {
	cfg, closeLog, err := setup(c)
	if err != nil {
		return err
	}
	defer closeLog()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	return db.Close()
}

func serve(c *cli.Context) error {
	cfg, closeLog, err := setup(c)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	var ratingCache services.RatingCache
	if cfg.RedisAddr != "" {
		client, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			applog.Logger().Warn().Err(err).Msg("redis unavailable, ratings are computed uncached")
		} else {
			defer client.Close()
			ratingCache = cache.NewRatingCache(client, cfg.RatingCacheTTL)
		}
	}

	var publisher services.EventDispatcher
	if cfg.RabbitMQURL != "" {
		p, err := eventbus.Dial(ctx, cfg)
		if err != nil {
			applog.Logger().Warn().Err(err).Msg("rabbitmq unavailable, events stay in process")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	deps := handlers.NewDeps(db, cfg, ratingCache, publisher)
	app := handlers.NewApp(deps, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return deps.Hub.Run(gctx) })
	g.Go(func() error {
		applog.Logger().Info().Str("port", cfg.Port).Msg("listening")
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		applog.Logger().Info().Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
