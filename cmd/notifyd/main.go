// Command notifyd runs the article notification queue.
//
// Usage:
//
//	notifyd serve     # control API; DISPATCH_EMBED_WORKER=true also runs the worker loop
//	notifyd worker    # poll-and-tick loop only
//	notifyd tick      # run a single tick and print the result as JSON
//	notifyd status    # print queue counters as JSON
//	notifyd pause|resume
//	notifyd migrate   # apply the subscribers schema to PG_CONN_URL
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifyqueue/pkg/config"
	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/httpapi"
	"github.com/dmitrymomot/notifyqueue/pkg/httpserver"
	"github.com/dmitrymomot/notifyqueue/pkg/logger"
	"github.com/dmitrymomot/notifyqueue/pkg/pg"
)

var errUsage = errors.New("usage: notifyd serve|worker|tick|status|pause|resume|migrate")

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd); err != nil {
		fmt.Fprintln(os.Stderr, "notifyd:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string) error {
	var cfg appConfig
	if err := config.Load(&cfg, config.WithDotenv(".env"), config.WithOptionalDotenv()); err != nil {
		return err
	}
	log, err := logger.FromConfig(cfg.Logger, logger.WithContextExtractors(httpapi.RequestIDExtractor))
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	switch cmd {
	case "serve":
		return serve(ctx, cfg, log)
	case "worker":
		return worker(ctx, cfg, log)
	case "tick":
		return tickOnce(ctx, cfg, log)
	case "status", "pause", "resume":
		return control(ctx, cfg, log, cmd)
	case "migrate":
		return migrate(ctx, cfg, log)
	default:
		return errUsage
	}
}

func serve(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close()

	router := httpapi.NewRouter(httpapi.Deps{
		Queue:   a.manager,
		Ticker:  a.processor,
		Config:  cfg.API,
		Logger:  log,
		Metrics: a.metricsHandler(),
		Checks:  a.checks,
	})
	srv := httpserver.New(router, log, httpserver.WithConfig(cfg.HTTP))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if cfg.EmbedWorker {
		runner := newRunner(a, cfg, log)
		g.Go(func() error { return runner.Run(gctx) })
	}
	return g.Wait()
}

func worker(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close()
	return newRunner(a, cfg, log).Run(ctx)
}

func newRunner(a *app, cfg appConfig, log *slog.Logger) *dispatch.Runner {
	return dispatch.NewRunner(a.processor,
		dispatch.WithPollInterval(cfg.Dispatch.PollInterval),
		dispatch.WithRunnerLogger(log),
	)
}

func tickOnce(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	a, err := newApp(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.processor.Tick(ctx)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func control(ctx context.Context, cfg appConfig, log *slog.Logger, cmd string) error {
	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "pause":
		err = a.manager.Pause(ctx)
	case "resume":
		err = a.manager.Resume(ctx)
	}
	if err != nil {
		return err
	}
	return printJSON(a.manager.Status(ctx))
}

func migrate(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
