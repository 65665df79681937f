package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/notifyqueue/pkg/dispatch"
	"github.com/dmitrymomot/notifyqueue/pkg/email"
	"github.com/dmitrymomot/notifyqueue/pkg/httpserver"
	"github.com/dmitrymomot/notifyqueue/pkg/metrics"
	"github.com/dmitrymomot/notifyqueue/pkg/mongo"
	"github.com/dmitrymomot/notifyqueue/pkg/objstore"
	"github.com/dmitrymomot/notifyqueue/pkg/pg"
	"github.com/dmitrymomot/notifyqueue/pkg/redis"
	"github.com/dmitrymomot/notifyqueue/pkg/subscribers"
)

var errUnknownStore = errors.New("unknown DISPATCH_STORE")

// app holds every wired collaborator of one notifyd process.
type app struct {
	cfg       appConfig
	log       *slog.Logger
	manager   *dispatch.Manager
	processor *dispatch.Processor
	registry  *prometheus.Registry
	checks    []httpserver.Check
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires the queue. Only the queue itself is built when withProcessor is false.
func newApp(ctx context.Context, cfg appConfig, log *slog.Logger, withProcessor bool) (*app, error) {
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := a.store(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.manager, err = dispatch.NewManager(store, dispatch.WithLogger(log))
	if err != nil {
		a.close()
		return nil, err
	}
	if !withProcessor {
		return a, nil
	}

	dir, err := a.directory(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	sender, err := a.sender()
	if err != nil {
		a.close()
		return nil, err
	}
	locker, err := a.locker(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.processor, err = dispatch.NewProcessor(a.manager, dir, sender,
		dispatch.WithProcessorConfig(cfg.Dispatch),
		dispatch.WithProcessorLogger(log),
		dispatch.WithLocker(locker),
		dispatch.WithRecorder(metrics.NewCollector(a.registry)),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) metricsHandler() http.Handler {
	return metrics.Handler(a.registry)
}

func (a *app) store(ctx context.Context) (dispatch.Store, error) {
	switch a.cfg.Store {
	case storeFile, "":
		a.log.InfoContext(ctx, "using file event store", slog.String("dir", a.cfg.Dispatch.DataDir))
		return dispatch.NewFileStore(a.cfg.Dispatch.DataDir), nil
	case storeS3:
		a.log.InfoContext(ctx, "using s3 event store",
			slog.String("bucket", a.cfg.ObjectStore.Bucket), slog.String("prefix", a.cfg.ObjectStore.Prefix))
		s3, err := objstore.NewS3Store(ctx, a.cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStore, a.cfg.Store)
	}
}

func (a *app) directory(ctx context.Context) (dispatch.Directory, error) {
	cfg := a.cfg.Subscribers
	switch cfg.Source {
	case subscribers.SourceStatic:
		return subscribers.Static(cfg.Static), nil
	case subscribers.SourceYAML, "":
		return subscribers.NewYAMLFile(cfg.File), nil
	case subscribers.SourcePostgres:
		pool, err := pg.Connect(ctx, a.cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.checks = append(a.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
		return subscribers.NewPostgres(pool), nil
	case subscribers.SourceMongo:
		client, err := mongo.New(ctx, a.cfg.Mongo)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		a.checks = append(a.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(client)})
		coll := client.Database(a.cfg.Mongo.Database).Collection(cfg.MongoCollection)
		return subscribers.NewMongo(coll), nil
	default:
		return nil, fmt.Errorf("%w: %q", subscribers.ErrUnknownSource, cfg.Source)
	}
}

func (a *app) sender() (dispatch.Sender, error) {
	client, err := email.NewFromConfig(a.cfg.Email)
	if err != nil {
		return nil, err
	}
	if a.cfg.Email.PostmarkServerToken == "" {
		a.log.Warn("POSTMARK_SERVER_TOKEN not set, writing emails to disk",
			slog.String("dir", a.cfg.Email.DevOutputDir))
	}
	return email.NewNotifier(client, a.cfg.Email.SiteURL,
		email.WithSendTimeout(a.cfg.Email.SendTimeout),
		email.WithNotifierLogger(a.log),
	), nil
}

// locker serialises ticks across processes when Redis is configured and within this process otherwise.
func (a *app) locker(ctx context.Context) (dispatch.Locker, error) {
	if a.cfg.Redis.ConnectionURL == "" {
		return &dispatch.LocalLocker{}, nil
	}
	client, err := redis.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client, a.cfg.Redis.LockKey)})
	ttl := tickLockTTL(a.cfg)
	if ttl > a.cfg.Redis.LockTTL {
		a.log.WarnContext(ctx, "tick lock ttl raised to cover the longest tick",
			slog.Duration("configured", a.cfg.Redis.LockTTL), slog.Duration("effective", ttl))
	}
	a.log.InfoContext(ctx, "using redis tick lock", slog.String("key", a.cfg.Redis.LockKey), slog.Duration("ttl", ttl))
	return redis.NewLocker(client, a.cfg.Redis.LockKey, ttl), nil
}

// lockTTLMargin covers persisting progress after the last send of a batch.
const lockTTLMargin = 30 * time.Second

// tickLockTTL never lets the lock expire while a tick can still be sending.
func tickLockTTL(cfg appConfig) time.Duration {
	return max(cfg.Redis.LockTTL, cfg.Dispatch.LongestTick(cfg.Email.SendTimeout)+lockTTLMargin)
}
