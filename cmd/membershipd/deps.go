package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/modules/billing"
	"github.com/dmitrymomot/membership/modules/entitlement"
	"github.com/dmitrymomot/membership/pkg/config"
	"github.com/dmitrymomot/membership/pkg/email"
	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/httpserver"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/metrics"
	"github.com/dmitrymomot/membership/pkg/mongo"
	"github.com/dmitrymomot/membership/pkg/pg"
	"github.com/dmitrymomot/membership/pkg/ratelimiter"
	"github.com/dmitrymomot/membership/pkg/redis"
	"github.com/dmitrymomot/membership/pkg/requestid"
	"github.com/dmitrymomot/membership/pkg/secrets"
	"github.com/dmitrymomot/membership/storage/memory"
	mongostore "github.com/dmitrymomot/membership/storage/mongo"
	"github.com/dmitrymomot/membership/storage/postgres"
	redisstore "github.com/dmitrymomot/membership/storage/redis"
	"github.com/dmitrymomot/membership/svc/membership"
	"github.com/dmitrymomot/membership/svc/payment"
)

// dependencies is the object graph of one process. Commands build only the parts they use.
type dependencies struct {
	cfg     AppConfig
	log     *slog.Logger
	metrics *metrics.Metrics

	pool    *pgxpool.Pool
	pgCfg   pg.Config
	mongoDB *mongodriver.Database

	remote  membership.Store
	lister  membership.ExpiredLister
	local   membership.Store
	txs     payment.TransactionStore
	limits  ratelimiter.Store
	checks  map[string]httpserver.Check
	closers []func(context.Context) error

	members  membership.Service
	mcfg     membership.Config
	gw       gateway.Gateway
	parser   gateway.NotificationParser
	payments payment.Service
}

func newDependencies(cfg AppConfig, log *slog.Logger) *dependencies {
	return &dependencies{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(nil),
		checks:  make(map[string]httpserver.Check),
	}
}

// initStorage connects the authoritative store selected by STORAGE_DRIVER.
func (d *dependencies) initStorage(ctx context.Context) error {
	switch d.cfg.StorageDriver {
	case driverPostgres:
		if err := config.Load(&d.pgCfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, d.pgCfg)
		if err != nil {
			return err
		}
		d.pool = pool
		d.closers = append(d.closers, func(context.Context) error {
			pool.Close()
			return nil
		})
		d.checks["postgres"] = pg.Healthcheck(pool)

		members := postgres.NewMembershipStore(pool)
		d.remote, d.lister = members, members
		d.txs = postgres.NewTransactionStore(pool)

	case driverMongo:
		var mcfg mongo.Config
		if err := config.Load(&mcfg); err != nil {
			return err
		}
		client, err := mongo.New(ctx, mcfg)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, client.Disconnect)
		d.checks["mongo"] = mongo.Healthcheck(client)
		d.mongoDB = client.Database(mcfg.Database)

		members := mongostore.NewMembershipStore(d.mongoDB)
		d.remote, d.lister = members, members
		d.txs = mongostore.NewTransactionStore(d.mongoDB)

	case driverMemory:
		d.log.WarnContext(ctx, "using in-memory storage, all data is lost on restart")
		d.remote = memory.NewStore(d.cfg.CacheCapacity, 0)
		d.txs = memory.NewTransactionStore()

	default:
		return fmt.Errorf("%w: unknown storage driver %q", errInvalidConfig, d.cfg.StorageDriver)
	}
	return nil
}

// initCache connects the local store selected by CACHE_DRIVER.
func (d *dependencies) initCache(ctx context.Context) error {
	switch d.cfg.CacheDriver {
	case driverRedis:
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, func(context.Context) error { return client.Close() })
		d.checks["redis"] = redis.Healthcheck(client)
		d.local = redisstore.NewStore(client,
			redisstore.WithKeyPrefix(rcfg.KeyPrefix),
			redisstore.WithTTL(d.cfg.CacheTTL))
		d.limits = ratelimiter.NewRedisStore(client, ratelimiter.WithRedisKeyPrefix(rcfg.KeyPrefix))
	case driverMemory:
		d.local = memory.NewStore(d.cfg.CacheCapacity, d.cfg.CacheTTL)
		limits := ratelimiter.NewMemoryStore()
		d.closers = append(d.closers, func(context.Context) error { limits.Close(); return nil })
		d.limits = limits
	default:
		return fmt.Errorf("%w: unknown cache driver %q", errInvalidConfig, d.cfg.CacheDriver)
	}
	return nil
}

// initMemberships builds the entitlement engine over the connected stores.
func (d *dependencies) initMemberships(ctx context.Context) error {
	if err := config.Load(&d.mcfg); err != nil {
		return err
	}
	loc, err := d.mcfg.Location()
	if err != nil {
		return err
	}
	catalog, err := membership.NewCatalog(ctx, d.mcfg.CatalogSource())
	if err != nil {
		return err
	}

	syncer := membership.NewSyncer(d.remote, d.local,
		membership.WithSyncLogger(d.log),
		membership.WithSyncRecorder(d.metrics),
		membership.WithWriteTimeout(d.mcfg.WriteTimeout))
	d.members = membership.NewService(catalog, syncer,
		membership.WithLogger(d.log),
		membership.WithLocation(loc),
		membership.WithRecorder(d.metrics))
	return nil
}

// initGateway builds the client selected by GATEWAY_DRIVER. Missing credentials fall back
// to a disabled gateway so the entitlement API still serves.
func (d *dependencies) initGateway(ctx context.Context) error {
	observer := d.metrics.GatewayObserver()

	var reason error
	switch d.cfg.GatewayDriver {
	case gatewayArifPay:
		var acfg gateway.ArifPayConfig
		if err := config.Load(&acfg); err != nil {
			return err
		}
		gw, err := gateway.NewArifPay(acfg, gateway.WithObserver(observer))
		if err == nil {
			d.gw, d.parser = gw, gw
			return nil
		}
		if !errors.Is(err, gateway.ErrNotConfigured) {
			return err
		}
		reason = err
	case gatewayPaddle:
		var pcfg gateway.PaddleConfig
		if err := config.Load(&pcfg); err != nil {
			return err
		}
		gw, err := gateway.NewPaddle(pcfg, observer)
		if err == nil {
			d.gw, d.parser = gw, gw
			return nil
		}
		if !errors.Is(err, gateway.ErrNotConfigured) {
			return err
		}
		reason = err
	default:
		reason = errors.New("GATEWAY_DRIVER is disabled")
	}

	d.log.WarnContext(ctx, "payment gateway disabled, checkouts will fail", logger.Error(reason))
	disabled := gateway.Disabled(reason)
	d.gw, d.parser = disabled, disabled
	return nil
}

// initPayments builds the payment service with the receipt mailer.
func (d *dependencies) initPayments(ctx context.Context) error {
	if err := d.initGateway(ctx); err != nil {
		return err
	}

	var pcfg payment.Config
	if err := config.Load(&pcfg); err != nil {
		return err
	}
	var ecfg email.Config
	if err := config.Load(&ecfg); err != nil {
		return err
	}
	sender, err := email.NewSender(ecfg)
	if err != nil {
		return err
	}
	if !ecfg.UsesPostmark() {
		d.log.InfoContext(ctx, "postmark not configured, receipts are written to disk", slog.String("dir", ecfg.DevDir))
	}

	nonceKey, err := secrets.DeriveKey([]byte(d.cfg.AppSecret), secrets.PurposePaymentNonce)
	if err != nil {
		return err
	}
	d.payments, err = payment.NewService(pcfg, d.members, d.gw, d.txs, nonceKey,
		payment.WithLogger(d.log),
		payment.WithNotifier(billing.NewReceiptMailer(sender, d.log)),
		payment.WithRecorder(d.metrics))
	return err
}

// router assembles the HTTP surface.
func (d *dependencies) router(readinessTimeout time.Duration) (http.Handler, error) {
	webhookKey, err := d.cfg.webhookKey()
	if err != nil {
		return nil, err
	}
	opts := []billing.Option{
		billing.WithMemberships(d.members),
		billing.WithWebhookSecret(webhookKey),
		billing.WithPollInterval(d.cfg.PollInterval),
	}
	if d.limits != nil {
		limiter, err := ratelimiter.NewBucket(d.limits, d.cfg.CheckoutRate)
		if err != nil {
			return nil, err
		}
		opts = append(opts, billing.WithCheckoutLimiter(limiter))
	}
	payments := billing.New(d.payments, d.parser, d.log, opts...)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer, handler.Instrument(d.log, d.metrics.ObserveHTTP))

	r.Get("/health/live", httpserver.Liveness())
	r.Get("/health/ready", httpserver.Readiness(readinessTimeout, d.log, d.checks))
	r.Handle("/metrics", d.metrics.Handler())

	memberships := entitlement.New(d.members, d.log, entitlement.WithAdminToken(d.cfg.AdminToken))
	r.Mount("/v1", memberships.Handle())
	if d.cfg.AdminToken != "" {
		r.Mount("/internal/v1", memberships.Admin())
	}
	r.Mount("/v1/payments", payments.Handle())
	r.Get("/payments/return", payments.ReturnPage())
	r.Post("/webhooks/payments", payments.Webhook())
	return r, nil
}

// close releases connections in reverse order of creation.
func (d *dependencies) close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			d.log.WarnContext(ctx, "failed to close dependency", logger.Error(err))
		}
	}
}
