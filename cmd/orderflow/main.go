package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/infoshop/orderflow/internal/config"
	identitypg "github.com/infoshop/orderflow/internal/identity/postgres"
	invapp "github.com/infoshop/orderflow/internal/inventory/application"
	invpg "github.com/infoshop/orderflow/internal/inventory/infrastructure/postgres"
	"github.com/infoshop/orderflow/internal/notification"
	notifkafka "github.com/infoshop/orderflow/internal/notification/kafka"
	orderapp "github.com/infoshop/orderflow/internal/order/application"
	orderhttp "github.com/infoshop/orderflow/internal/order/infrastructure/http"
	orderkafka "github.com/infoshop/orderflow/internal/order/infrastructure/kafka"
	orderpg "github.com/infoshop/orderflow/internal/order/infrastructure/postgres"
	"github.com/infoshop/orderflow/internal/reporting"
	reportingpg "github.com/infoshop/orderflow/internal/reporting/postgres"
	"github.com/infoshop/orderflow/internal/schema"
	"github.com/infoshop/orderflow/pkg/idempotency"
	"github.com/infoshop/orderflow/pkg/logging"
	"github.com/infoshop/orderflow/pkg/outbox"
	"github.com/infoshop/orderflow/pkg/shutdown"
	"github.com/infoshop/orderflow/pkg/tracing"
)

func main() {
	log := logging.New(config.ServiceName)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load()

	tp, err := tracing.Init(ctx, config.ServiceName, cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := schema.Ensure(ctx, pool); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}
	if cfg.SeedDemoData {
		if err := schema.SeedDemo(ctx, pool); err != nil {
			log.Error("demo seed failed", "err", err)
			os.Exit(1)
		}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	// Lifecycle service over the inventory ledger and the order repository.
	ledger := invapp.NewLedger(log, invpg.NewRepository(log, pool))
	orderRepo := orderpg.NewRepository(log, pool)
	svc := orderapp.NewService(log, orderRepo, ledger, orderapp.Config{
		AutoConfirmOnCreate:          cfg.AutoConfirmOnCreate,
		RequirePaymentBeforeDelivery: cfg.RequirePaymentBeforeDelivery,
		ReleaseStockOnDelete:         cfg.ReleaseStockOnDelete,
	})

	// Outbox relay: order events committed with the aggregate go out to
	// kafka from here, after the owning transaction is durable.
	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), dispatch, "orderflow-relay")

	// Notification consumer: broker back in, dedup, email out.
	var mailer notification.Mailer
	if cfg.SMTPAddr != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		mailer = notification.NewLogMailer(log)
	}
	notifier := notification.NewDispatcher(log, identitypg.NewDirectory(pool), mailer)
	seen := idempotency.NewStore(rdb, cfg.IdemTTL)
	consumer := notifkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.OrderEventsTopic, cfg.NotifierGroupID, notifier, seen)

	// HTTP surface.
	rep := reporting.NewService(log, reportingpg.NewStore(pool))
	handler := orderhttp.NewHandler(log, svc, rep)
	r := chi.NewRouter()
	r.Mount("/api", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return relay.Run(gctx) })
	g.Go(func() error { return consumer.Run(gctx) })
	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("orderflow stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("orderflow shutdown complete")
}
