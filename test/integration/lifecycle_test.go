package integration

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	identitypg "github.com/infoshop/orderflow/internal/identity/postgres"
	invapp "github.com/infoshop/orderflow/internal/inventory/application"
	invdomain "github.com/infoshop/orderflow/internal/inventory/domain"
	invpg "github.com/infoshop/orderflow/internal/inventory/infrastructure/postgres"
	"github.com/infoshop/orderflow/internal/notification"
	notifkafka "github.com/infoshop/orderflow/internal/notification/kafka"
	orderapp "github.com/infoshop/orderflow/internal/order/application"
	"github.com/infoshop/orderflow/internal/order/domain"
	orderkafka "github.com/infoshop/orderflow/internal/order/infrastructure/kafka"
	orderpg "github.com/infoshop/orderflow/internal/order/infrastructure/postgres"
	"github.com/infoshop/orderflow/internal/schema"
	"github.com/infoshop/orderflow/pkg/idempotency"
	"github.com/infoshop/orderflow/pkg/outbox"
)

const eventsTopic = "order.events"

type captureMailer struct {
	ch chan notification.Email
}

func (m *captureMailer) Send(_ context.Context, email notification.Email) error {
	m.ch <- email
	return nil
}

func waitEmail(t *testing.T, ch chan notification.Email) notification.Email {
	t.Helper()
	select {
	case email := <-ch:
		return email
	case <-time.After(90 * time.Second):
		t.Fatal("timed out waiting for notification email")
		return notification.Email{}
	}
}

// Exercises the whole pipeline against real backends: order creation decrements
// stock and commits an outbox row, the relay ships it to kafka, the consumer
// dedups through redis and emails the owner, and payment repeats the loop.
func TestOrderLifecycleEndToEnd(t *testing.T) {
	if os.Getenv("ORDERFLOW_INTEGRATION") == "" {
		t.Skip("set ORDERFLOW_INTEGRATION to run container-backed tests")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, schema.Ensure(ctx, pool))

	_, err = pool.Exec(ctx, `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`,
		"user-1", "Amina Ben Salah", "amina@example.com")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO products (id, name, category, price, count_in_stock) VALUES ($1, $2, $3, $4, $5)`,
		"p-1", "Ceramic vase", "Pottery", 40, 10)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ledger := invapp.NewLedger(log, invpg.NewRepository(log, pool))
	repo := orderpg.NewRepository(log, pool)
	svc := orderapp.NewService(log, repo, ledger, orderapp.Config{RequirePaymentBeforeDelivery: true})

	writer := orderkafka.NewWriter(env.Brokers)
	t.Cleanup(func() { _ = writer.Close() })
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), outbox.NewDispatcher(log, writer, eventsTopic), "itest-relay")

	opts, err := redis.ParseURL(env.RedisURL)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	mailer := &captureMailer{ch: make(chan notification.Email, 4)}
	notifier := notification.NewDispatcher(log, identitypg.NewDirectory(pool), mailer)
	consumer := notifkafka.NewConsumer(log, env.Brokers, eventsTopic, "itest-notifier", notifier, idempotency.NewStore(rdb, time.Hour))

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go func() { _ = relay.Run(runCtx) }()
	go func() { _ = consumer.Run(runCtx) }()

	o, err := svc.CreateOrder(ctx, "user-1",
		[]domain.LineItem{{ProductID: "p-1", Name: "Ceramic vase", Quantity: 2, UnitPrice: decimal.NewFromInt(40)}},
		domain.Address{FullName: "Amina Ben Salah", Street: "12 Rue de Carthage", City: "Tunis", PostalCode: "1001", Country: "TN"},
		"PayPal",
		domain.PriceBreakdown{
			Items:    decimal.NewFromInt(80),
			Shipping: decimal.NewFromInt(10),
			Tax:      decimal.NewFromInt(5),
			Total:    decimal.NewFromInt(95),
		})
	require.NoError(t, err)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count_in_stock FROM products WHERE id = 'p-1'`).Scan(&remaining))
	require.Equal(t, 8, remaining)

	created := waitEmail(t, mailer.ch)
	require.Contains(t, created.Subject, "New Order "+o.ID)
	require.Contains(t, created.To, "amina@example.com")
	require.True(t, strings.Contains(created.HTML, "Ceramic vase"))

	_, err = svc.ConfirmPayment(ctx, o.ID, domain.PaymentDetails{
		TransactionID: "txn-1",
		Status:        "COMPLETED",
		PayerEmail:    "amina@example.com",
	})
	require.NoError(t, err)

	paid := waitEmail(t, mailer.ch)
	require.Contains(t, paid.Subject, "Payment received for order "+o.ID)

	require.Eventually(t, func() bool {
		var unsent int
		if err := pool.QueryRow(ctx, `SELECT count(*) FROM outbox WHERE status <> 'sent'`).Scan(&unsent); err != nil {
			return false
		}
		return unsent == 0
	}, 30*time.Second, 500*time.Millisecond, "outbox should drain completely")

	_, err = svc.ConfirmDelivery(ctx, o.ID)
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPaid, got.PaymentState)
	require.Equal(t, domain.DeliveryDelivered, got.DeliveryState)
	require.NotNil(t, got.DeliveredAt)

	select {
	case email := <-mailer.ch:
		t.Fatalf("unexpected extra email: %q", email.Subject)
	case <-time.After(3 * time.Second):
	}
}

// Two concurrent buyers fight over the last units; exactly one order wins and
// the counter never goes negative.
func TestConcurrentReservationAgainstPostgres(t *testing.T) {
	if os.Getenv("ORDERFLOW_INTEGRATION") == "" {
		t.Skip("set ORDERFLOW_INTEGRATION to run container-backed tests")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, schema.Ensure(ctx, pool))

	_, err = pool.Exec(ctx, `INSERT INTO products (id, name, category, price, count_in_stock) VALUES ('p-1', 'Kilim rug', 'Textiles', 200, 3)`)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ledger := invapp.NewLedger(log, invpg.NewRepository(log, pool))

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			errs <- ledger.Reserve(ctx, []invdomain.Reservation{{ProductID: "p-1", Quantity: 2}})
		}()
	}

	won := 0
	for i := 0; i < workers; i++ {
		if err := <-errs; err == nil {
			won++
		} else {
			var insufficient *invdomain.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
		}
	}
	require.Equal(t, 1, won)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count_in_stock FROM products WHERE id = 'p-1'`).Scan(&remaining))
	require.Equal(t, 1, remaining)
}
