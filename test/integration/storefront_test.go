package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fulfillapp "github.com/coalmart/storefront/internal/fulfillment/application"
	fulfilldomain "github.com/coalmart/storefront/internal/fulfillment/domain"
	fulfillkafka "github.com/coalmart/storefront/internal/fulfillment/infrastructure/kafka"
	fulfillpg "github.com/coalmart/storefront/internal/fulfillment/infrastructure/postgres"
	resapp "github.com/coalmart/storefront/internal/reservation/application"
	respg "github.com/coalmart/storefront/internal/reservation/infrastructure/postgres"
	stockapp "github.com/coalmart/storefront/internal/stock/application"
	stockdomain "github.com/coalmart/storefront/internal/stock/domain"
	stockpg "github.com/coalmart/storefront/internal/stock/infrastructure/postgres"
	"github.com/coalmart/storefront/pkg/logging"
	"github.com/coalmart/storefront/pkg/outbox"
)

const topic = "order.events"

// Requires a local docker daemon; gated so the unit suite stays fast.
func skipUnlessEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("STOREFRONT_INTEGRATION") == "" {
		t.Skip("set STOREFRONT_INTEGRATION=1 to run container-backed tests")
	}
}

func TestShoppingFlowAgainstPostgresAndKafka(t *testing.T) {
	skipUnlessEnabled(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(context.Background())

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, stockpg.EnsureSchema(ctx, pool))
	require.NoError(t, respg.EnsureSchema(ctx, pool))
	require.NoError(t, fulfillpg.EnsureSchema(ctx, pool))

	log := logging.New("integration-test")
	stockSvc := stockapp.NewService(stockpg.NewRepository(log, pool))
	cartSvc := resapp.NewService(respg.NewStore(log, pool), stockSvc, 0)
	orderSvc := fulfillapp.NewService(fulfillpg.NewRepository(log, pool), cartSvc, stockSvc)

	coal, err := stockSvc.AddProduct(ctx, stockdomain.Product{Name: "anthracite", PriceCents: 1500, InStock: 5})
	require.NoError(t, err)

	// Hold three units, leaving two on the shelf.
	require.NoError(t, cartSvc.AddToCart(ctx, 1, coal, 3))
	available, err := stockSvc.PeekAvailable(ctx, coal)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	// A second shopper cannot take more than what remains.
	err = cartSvc.AddToCart(ctx, 2, coal, 3)
	require.ErrorIs(t, err, stockdomain.ErrInsufficientStock)

	contact := fulfilldomain.Contact{
		FirstName: "Jana", LastName: "Novakova", Email: "jana@example.com",
		Country: "CZ", PostalCode: "11000", City: "Praha", AddressLine1: "Uhelna 12",
	}
	orderID, err := orderSvc.Checkout(ctx, 1, contact, "")
	require.NoError(t, err)

	// Conversion, not a second decrement.
	available, err = stockSvc.PeekAvailable(ctx, coal)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	reservations, err := cartSvc.ListReservations(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, reservations)

	orders, err := orderSvc.ListOutstandingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].Order.ID)
	assert.Equal(t, int64(4500), orders[0].TotalCents())

	// The outbox relay publishes the OrderPlaced row to kafka.
	writer := fulfillkafka.NewWriter(env.Brokers)
	defer writer.Close()

	relay := outbox.NewRelay(log, fulfillpg.NewOutboxStore(log, pool),
		outbox.NewDispatcher(log, writer, topic), "integration-relay")

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go func() { _ = relay.Run(relayCtx) }()

	reader := segkafka.NewReader(segkafka.ReaderConfig{
		Brokers:     env.Brokers,
		Topic:       topic,
		StartOffset: segkafka.FirstOffset,
	})
	defer reader.Close()

	readCtx, cancelRead := context.WithTimeout(ctx, time.Minute)
	defer cancelRead()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	var placed fulfilldomain.OrderPlaced
	require.NoError(t, json.Unmarshal(msg.Value, &placed))
	assert.Equal(t, orderID, placed.OrderID)
	assert.Equal(t, int64(1), placed.UserID)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 3, placed.Items[0].Quantity)
}
