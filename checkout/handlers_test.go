package checkout

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangthienclub/sagakit"
)

func newCheckoutBus(t *testing.T, services Services, opts ...RegistryOption) *sagakit.EventBus {
	t.Helper()
	bus := sagakit.NewEventBus(zerolog.Nop())
	_, err := RegisterSagaHandlers(bus, services, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return bus
}

func TestChoreographyFullSuccessEventOrder(t *testing.T) {
	spies := newSpyServices()
	bus := newCheckoutBus(t, spies.Services)

	SubmitOrder(context.Background(), bus, CreateOrderInput{
		CustomerID:  "CUST-001",
		Items:       defaultItems(),
		TotalAmount: 16000000,
	})

	// The history is exactly the forward chain, in order, no failures.
	assert.Equal(t, []string{
		EventOrderCreated,
		EventOrderCreatedSuccess,
		EventInventoryReserved,
		EventPaymentCompleted,
		EventOrderCompleted,
	}, bus.EventTypes())

	// The terminal event's payload accumulated the whole saga state.
	history := bus.History()
	final := history[len(history)-1]
	require.Equal(t, EventOrderCompleted, final.Type)
	assert.NotEmpty(t, final.Data[KeyOrderID])
	assert.NotEmpty(t, final.Data[KeyPaymentID])
	assert.NotEmpty(t, final.Data[KeyShipmentID])
	assert.Len(t, final.Data[KeyReservations], 2)

	stock, _ := spies.inventory.StockOf("PROD-001")
	assert.Equal(t, 8, stock)
}

func TestChoreographyPaymentFailureCompensates(t *testing.T) {
	spies := newSpyServices()
	bus := newCheckoutBus(t, spies.Services)

	SubmitOrder(context.Background(), bus, CreateOrderInput{
		CustomerID:  FailingCustomerID,
		Items:       defaultItems(),
		TotalAmount: 16000000,
	})

	assert.Equal(t, []string{
		EventOrderCreated,
		EventOrderCreatedSuccess,
		EventInventoryReserved,
		EventPaymentCompletedFailed,
	}, bus.EventTypes())

	history := bus.History()
	final := history[len(history)-1]
	assert.Equal(t, "Thẻ tín dụng không hợp lệ hoặc không đủ số dư", final.Data[KeyError])

	// Payment never completed, so no refund; inventory and order are undone
	// exactly once each, last-completed-first.
	assert.Equal(t, 0, spies.count("refund-payment"))
	assert.Equal(t, 1, spies.count("release-stock"))
	assert.Equal(t, 1, spies.count("cancel-order"))
	assert.Equal(t, []string{
		"create-order", "reserve-stock", "process-payment", "release-stock", "cancel-order",
	}, *spies.calls)

	stock, _ := spies.inventory.StockOf("PROD-001")
	assert.Equal(t, 10, stock)
	assert.Equal(t, 0, spies.inventory.ActiveReservations())
}

func TestChoreographyInsufficientStockCancelsOrderOnly(t *testing.T) {
	spies := newSpyServices()
	bus := newCheckoutBus(t, spies.Services)

	SubmitOrder(context.Background(), bus, CreateOrderInput{
		CustomerID:  "CUST-002",
		Items:       []OrderItem{{ProductID: "PROD-003", Quantity: 100}},
		TotalAmount: 5000000,
	})

	assert.Equal(t, []string{
		EventOrderCreated,
		EventOrderCreatedSuccess,
		EventInventoryReservedFailed,
	}, bus.EventTypes())

	assert.Equal(t, []string{"create-order", "reserve-stock", "cancel-order"}, *spies.calls)
}

func TestChoreographyShippingFailureRunsFullRollback(t *testing.T) {
	spies := newSpyServices()
	spies.shipping.InjectFailure("CUST-004")
	bus := newCheckoutBus(t, spies.Services)

	SubmitOrder(context.Background(), bus, CreateOrderInput{
		CustomerID:  "CUST-004",
		Items:       defaultItems(),
		TotalAmount: 16000000,
	})

	assert.Equal(t, []string{
		EventOrderCreated,
		EventOrderCreatedSuccess,
		EventInventoryReserved,
		EventPaymentCompleted,
		EventShippingCreatedFailed,
	}, bus.EventTypes())

	assert.Equal(t, []string{
		"create-order", "reserve-stock", "process-payment", "create-shipment",
		"refund-payment", "release-stock", "cancel-order",
	}, *spies.calls)

	stock, _ := spies.inventory.StockOf("PROD-001")
	assert.Equal(t, 10, stock)
}

func TestChoreographyVerificationUsesAuthoritativeState(t *testing.T) {
	spies := newSpyServices()
	bus := newCheckoutBus(t, spies.Services, WithStateVerification())

	// Create the order through the service, then inject a mid-chain event
	// whose payload claims a tampered amount and item list.
	order, err := spies.orders.GetOrder(context.Background(), mustCreateOrder(t, spies.orders))
	require.NoError(t, err)

	reservations, err := spies.inventory.ReserveStock(context.Background(), order.ID, order.Items)
	require.NoError(t, err)

	bus.Publish(context.Background(), EventInventoryReserved, map[string]any{
		KeyOrderID:      order.ID,
		KeyCustomerID:   order.CustomerID,
		KeyItems:        order.Items,
		KeyReservations: reservations,
		KeyTotalAmount:  1.0, // tampered
	})

	// The payment handler re-fetched the order and charged its real total.
	history := bus.History()
	var paymentEvent *sagakit.Event
	for i := range history {
		if history[i].Type == EventPaymentCompleted {
			paymentEvent = &history[i]
			break
		}
	}
	require.NotNil(t, paymentEvent)
	payment, ok := paymentEvent.Data[KeyPayment].(*Payment)
	require.True(t, ok)
	assert.Equal(t, 16000000.0, payment.Amount)
}

func TestChoreographyWithoutVerificationTrustsPayload(t *testing.T) {
	spies := newSpyServices()
	bus := newCheckoutBus(t, spies.Services)

	orderID := mustCreateOrder(t, spies.orders)
	reservations, err := spies.inventory.ReserveStock(context.Background(), orderID, defaultItems())
	require.NoError(t, err)

	bus.Publish(context.Background(), EventInventoryReserved, map[string]any{
		KeyOrderID:      orderID,
		KeyCustomerID:   "CUST-001",
		KeyItems:        defaultItems(),
		KeyReservations: reservations,
		KeyTotalAmount:  1.0,
	})

	history := bus.History()
	var paymentEvent *sagakit.Event
	for i := range history {
		if history[i].Type == EventPaymentCompleted {
			paymentEvent = &history[i]
			break
		}
	}
	require.NotNil(t, paymentEvent)
	payment, ok := paymentEvent.Data[KeyPayment].(*Payment)
	require.True(t, ok)
	assert.Equal(t, 1.0, payment.Amount)
}

func mustCreateOrder(t *testing.T, orders *OrderService) string {
	t.Helper()
	order, err := orders.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  "CUST-001",
		Items:       defaultItems(),
		TotalAmount: 16000000,
	})
	require.NoError(t, err)
	return order.ID
}
