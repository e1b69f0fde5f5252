package checkout

import (
	"context"

	"github.com/rs/zerolog"
)

// spyServices wraps the real in-memory services and records every forward and
// compensating call, in order, into a shared log.
type spyServices struct {
	Services
	calls *[]string

	orders    *OrderService
	inventory *InventoryService
	payments  *PaymentService
	shipping  *ShippingService
}

func newSpyServices() *spyServices {
	logger := zerolog.Nop()
	calls := &[]string{}
	s := &spyServices{
		calls:     calls,
		orders:    NewOrderService(logger),
		inventory: NewInventoryService(logger),
		payments:  NewPaymentService(logger),
		shipping:  NewShippingService(logger),
	}
	s.Services = Services{
		Orders:    &orderSpy{inner: s.orders, calls: calls},
		Inventory: &inventorySpy{inner: s.inventory, calls: calls},
		Payments:  &paymentSpy{inner: s.payments, calls: calls},
		Shipping:  &shippingSpy{inner: s.shipping, calls: calls},
	}
	return s
}

func (s *spyServices) count(call string) int {
	n := 0
	for _, c := range *s.calls {
		if c == call {
			n++
		}
	}
	return n
}

type orderSpy struct {
	inner *OrderService
	calls *[]string
}

func (s *orderSpy) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	*s.calls = append(*s.calls, "create-order")
	return s.inner.CreateOrder(ctx, input)
}

func (s *orderSpy) CancelOrder(ctx context.Context, orderID string) error {
	*s.calls = append(*s.calls, "cancel-order")
	return s.inner.CancelOrder(ctx, orderID)
}

func (s *orderSpy) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.inner.GetOrder(ctx, orderID)
}

type inventorySpy struct {
	inner *InventoryService
	calls *[]string
}

func (s *inventorySpy) ReserveStock(ctx context.Context, orderID string, items []OrderItem) ([]Reservation, error) {
	*s.calls = append(*s.calls, "reserve-stock")
	return s.inner.ReserveStock(ctx, orderID, items)
}

func (s *inventorySpy) ReleaseStock(ctx context.Context, reservations []Reservation) error {
	*s.calls = append(*s.calls, "release-stock")
	return s.inner.ReleaseStock(ctx, reservations)
}

func (s *inventorySpy) ConfirmReservations(ctx context.Context, reservations []Reservation) error {
	*s.calls = append(*s.calls, "confirm-reservations")
	return s.inner.ConfirmReservations(ctx, reservations)
}

type paymentSpy struct {
	inner *PaymentService
	calls *[]string
}

func (s *paymentSpy) ProcessPayment(ctx context.Context, input PaymentInput) (*Payment, error) {
	*s.calls = append(*s.calls, "process-payment")
	return s.inner.ProcessPayment(ctx, input)
}

func (s *paymentSpy) RefundPayment(ctx context.Context, paymentID string) error {
	*s.calls = append(*s.calls, "refund-payment")
	return s.inner.RefundPayment(ctx, paymentID)
}

type shippingSpy struct {
	inner *ShippingService
	calls *[]string
}

func (s *shippingSpy) CreateShipment(ctx context.Context, input ShipmentInput) (*Shipment, error) {
	*s.calls = append(*s.calls, "create-shipment")
	return s.inner.CreateShipment(ctx, input)
}

func (s *shippingSpy) CancelShipment(ctx context.Context, shipmentID string) error {
	*s.calls = append(*s.calls, "cancel-shipment")
	return s.inner.CancelShipment(ctx, shipmentID)
}
