// Package checkout implements the order → inventory → payment → shipping saga
// in both coordination styles on top of sagakit: BuildCheckoutSaga assembles
// the centrally orchestrated version, RegisterSagaHandlers the choreographed
// one. The four domain services are in-memory stand-ins with the narrow
// forward/compensation contract the saga relies on; compensations are
// idempotent in intent, so undoing an absent or already-reversed entity is a
// silent no-op rather than an error.
package checkout

import (
	"context"

	"github.com/rs/zerolog"
)

// OrderAPI is the order service contract used by the saga.
type OrderAPI interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// InventoryAPI is the inventory service contract used by the saga.
type InventoryAPI interface {
	ReserveStock(ctx context.Context, orderID string, items []OrderItem) ([]Reservation, error)
	ReleaseStock(ctx context.Context, reservations []Reservation) error
	ConfirmReservations(ctx context.Context, reservations []Reservation) error
}

// PaymentAPI is the payment service contract used by the saga.
type PaymentAPI interface {
	ProcessPayment(ctx context.Context, input PaymentInput) (*Payment, error)
	RefundPayment(ctx context.Context, paymentID string) error
}

// ShippingAPI is the shipping service contract used by the saga.
type ShippingAPI interface {
	CreateShipment(ctx context.Context, input ShipmentInput) (*Shipment, error)
	CancelShipment(ctx context.Context, shipmentID string) error
}

// Services bundles the four collaborators a checkout saga needs. Each
// instance is constructed explicitly and passed in; nothing here is a
// process-wide singleton.
type Services struct {
	Orders    OrderAPI
	Inventory InventoryAPI
	Payments  PaymentAPI
	Shipping  ShippingAPI
}

// NewServices builds the in-memory service set with the default catalog.
func NewServices(logger zerolog.Logger) Services {
	return Services{
		Orders:    NewOrderService(logger),
		Inventory: NewInventoryService(logger),
		Payments:  NewPaymentService(logger),
		Shipping:  NewShippingService(logger),
	}
}
