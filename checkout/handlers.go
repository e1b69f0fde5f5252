package checkout

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hoangthienclub/sagakit"
)

// RegistryOption configures RegisterSagaHandlers.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	verifyState bool
}

// WithStateVerification makes each handler re-fetch the authoritative order
// record by ID instead of trusting the event payload, guarding against stale
// or tampered event data. The control flow is unchanged.
func WithStateVerification() RegistryOption {
	return func(cfg *registryConfig) { cfg.verifyState = true }
}

// RegisterSagaHandlers wires the choreographed checkout saga onto the bus:
// one subscription per service reacting to the previous service's success
// event, plus one compensation subscription per failure event. With no
// central driver, the compensations triggered by each failure event are
// exactly the steps known by construction to have completed before it:
//
//	INVENTORY_RESERVED_FAILED  → cancel order
//	PAYMENT_COMPLETED_FAILED   → release stock, cancel order
//	SHIPPING_CREATED_FAILED    → refund payment, release stock, cancel order
//
// Publishing EventOrderCreated (see SubmitOrder) drives the whole saga.
func RegisterSagaHandlers(bus *sagakit.EventBus, services Services, logger zerolog.Logger, opts ...RegistryOption) (*sagakit.Flow, error) {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	flow := sagakit.NewFlow("checkout", logger)

	flow.Step(sagakit.FlowStep{
		Name:         "create-order",
		OnEvent:      EventOrderCreated,
		SuccessEvent: EventOrderCreatedSuccess,
		FailureEvent: EventOrderCreatedFailed,
		Action: func(ctx context.Context, event sagakit.Event) (map[string]any, error) {
			order, err := services.Orders.CreateOrder(ctx, CreateOrderInput{
				CustomerID:  stringValue(event.Data, KeyCustomerID),
				Items:       itemsValue(event.Data),
				TotalAmount: floatValue(event.Data, KeyTotalAmount),
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{KeyOrderID: order.ID, KeyOrder: order}, nil
		},
		Compensation: func(ctx context.Context, event sagakit.Event) error {
			return services.Orders.CancelOrder(ctx, stringValue(event.Data, KeyOrderID))
		},
	})

	flow.Step(sagakit.FlowStep{
		Name:         "reserve-inventory",
		OnEvent:      EventOrderCreatedSuccess,
		SuccessEvent: EventInventoryReserved,
		FailureEvent: EventInventoryReservedFailed,
		Action: func(ctx context.Context, event sagakit.Event) (map[string]any, error) {
			orderID := stringValue(event.Data, KeyOrderID)
			items := itemsValue(event.Data)
			if cfg.verifyState {
				order, err := services.Orders.GetOrder(ctx, orderID)
				if err != nil {
					return nil, err
				}
				items = order.Items
			}

			reservations, err := services.Inventory.ReserveStock(ctx, orderID, items)
			if err != nil {
				return nil, err
			}
			return map[string]any{KeyReservations: reservations}, nil
		},
		Compensation: func(ctx context.Context, event sagakit.Event) error {
			return services.Inventory.ReleaseStock(ctx, reservationsValue(event.Data))
		},
	})

	flow.Step(sagakit.FlowStep{
		Name:         "process-payment",
		OnEvent:      EventInventoryReserved,
		SuccessEvent: EventPaymentCompleted,
		FailureEvent: EventPaymentCompletedFailed,
		Action: func(ctx context.Context, event sagakit.Event) (map[string]any, error) {
			orderID := stringValue(event.Data, KeyOrderID)
			customerID := stringValue(event.Data, KeyCustomerID)
			totalAmount := floatValue(event.Data, KeyTotalAmount)
			if cfg.verifyState {
				order, err := services.Orders.GetOrder(ctx, orderID)
				if err != nil {
					return nil, err
				}
				customerID = order.CustomerID
				totalAmount = order.TotalAmount
			}

			payment, err := services.Payments.ProcessPayment(ctx, PaymentInput{
				OrderID:     orderID,
				CustomerID:  customerID,
				TotalAmount: totalAmount,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{KeyPaymentID: payment.ID, KeyPayment: payment}, nil
		},
		Compensation: func(ctx context.Context, event sagakit.Event) error {
			return services.Payments.RefundPayment(ctx, stringValue(event.Data, KeyPaymentID))
		},
	})

	flow.Step(sagakit.FlowStep{
		Name:         "create-shipment",
		OnEvent:      EventPaymentCompleted,
		SuccessEvent: EventOrderCompleted,
		FailureEvent: EventShippingCreatedFailed,
		Action: func(ctx context.Context, event sagakit.Event) (map[string]any, error) {
			orderID := stringValue(event.Data, KeyOrderID)
			customerID := stringValue(event.Data, KeyCustomerID)
			items := itemsValue(event.Data)
			if cfg.verifyState {
				order, err := services.Orders.GetOrder(ctx, orderID)
				if err != nil {
					return nil, err
				}
				customerID = order.CustomerID
				items = order.Items
			}

			shipment, err := services.Shipping.CreateShipment(ctx, ShipmentInput{
				OrderID:    orderID,
				CustomerID: customerID,
				Items:      items,
			})
			if err != nil {
				return nil, err
			}
			if err := services.Inventory.ConfirmReservations(ctx, reservationsValue(event.Data)); err != nil {
				return nil, err
			}
			return map[string]any{KeyShipmentID: shipment.ID, KeyShipment: shipment}, nil
		},
	})

	if err := flow.Register(bus); err != nil {
		return nil, err
	}
	return flow, nil
}

// SubmitOrder publishes the entry event that starts one choreographed
// checkout. It returns once the whole saga, success or rollback, has settled.
func SubmitOrder(ctx context.Context, bus *sagakit.EventBus, input CreateOrderInput) {
	bus.Publish(ctx, EventOrderCreated, map[string]any{
		KeyCustomerID:  input.CustomerID,
		KeyItems:       input.Items,
		KeyTotalAmount: input.TotalAmount,
	})
}
