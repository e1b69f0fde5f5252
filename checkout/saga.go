package checkout

import (
	"context"

	"github.com/hoangthienclub/sagakit"
)

// BuildCheckoutSaga assembles the centrally orchestrated checkout saga:
// create the order, reserve stock, charge the customer, book the shipment.
// The initial context must carry KeyCustomerID, KeyItems and KeyTotalAmount;
// each step merges its output into the shared context, so a successful run
// ends with KeyOrderID, KeyReservations, KeyPaymentID and KeyShipmentID
// accumulated alongside them.
func BuildCheckoutSaga(services Services, opts ...sagakit.Option) *sagakit.Orchestrator {
	saga := sagakit.New("checkout", opts...)

	saga.AddStep("create-order",
		func(ctx context.Context, sc *sagakit.Context) (map[string]any, error) {
			customerID, _ := sagakit.ValueAs[string](sc, KeyCustomerID)
			items, _ := sagakit.ValueAs[[]OrderItem](sc, KeyItems)
			totalAmount, _ := sagakit.ValueAs[float64](sc, KeyTotalAmount)

			order, err := services.Orders.CreateOrder(ctx, CreateOrderInput{
				CustomerID:  customerID,
				Items:       items,
				TotalAmount: totalAmount,
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{KeyOrderID: order.ID, KeyOrder: order}, nil
		},
		func(ctx context.Context, sc *sagakit.Context) error {
			orderID, _ := sagakit.ValueAs[string](sc, KeyOrderID)
			return services.Orders.CancelOrder(ctx, orderID)
		})

	saga.AddStep("reserve-inventory",
		func(ctx context.Context, sc *sagakit.Context) (map[string]any, error) {
			orderID, _ := sagakit.ValueAs[string](sc, KeyOrderID)
			items, _ := sagakit.ValueAs[[]OrderItem](sc, KeyItems)

			reservations, err := services.Inventory.ReserveStock(ctx, orderID, items)
			if err != nil {
				return nil, err
			}
			return map[string]any{KeyReservations: reservations}, nil
		},
		func(ctx context.Context, sc *sagakit.Context) error {
			reservations, _ := sagakit.ValueAs[[]Reservation](sc, KeyReservations)
			return services.Inventory.ReleaseStock(ctx, reservations)
		})

	saga.AddStep("process-payment",
		func(ctx context.Context, sc *sagakit.Context) (map[string]any, error) {
			orderID, _ := sagakit.ValueAs[string](sc, KeyOrderID)
			customerID, _ := sagakit.ValueAs[string](sc, KeyCustomerID)
			totalAmount, _ := sagakit.ValueAs[float64](sc, KeyTotalAmount)

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
		func(ctx context.Context, sc *sagakit.Context) error {
			paymentID, _ := sagakit.ValueAs[string](sc, KeyPaymentID)
			return services.Payments.RefundPayment(ctx, paymentID)
		})

	saga.AddStep("create-shipment",
		func(ctx context.Context, sc *sagakit.Context) (map[string]any, error) {
			orderID, _ := sagakit.ValueAs[string](sc, KeyOrderID)
			customerID, _ := sagakit.ValueAs[string](sc, KeyCustomerID)
			items, _ := sagakit.ValueAs[[]OrderItem](sc, KeyItems)

			shipment, err := services.Shipping.CreateShipment(ctx, ShipmentInput{
				OrderID:    orderID,
				CustomerID: customerID,
				Items:      items,
			})
			if err != nil {
				return nil, err
			}

			// The order has settled; turn the holds into committed stock.
			if reservations, ok := sagakit.ValueAs[[]Reservation](sc, KeyReservations); ok {
				if err := services.Inventory.ConfirmReservations(ctx, reservations); err != nil {
					return nil, err
				}
			}
			return map[string]any{KeyShipmentID: shipment.ID, KeyShipment: shipment}, nil
		},
		func(ctx context.Context, sc *sagakit.Context) error {
			shipmentID, _ := sagakit.ValueAs[string](sc, KeyShipmentID)
			return services.Shipping.CancelShipment(ctx, shipmentID)
		})

	return saga
}

// NewCheckoutContext builds the initial context for one checkout run.
func NewCheckoutContext(customerID string, items []OrderItem, totalAmount float64) *sagakit.Context {
	return sagakit.NewContextFrom(map[string]any{
		KeyCustomerID:  customerID,
		KeyItems:       items,
		KeyTotalAmount: totalAmount,
	})
}
