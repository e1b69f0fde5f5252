package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/hoangthienclub/sagakit"
)

// OrderService keeps orders in memory.
type OrderService struct {
	logger zerolog.Logger
	orders *xsync.MapOf[string, *Order]
}

// NewOrderService creates an empty order service.
func NewOrderService(logger zerolog.Logger) *OrderService {
	return &OrderService{
		logger: logger,
		orders: xsync.NewMapOf[string, *Order](),
	}
}

// CreateOrder registers a new order and returns it.
func (s *OrderService) CreateOrder(_ context.Context, input CreateOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		return nil, sagakit.NewError(sagakit.KindValidation, "Đơn hàng phải có ít nhất một sản phẩm")
	}

	order := &Order{
		ID:          "ORD-" + uuid.NewString(),
		CustomerID:  input.CustomerID,
		Items:       append([]OrderItem(nil), input.Items...),
		TotalAmount: input.TotalAmount,
		Status:      OrderStatusCreated,
		CreatedAt:   time.Now(),
	}
	s.orders.Store(order.ID, order)

	s.logger.Info().Str("order_id", order.ID).Str("customer_id", order.CustomerID).Msg("order created")
	return order, nil
}

// CancelOrder removes an order. Cancelling an unknown order is a no-op.
func (s *OrderService) CancelOrder(_ context.Context, orderID string) error {
	if _, ok := s.orders.LoadAndDelete(orderID); ok {
		s.logger.Info().Str("order_id", orderID).Msg("order cancelled")
	}
	return nil
}

// GetOrder returns the authoritative order record by ID.
func (s *OrderService) GetOrder(_ context.Context, orderID string) (*Order, error) {
	order, ok := s.orders.Load(orderID)
	if !ok {
		return nil, sagakit.Errorf(sagakit.KindNotFound, "Không tìm thấy đơn hàng %s", orderID)
	}
	return order, nil
}
