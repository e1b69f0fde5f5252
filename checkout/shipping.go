package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/hoangthienclub/sagakit"
)

// ShippingService keeps shipments in memory.
type ShippingService struct {
	logger    zerolog.Logger
	shipments *xsync.MapOf[string, *Shipment]
	rejected  *xsync.MapOf[string, struct{}]
}

// NewShippingService creates an empty shipping service.
func NewShippingService(logger zerolog.Logger) *ShippingService {
	return &ShippingService{
		logger:    logger,
		shipments: xsync.NewMapOf[string, *Shipment](),
		rejected:  xsync.NewMapOf[string, struct{}](),
	}
}

// InjectFailure makes CreateShipment fail for the given customer, simulating
// a carrier rejection. Used to exercise the shipping rollback path.
func (s *ShippingService) InjectFailure(customerID string) {
	s.rejected.Store(customerID, struct{}{})
}

// CreateShipment books a delivery for the order.
func (s *ShippingService) CreateShipment(_ context.Context, input ShipmentInput) (*Shipment, error) {
	if _, ok := s.rejected.Load(input.CustomerID); ok {
		return nil, sagakit.NewError(sagakit.KindShipmentRejected, "Đơn vị vận chuyển từ chối nhận đơn hàng")
	}

	now := time.Now()
	shipment := &Shipment{
		ID:                "SHIP-" + uuid.NewString(),
		OrderID:           input.OrderID,
		CustomerID:        input.CustomerID,
		Items:             append([]OrderItem(nil), input.Items...),
		Status:            ShipmentStatusCreated,
		EstimatedDelivery: now.Add(72 * time.Hour),
		CreatedAt:         now,
	}
	s.shipments.Store(shipment.ID, shipment)

	s.logger.Info().
		Str("shipment_id", shipment.ID).
		Str("order_id", shipment.OrderID).
		Time("estimated_delivery", shipment.EstimatedDelivery).
		Msg("shipment created")
	return shipment, nil
}

// CancelShipment cancels a booked delivery. Cancelling an unknown or already
// cancelled shipment is a no-op.
func (s *ShippingService) CancelShipment(_ context.Context, shipmentID string) error {
	shipment, ok := s.shipments.Load(shipmentID)
	if !ok || shipment.Status == ShipmentStatusCancelled {
		return nil
	}

	shipment.Status = ShipmentStatusCancelled
	s.logger.Info().Str("shipment_id", shipmentID).Msg("shipment cancelled")
	return nil
}

// GetShipment returns a shipment by ID.
func (s *ShippingService) GetShipment(_ context.Context, shipmentID string) (*Shipment, error) {
	shipment, ok := s.shipments.Load(shipmentID)
	if !ok {
		return nil, sagakit.Errorf(sagakit.KindNotFound, "Không tìm thấy đơn vận chuyển %s", shipmentID)
	}
	return shipment, nil
}
