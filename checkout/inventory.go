package checkout

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hoangthienclub/sagakit"
)

// InventoryService keeps the product catalog and active reservations in
// memory. Reservations are all-or-nothing: a reserve call that cannot be
// satisfied in full leaves no partial holds behind, so a failed reserve never
// needs compensation.
type InventoryService struct {
	logger zerolog.Logger

	mu           sync.Mutex
	products     map[string]*Product
	reservations map[string]Reservation
}

// NewInventoryService creates the service with the default catalog.
func NewInventoryService(logger zerolog.Logger) *InventoryService {
	return &InventoryService{
		logger: logger,
		products: map[string]*Product{
			"PROD-001": {ID: "PROD-001", Name: "Laptop", Stock: 10},
			"PROD-002": {ID: "PROD-002", Name: "Mouse", Stock: 50},
			"PROD-003": {ID: "PROD-003", Name: "Keyboard", Stock: 30},
		},
		reservations: make(map[string]Reservation),
	}
}

// ReserveStock holds the requested quantities for the order. Every item is
// validated before any stock is touched.
func (s *InventoryService) ReserveStock(_ context.Context, orderID string, items []OrderItem) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		product, ok := s.products[item.ProductID]
		if !ok {
			return nil, sagakit.Errorf(sagakit.KindNotFound, "Sản phẩm %s không tồn tại", item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, sagakit.Errorf(sagakit.KindInsufficientStock,
				"Không đủ hàng cho %s. Còn lại: %d, yêu cầu: %d", product.Name, product.Stock, item.Quantity)
		}
	}

	reservations := make([]Reservation, 0, len(items))
	for _, item := range items {
		product := s.products[item.ProductID]
		product.Stock -= item.Quantity

		reservation := Reservation{
			ID:        "RES-" + orderID + "-" + item.ProductID,
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Status:    ReservationStatusHeld,
		}
		s.reservations[reservation.ID] = reservation
		reservations = append(reservations, reservation)

		s.logger.Info().
			Str("order_id", orderID).
			Str("product_id", item.ProductID).
			Int("quantity", item.Quantity).
			Int("remaining", product.Stock).
			Msg("stock reserved")
	}
	return reservations, nil
}

// ReleaseStock returns held quantities to the catalog. Reservations that are
// unknown or already released are skipped silently.
func (s *InventoryService) ReleaseStock(_ context.Context, reservations []Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, reservation := range reservations {
		held, ok := s.reservations[reservation.ID]
		if !ok {
			continue
		}
		delete(s.reservations, reservation.ID)

		if product, ok := s.products[held.ProductID]; ok {
			product.Stock += held.Quantity
			s.logger.Info().
				Str("order_id", held.OrderID).
				Str("product_id", held.ProductID).
				Int("quantity", held.Quantity).
				Msg("stock released")
		}
	}
	return nil
}

// ConfirmReservations marks held stock as committed after the order settles.
func (s *InventoryService) ConfirmReservations(_ context.Context, reservations []Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, reservation := range reservations {
		if held, ok := s.reservations[reservation.ID]; ok {
			held.Status = ReservationStatusConfirmed
			s.reservations[reservation.ID] = held
		}
	}
	return nil
}

// StockOf reports the remaining stock for a product.
func (s *InventoryService) StockOf(productID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return 0, false
	}
	return product.Stock, true
}

// ActiveReservations returns the number of outstanding holds.
func (s *InventoryService) ActiveReservations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}
