package checkout

import "time"

// OrderItem is one product line of an order.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Order is a customer order held by the order service.
type Order struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customerId"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Reservation pins stock for one order item until the order settles.
type Reservation struct {
	ID        string `json:"reservationId"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
}

// Payment is a processed charge.
type Payment struct {
	ID          string    `json:"paymentId"`
	OrderID     string    `json:"orderId"`
	CustomerID  string    `json:"customerId"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processedAt"`
}

// Shipment is a created delivery.
type Shipment struct {
	ID                string      `json:"shipmentId"`
	OrderID           string      `json:"orderId"`
	CustomerID        string      `json:"customerId"`
	Items             []OrderItem `json:"items"`
	Status            string      `json:"status"`
	EstimatedDelivery time.Time   `json:"estimatedDelivery"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// Product is a catalog entry with its remaining stock.
type Product struct {
	ID    string `json:"productId"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// Entity statuses.
const (
	OrderStatusCreated = "CREATED"

	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusRefunded  = "REFUNDED"

	ShipmentStatusCreated   = "CREATED"
	ShipmentStatusCancelled = "CANCELLED"

	ReservationStatusHeld      = "HELD"
	ReservationStatusConfirmed = "CONFIRMED"
)

// CreateOrderInput is the forward input of the order service.
type CreateOrderInput struct {
	CustomerID  string
	Items       []OrderItem
	TotalAmount float64
}

// PaymentInput is the forward input of the payment service.
type PaymentInput struct {
	OrderID     string
	CustomerID  string
	TotalAmount float64
}

// ShipmentInput is the forward input of the shipping service.
type ShipmentInput struct {
	OrderID    string
	CustomerID string
	Items      []OrderItem
}
