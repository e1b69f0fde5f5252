package checkout

// Event types of the choreographed checkout saga. The forward chain is
// ORDER_CREATED → ORDER_CREATED_SUCCESS → INVENTORY_RESERVED →
// PAYMENT_COMPLETED → ORDER_COMPLETED; each step publishes its own failure
// event instead when its action fails.
const (
	EventOrderCreated            = "ORDER_CREATED"
	EventOrderCreatedSuccess     = "ORDER_CREATED_SUCCESS"
	EventOrderCreatedFailed      = "ORDER_CREATED_FAILED"
	EventInventoryReserved       = "INVENTORY_RESERVED"
	EventInventoryReservedFailed = "INVENTORY_RESERVED_FAILED"
	EventPaymentCompleted        = "PAYMENT_COMPLETED"
	EventPaymentCompletedFailed  = "PAYMENT_COMPLETED_FAILED"
	EventOrderCompleted          = "ORDER_COMPLETED"
	EventShippingCreatedFailed   = "SHIPPING_CREATED_FAILED"
)

// Keys of the saga context and event payloads.
const (
	KeyCustomerID   = "customerId"
	KeyItems        = "items"
	KeyTotalAmount  = "totalAmount"
	KeyOrderID      = "orderId"
	KeyOrder        = "order"
	KeyReservations = "reservations"
	KeyPaymentID    = "paymentId"
	KeyPayment      = "payment"
	KeyShipmentID   = "shipmentId"
	KeyShipment     = "shipment"
	KeyError        = "error"
)

func stringValue(data map[string]any, key string) string {
	value, _ := data[key].(string)
	return value
}

func floatValue(data map[string]any, key string) float64 {
	value, _ := data[key].(float64)
	return value
}

func itemsValue(data map[string]any) []OrderItem {
	items, _ := data[KeyItems].([]OrderItem)
	return items
}

func reservationsValue(data map[string]any) []Reservation {
	reservations, _ := data[KeyReservations].([]Reservation)
	return reservations
}
