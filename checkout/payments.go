package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/hoangthienclub/sagakit"
)

// FailingCustomerID makes the payment service decline the charge, simulating
// an invalid card. Kept from the original system for failure-path testing.
const FailingCustomerID = "FAIL"

// PaymentService keeps processed payments in memory.
type PaymentService struct {
	logger   zerolog.Logger
	payments *xsync.MapOf[string, *Payment]
}

// NewPaymentService creates an empty payment service.
func NewPaymentService(logger zerolog.Logger) *PaymentService {
	return &PaymentService{
		logger:   logger,
		payments: xsync.NewMapOf[string, *Payment](),
	}
}

// ProcessPayment charges the customer for the order.
func (s *PaymentService) ProcessPayment(_ context.Context, input PaymentInput) (*Payment, error) {
	if input.CustomerID == FailingCustomerID {
		return nil, sagakit.NewError(sagakit.KindPaymentDeclined, "Thẻ tín dụng không hợp lệ hoặc không đủ số dư")
	}

	payment := &Payment{
		ID:          "PAY-" + uuid.NewString(),
		OrderID:     input.OrderID,
		CustomerID:  input.CustomerID,
		Amount:      input.TotalAmount,
		Status:      PaymentStatusCompleted,
		ProcessedAt: time.Now(),
	}
	s.payments.Store(payment.ID, payment)

	s.logger.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Float64("amount", payment.Amount).
		Msg("payment processed")
	return payment, nil
}

// RefundPayment reverses a charge. Refunding an unknown or already refunded
// payment is a no-op.
func (s *PaymentService) RefundPayment(_ context.Context, paymentID string) error {
	payment, ok := s.payments.Load(paymentID)
	if !ok || payment.Status == PaymentStatusRefunded {
		return nil
	}

	payment.Status = PaymentStatusRefunded
	s.logger.Info().
		Str("payment_id", paymentID).
		Float64("amount", payment.Amount).
		Msg("payment refunded")
	return nil
}

// GetPayment returns a payment by ID.
func (s *PaymentService) GetPayment(_ context.Context, paymentID string) (*Payment, error) {
	payment, ok := s.payments.Load(paymentID)
	if !ok {
		return nil, sagakit.Errorf(sagakit.KindNotFound, "Không tìm thấy thanh toán %s", paymentID)
	}
	return payment, nil
}
