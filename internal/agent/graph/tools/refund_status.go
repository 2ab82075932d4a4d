package tools

import (
	"context"
	"fmt"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// RefundStatus infers refund state from the payment rows. A zero total is
// reported as a full refund.
func RefundStatus(ctx context.Context, query string, h model.CommerceHandle) (string, error) {
	id, ok := ExtractOrderID(query)
	if !ok {
		return InvalidOrderIDMessage, nil
	}
	payments, err := h.Payments(ctx, id)
	if err != nil {
		return "", err
	}
	if len(payments) == 0 {
		return fmt.Sprintf("No payment info for order %s.", id), nil
	}
	total := paidTotal(payments)
	if total == 0 {
		return fmt.Sprintf("Order %s was fully refunded.", id), nil
	}
	return fmt.Sprintf("Order %s was paid %.2f, refund status unknown.", id, total), nil
}
