package tools

import (
	"context"
	"fmt"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

func notFoundMessage(orderID string) string {
	return fmt.Sprintf("No order found for ID: %s.", orderID)
}

func statusBlock(o model.Order) string {
	return fmt.Sprintf("Order %s status: %s\nPurchased: %s\nEstimated delivery: %s",
		o.ID, o.Status, o.PurchaseTimestamp, o.EstimatedDelivery)
}

// OrderStatus reports status, purchase time and delivery estimate.
func OrderStatus(ctx context.Context, query string, h model.CommerceHandle) (string, error) {
	id, ok := ExtractOrderID(query)
	if !ok {
		return InvalidOrderIDMessage, nil
	}
	order, found, err := h.Order(ctx, id)
	if err != nil {
		return "", err
	}
	if !found {
		return notFoundMessage(id), nil
	}
	return statusBlock(order), nil
}
