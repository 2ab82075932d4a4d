package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// OrderDetails summarises an order: status block, customer, items with
// categories, payments and the first review. Empty sections are left out.
func OrderDetails(ctx context.Context, query string, h model.CommerceHandle) (string, error) {
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

	lines := []string{statusBlock(order)}

	cust, found, err := h.Customer(ctx, order.CustomerID)
	if err != nil {
		return "", err
	}
	if found {
		lines = append(lines, fmt.Sprintf("Customer %s in %s, %s", cust.UniqueID, cust.City, cust.State))
	}

	items, err := h.OrderItems(ctx, id)
	if err != nil {
		return "", err
	}
	if len(items) > 0 {
		lines = append(lines, "Items:")
		for _, it := range items {
			cat, err := categoryOf(ctx, h, it.ProductID)
			if err != nil {
				return "", err
			}
			lines = append(lines, fmt.Sprintf("  - %s (%s) from %s price %.2f", it.ProductID, cat, it.SellerID, it.Price))
		}
	}

	payments, err := h.Payments(ctx, id)
	if err != nil {
		return "", err
	}
	if len(payments) > 0 {
		var types []string
		for _, p := range payments {
			if !slices.Contains(types, p.Type) {
				types = append(types, p.Type)
			}
		}
		lines = append(lines, fmt.Sprintf("Payments: %.2f via %s", paidTotal(payments), strings.Join(types, ", ")))
	}

	reviews, err := h.Reviews(ctx, id)
	if err != nil {
		return "", err
	}
	if len(reviews) > 0 {
		r := reviews[0]
		lines = append(lines, fmt.Sprintf("Review: %d - %s", r.Score, reviewMessage(r)))
	}

	return strings.Join(lines, "\n"), nil
}

// categoryOf prefers the English translation. The raw category code is used only
// when no translation row exists; a blank translation reads as unknown.
func categoryOf(ctx context.Context, h model.CommerceHandle, productID string) (string, error) {
	p, found, err := h.Product(ctx, productID)
	if err != nil {
		return "", err
	}
	if !found || p.Category == nil || *p.Category == "" {
		return unknownCategory, nil
	}
	english, found, err := h.CategoryTranslation(ctx, *p.Category)
	if err != nil {
		return "", err
	}
	if !found {
		return *p.Category, nil
	}
	if english == "" {
		return unknownCategory, nil
	}
	return english, nil
}

func paidTotal(payments []model.Payment) float64 {
	var total float64
	for _, p := range payments {
		if p.Value != nil {
			total += *p.Value
		}
	}
	return total
}

func reviewMessage(r model.Review) string {
	if r.Message == nil || *r.Message == "" {
		return noCommentMessage
	}
	return *r.Message
}
