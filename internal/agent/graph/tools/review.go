package tools

import (
	"context"
	"fmt"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// Review reports the score and message of the order's first review.
func Review(ctx context.Context, query string, h model.CommerceHandle) (string, error) {
	id, ok := ExtractOrderID(query)
	if !ok {
		return InvalidOrderIDMessage, nil
	}
	reviews, err := h.Reviews(ctx, id)
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return fmt.Sprintf("No review found for order %s.", id), nil
	}
	r := reviews[0]
	return fmt.Sprintf("Review for order %s:\nScore: %d\nMessage: %s", id, r.Score, reviewMessage(r)), nil
}
