package tools

import (
	"context"

	"github.com/cloudwego/eino/components/retriever"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// Lookup answers one intent. It performs a bounded number of point lookups
// against h, or a single similarity search, and returns user-facing text.
// Expected misses are text; errors are infrastructure faults.
type Lookup func(ctx context.Context, query string, h model.CommerceHandle) (string, error)

// Descriptions documents each intent's lookup, in the order they are offered
// to callers.
var Descriptions = map[model.Intent]string{
	model.IntentFAQ:          "Semantic search in the FAQ for general questions.",
	model.IntentOrderStatus:  "Look up order status by order_id.",
	model.IntentRefundStatus: "Check if an order has been refunded by order_id.",
	model.IntentReview:       "Retrieve review and score for an order by order_id.",
	model.IntentOrderDetails: "Retrieve comprehensive details for an order by order_id.",
}

// Dispatcher maps every routable intent to exactly one lookup.
type Dispatcher struct {
	lookups map[model.Intent]Lookup
}

// NewDispatcher wires the four order lookups and the FAQ search.
func NewDispatcher(faq retriever.Retriever, topK int) *Dispatcher {
	return &Dispatcher{lookups: map[model.Intent]Lookup{
		model.IntentFAQ:          NewSearchFAQ(faq, topK),
		model.IntentOrderStatus:  OrderStatus,
		model.IntentOrderDetails: OrderDetails,
		model.IntentRefundStatus: RefundStatus,
		model.IntentReview:       Review,
	}}
}

// Dispatch routes query to the lookup for intent. Intents outside the table
// get UnclassifiedMessage.
func (d *Dispatcher) Dispatch(ctx context.Context, intent model.Intent, query string, h model.CommerceHandle) (string, error) {
	lookup, ok := d.lookups[intent]
	if !ok {
		return UnclassifiedMessage, nil
	}
	return lookup(ctx, query, h)
}

// Handles reports whether intent has a lookup.
func (d *Dispatcher) Handles(intent model.Intent) bool {
	_, ok := d.lookups[intent]
	return ok
}
