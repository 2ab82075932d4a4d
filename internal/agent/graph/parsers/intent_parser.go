package parsers

import (
	"strings"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

// maxLabelLen bounds what is worth comparing against the label set.
const maxLabelLen = 64

// NormalizeLabel trims surrounding whitespace and lower-cases a provider answer.
func NormalizeLabel(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseIntent maps a provider answer onto the label set. Anything outside it,
// including an empty answer, is IntentUnclassified.
func ParseIntent(raw string) model.Intent {
	label := NormalizeLabel(raw)
	if label == "" || len(label) > maxLabelLen {
		return model.IntentUnclassified
	}
	intent := model.Intent(label)
	if !intent.Valid() {
		return model.IntentUnclassified
	}
	return intent
}

// FallbackIntent routes on keywords in query, checked in order:
// "detail" or "item" selects order_details, "order" selects order_status,
// anything else is faq.
func FallbackIntent(query string) model.Intent {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "detail"), strings.Contains(q, "item"):
		return model.IntentOrderDetails
	case strings.Contains(q, "order"):
		return model.IntentOrderStatus
	default:
		return model.IntentFAQ
	}
}

// ResolveIntent returns the provider's label when it is valid and the
// keyword fallback for query otherwise. The result is always routable.
func ResolveIntent(label, query string) model.Intent {
	if intent := ParseIntent(label); intent != model.IntentUnclassified {
		return intent
	}
	return FallbackIntent(query)
}
