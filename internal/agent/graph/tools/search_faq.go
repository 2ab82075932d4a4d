package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/retriever"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

const DefaultFAQTopK = 1

// NewSearchFAQ returns a lookup that joins the top-k FAQ matches with a
// blank line. The data handle is not used.
func NewSearchFAQ(r retriever.Retriever, topK int) Lookup {
	if topK <= 0 {
		topK = DefaultFAQTopK
	}
	return func(ctx context.Context, query string, _ model.CommerceHandle) (string, error) {
		docs, err := r.Retrieve(ctx, query, retriever.WithTopK(topK))
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(docs))
		for _, d := range docs {
			if d == nil {
				continue
			}
			parts = append(parts, d.Content)
		}
		if len(parts) == 0 {
			return NoFAQMessage, nil
		}
		return strings.Join(parts, "\n\n"), nil
	}
}
