package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	errx "github.com/Chative-commerce-agent/server/internal/core/error"
)

// maxEmbedBatch is the Gemini API limit on contents per embed request.
const maxEmbedBatch = 100

// GeminiEmbedder implements embedding.Embedder over Models.EmbedContent.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	modelName := e.model
	options := embedding.GetCommonOptions(&embedding.Options{Model: &modelName}, opts...)
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, t := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, modelName, contents, nil)
		if err != nil {
			return nil, errx.WrapProvider(fmt.Errorf("embed content: %w", err))
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, errx.WrapProvider(fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(contents)))
		}
		for _, emb := range resp.Embeddings {
			vec := make([]float64, len(emb.Values))
			for i, v := range emb.Values {
				vec[i] = float64(v)
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

func (e *GeminiEmbedder) GetType() string {
	return "Gemini"
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)
