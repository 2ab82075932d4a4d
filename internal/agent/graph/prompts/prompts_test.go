package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

func TestRenderClassify(t *testing.T) {
	msgs, err := RenderClassify(context.Background(), "Where is my {order}?", model.CandidateIntents)
	require.NoError(t, err)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "You are a helpful intent classifier.", msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t,
		"Classify the user's query into one of these intents: faq, order_status, refund_status, review, order_details. "+
			"Respond with only the intent word, nothing else. Here is the query: Where is my {order}?",
		msgs[1].Content)
}

func TestRenderClassifyNeedsCandidates(t *testing.T) {
	_, err := RenderClassify(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestRenderFormat(t *testing.T) {
	msgs, err := RenderFormat(context.Background(), "Order x status: delivered\nPurchased: today")
	require.NoError(t, err)

	assert.Equal(t, "You rephrase agent answers to sound natural, easy to read, and friendly for end users.", msgs[0].Content)
	assert.Equal(t, "Please rephrase the following text:\nOrder x status: delivered\nPurchased: today", msgs[1].Content)
}
