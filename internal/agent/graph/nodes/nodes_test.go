package nodes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
)

func TestDispatchClosesHandle(t *testing.T) {
	h := &nopHandle{}
	var gotQuery string
	d := stubDispatcher(func(_ context.Context, intent model.Intent, q string, _ model.CommerceHandle) (string, error) {
		gotQuery = q
		return "answer for " + string(intent), nil
	})

	out := dispatch(context.Background(), d, &nopStore{handle: h}, time.Second, model.IntentReview, "q")
	assert.Equal(t, "answer for review", out)
	assert.Equal(t, "q", gotQuery)
	assert.True(t, h.closed)
}

func TestDispatchConvertsErrors(t *testing.T) {
	h := &nopHandle{}
	d := stubDispatcher(func(context.Context, model.Intent, string, model.CommerceHandle) (string, error) {
		return "", errors.New("no such table: olist_orders_dataset")
	})

	out := dispatch(context.Background(), d, &nopStore{handle: h}, time.Second, model.IntentOrderStatus, "q")
	assert.Equal(t, "Error during tool dispatch: no such table: olist_orders_dataset", out)
	assert.True(t, h.closed)
}

func TestDispatchConvertsPanics(t *testing.T) {
	h := &nopHandle{}
	d := stubDispatcher(func(context.Context, model.Intent, string, model.CommerceHandle) (string, error) {
		panic("boom")
	})

	out := dispatch(context.Background(), d, &nopStore{handle: h}, time.Second, model.IntentOrderStatus, "q")
	assert.Equal(t, "Error during tool dispatch: boom", out)
	assert.True(t, h.closed)
}

func TestDispatchOpenFailure(t *testing.T) {
	called := false
	d := stubDispatcher(func(context.Context, model.Intent, string, model.CommerceHandle) (string, error) {
		called = true
		return "", nil
	})

	out := dispatch(context.Background(), d, &nopStore{openErr: errors.New("database is locked")}, time.Second, model.IntentFAQ, "q")
	assert.Equal(t, "Error during tool dispatch: database is locked", out)
	assert.False(t, called)
}

func TestDispatchTimeoutReachesLookup(t *testing.T) {
	d := stubDispatcher(func(ctx context.Context, _ model.Intent, _ string, _ model.CommerceHandle) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	out := dispatch(context.Background(), d, &nopStore{handle: &nopHandle{}}, 10*time.Millisecond, model.IntentFAQ, "q")
	assert.Equal(t, "Error during tool dispatch: context deadline exceeded", out)
}

func TestClassifierPreHandlerResetsTurn(t *testing.T) {
	s := model.NewConversationState("", "old")
	intent := model.IntentFAQ
	out := "old answer"
	s.Classification, s.ToolOutput, s.Output = &intent, &out, &out
	s.AddTurn("old", "old answer", 3)

	_, err := NewClassifierPreHandler()(context.Background(), model.QueryInput{ConversationID: "t", Query: "new"}, s)
	require.NoError(t, err)
	assert.Equal(t, "t", s.ThreadID)
	assert.Equal(t, "new", s.Input)
	assert.Nil(t, s.Classification)
	assert.Nil(t, s.ToolOutput)
	assert.Nil(t, s.Output)
	assert.Len(t, s.History, 1)
}

func TestPostHandlersRecordResults(t *testing.T) {
	ctx := context.Background()
	s := model.NewConversationState("t", "q")

	_, err := NewClassifierPostHandler()(ctx, model.IntentRefundStatus, s)
	require.NoError(t, err)
	_, err = NewDispatcherPostHandler()(ctx, "raw", s)
	require.NoError(t, err)
	_, err = NewFormatterPostHandler()(ctx, "pretty", s)
	require.NoError(t, err)

	require.NotNil(t, s.Classification)
	assert.Equal(t, model.IntentRefundStatus, *s.Classification)
	assert.Equal(t, "raw", *s.ToolOutput)
	assert.Equal(t, "pretty", s.OutputText())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "ab...", preview("abcdef", 2))
}
