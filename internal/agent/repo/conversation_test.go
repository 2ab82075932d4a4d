package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (*RedisConversationRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisConversationRepository(rdb, ttl), mr
}

func TestRedisConversationRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, 10*time.Minute)

	_, ok, err := r.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.False(t, ok)

	s := model.NewConversationState("thread-1", "q2")
	intent := model.IntentOrderStatus
	out := "a2"
	s.Classification = &intent
	s.Output = &out
	s.AddTurn("q1", "a1", 3)
	s.AddTurn("q2", "a2", 3)
	s.Context = map[string]any{"last_order_id": "abc"}
	require.NoError(t, r.Save(ctx, s))

	assert.Equal(t, 10*time.Minute, mr.TTL("conversation:thread-1:state"))
	assert.Equal(t, 10*time.Minute, mr.TTL("conversation:thread-1:messages"))

	got, ok, err := r.Load(ctx, "thread-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "q2", got.Input)
	require.NotNil(t, got.Classification)
	assert.Equal(t, model.IntentOrderStatus, *got.Classification)
	assert.Equal(t, "a2", got.OutputText())
	assert.Equal(t, []model.Turn{{User: "q1", Agent: "a1"}, {User: "q2", Agent: "a2"}}, got.History)
	assert.Equal(t, "abc", got.Context["last_order_id"])
}

func TestRedisConversationRepositorySaveReplacesHistory(t *testing.T) {
	ctx := context.Background()
	r, _ := newRedisRepo(t, 0)

	s := model.NewConversationState("t", "q")
	for _, q := range []string{"1", "2", "3", "4"} {
		s.AddTurn(q, "a"+q, 3)
		require.NoError(t, r.Save(ctx, s))
	}

	got, ok, err := r.Load(ctx, "t")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.History, 3)
	assert.Equal(t, "2", got.History[0].User)
}

func TestRedisConversationRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Minute)

	s := model.NewConversationState("t", "q")
	s.AddTurn("q", "a", 3)
	require.NoError(t, r.Save(ctx, s))
	require.NoError(t, r.Delete(ctx, "t"))

	assert.False(t, mr.Exists("conversation:t:state"))
	assert.False(t, mr.Exists("conversation:t:messages"))
}

func TestRedisConversationRepositoryUnavailable(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRepo(t, time.Minute)
	mr.Close()

	_, _, err := r.Load(ctx, "t")
	require.Error(t, err)
	var appErr *errx.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, errx.RedisErrorMessage, appErr.Message)
}
