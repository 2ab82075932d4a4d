package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisConversationRepository stores the scalar part of a conversation as one
// JSON value and the history window as a list, both refreshed with the TTL on
// every save.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationRepository) stateKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:state", conversationID)
}

func (r *RedisConversationRepository) historyKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

func (r *RedisConversationRepository) Save(ctx context.Context, state *model.ConversationState) error {
	snap := state.Clone()
	turns := snap.History
	snap.History = nil

	b, err := json.Marshal(snap)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", state.ThreadID).Msg("failed to marshal conversation state")
		return fmt.Errorf("marshal state: %w", err)
	}

	rows := make([]any, 0, len(turns))
	for _, t := range turns {
		tb, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal turn: %w", err)
		}
		rows = append(rows, tb)
	}

	sKey, hKey := r.stateKey(state.ThreadID), r.historyKey(state.ThreadID)
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, sKey, b, r.ttl)
	pipe.Del(ctx, hKey)
	if len(rows) > 0 {
		pipe.RPush(ctx, hKey, rows...)
		if r.ttl > 0 {
			pipe.Expire(ctx, hKey, r.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", sKey).Msg("failed to save conversation to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) Load(ctx context.Context, conversationID string) (*model.ConversationState, bool, error) {
	sKey := r.stateKey(conversationID)

	raw, err := r.rdb.Get(ctx, sKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		logx.Error().Err(err).Str("key", sKey).Msg("failed to load conversation state from redis")
		return nil, false, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, fmt.Errorf("unmarshal state: %w", err)
	}

	hKey := r.historyKey(conversationID)
	rows, err := r.rdb.LRange(ctx, hKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", hKey).Msg("failed to load conversation history from redis")
		return nil, false, errx.WrapRedis(err)
	}

	state.History = make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("conversationID", conversationID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, false, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		state.History = append(state.History, t)
	}
	state.ThreadID = conversationID
	return &state, true, nil
}

func (r *RedisConversationRepository) Delete(ctx context.Context, conversationID string) error {
	if err := r.rdb.Del(ctx, r.stateKey(conversationID), r.historyKey(conversationID)).Err(); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to delete conversation from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
