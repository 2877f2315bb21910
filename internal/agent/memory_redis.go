package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"cv-agent-go/internal/constants"
)

// RedisChatMemory 实现了 ChatMemory 接口，使用 Redis 持久化会话历史。
// 每个会话存一个 List，SetHistory 整体替换，与 load/mutate/store 的用法对应。
type RedisChatMemory struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration // 为0时不过期
}

// NewRedisChatMemory 创建一个新的 RedisChatMemory 实例。
// redisClient: 已连接配置好的 go-redis 客户端。
// ttl: 会话历史的过期时间，整体替换时刷新。
func NewRedisChatMemory(redisClient *redis.Client, ttl time.Duration) (*RedisChatMemory, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisChatMemory{
		redisClient: redisClient,
		keyPrefix:   constants.SessionKeyPrefix,
		ttl:         ttl,
	}, nil
}

// buildKey 为给定的会话ID构建 Redis 键
func (rcm *RedisChatMemory) buildKey(sessionID string) string {
	return rcm.keyPrefix + sessionID
}

// GetHistory 实现 ChatMemory 接口
func (rcm *RedisChatMemory) GetHistory(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	key := rcm.buildKey(sessionID)

	serializedMessages, err := rcm.redisClient.LRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []*schema.Message{}, nil // Key 不存在，返回空历史
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from redis for session %s: %w", sessionID, err)
	}

	messages := make([]*schema.Message, 0, len(serializedMessages))
	for _, sm := range serializedMessages {
		var msg schema.Message
		if err := json.Unmarshal([]byte(sm), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message for session %s: %w", sessionID, err)
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// SetHistory 实现 ChatMemory 接口。DEL加RPUSH放在一个事务管道里，
// 替换过程对读方保持原子。
func (rcm *RedisChatMemory) SetHistory(ctx context.Context, sessionID string, messages []*schema.Message) error {
	key := rcm.buildKey(sessionID)

	serialized := make([]interface{}, 0, len(messages))
	for _, message := range messages {
		if message == nil {
			return fmt.Errorf("cannot store nil message in chat history for session %s", sessionID)
		}
		data, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message for session %s: %w", sessionID, err)
		}
		serialized = append(serialized, data)
	}

	pipe := rcm.redisClient.TxPipeline()
	pipe.Del(ctx, key)
	if len(serialized) > 0 {
		pipe.RPush(ctx, key, serialized...)
		if rcm.ttl > 0 {
			pipe.Expire(ctx, key, rcm.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store chat history to redis for session %s: %w", sessionID, err)
	}
	return nil
}

// ClearHistory 实现 ChatMemory 接口
func (rcm *RedisChatMemory) ClearHistory(ctx context.Context, sessionID string) error {
	key := rcm.buildKey(sessionID)

	if err := rcm.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear chat history from redis for session %s: %w", sessionID, err)
	}
	return nil
}

var _ ChatMemory = (*RedisChatMemory)(nil)
