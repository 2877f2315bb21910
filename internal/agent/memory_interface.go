package agent

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// ChatMemory 按会话键存取一条有序消息列表。
// 使用方式固定为 load -> 本地修改 -> store，历史不在存储侧增量修改。
type ChatMemory interface {
	// GetHistory 获取指定会话的聊天历史。会话不存在时返回空切片和 nil 错误。
	GetHistory(ctx context.Context, sessionID string) ([]*schema.Message, error)

	// SetHistory 用给定列表整体替换指定会话的聊天历史。
	SetHistory(ctx context.Context, sessionID string, messages []*schema.Message) error

	// ClearHistory 清除指定会话的聊天历史。会话不存在时静默成功。
	ClearHistory(ctx context.Context, sessionID string) error
}

// InMemoryChatMemory 是 ChatMemory 的内存实现，仅用于测试和单机场景。
type InMemoryChatMemory struct {
	mu        sync.RWMutex
	histories map[string][]*schema.Message
}

// NewInMemoryChatMemory 创建一个新的 InMemoryChatMemory 实例
func NewInMemoryChatMemory() *InMemoryChatMemory {
	return &InMemoryChatMemory{
		histories: make(map[string][]*schema.Message),
	}
}

// GetHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) GetHistory(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history, ok := m.histories[sessionID]
	if !ok {
		return []*schema.Message{}, nil
	}
	// 返回副本，防止调用方的本地修改穿透到存储
	cpy := make([]*schema.Message, len(history))
	copy(cpy, history)
	return cpy, nil
}

// SetHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) SetHistory(ctx context.Context, sessionID string, messages []*schema.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpy := make([]*schema.Message, len(messages))
	copy(cpy, messages)
	m.histories[sessionID] = cpy
	return nil
}

// ClearHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) ClearHistory(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.histories, sessionID)
	return nil
}
