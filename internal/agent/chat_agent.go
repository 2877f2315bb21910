package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/storage/models"
)

// CVRecordSource 为聊天代理提供当前全部CV记录，按插入顺序返回。
type CVRecordSource interface {
	AllCVRecords(ctx context.Context) ([]models.CVRecord, error)
}

// ErrEmptyMessage 表示用户消息为空或仅含空白
var ErrEmptyMessage = fmt.Errorf("message cannot be empty")

// CVChatAgent 把会话存储、CV记录源和LLM串成一个回合制聊天代理。
// 每个回合：取历史 -> 注入CV上下文 -> 追加用户消息 -> 调LLM -> 整体写回。
type CVChatAgent struct {
	llmModel model.ChatModel
	memory   ChatMemory
	records  CVRecordSource
}

// NewCVChatAgent 创建聊天代理
func NewCVChatAgent(llmModel model.ChatModel, memory ChatMemory, records CVRecordSource) (*CVChatAgent, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("llm model cannot be nil")
	}
	if memory == nil {
		return nil, fmt.Errorf("chat memory cannot be nil")
	}
	if records == nil {
		return nil, fmt.Errorf("cv record source cannot be nil")
	}
	return &CVChatAgent{
		llmModel: llmModel,
		memory:   memory,
		records:  records,
	}, nil
}

// Chat 处理一轮用户消息并返回助手回复。
// 空白消息在触达LLM之前被拒绝。记录源读取失败不中断对话，
// 只是本轮不注入CV上下文。
func (a *CVChatAgent) Chat(ctx context.Context, sessionID string, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	history, err := a.memory.GetHistory(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	// 新会话以固定的系统消息开场
	if len(history) == 0 {
		history = append(history, &schema.Message{
			Role:    schema.RoleType("system"),
			Content: constants.ChatSystemSeed,
		})
	}

	records, err := a.records.AllCVRecords(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("读取CV记录失败，本轮跳过上下文注入")
		records = nil
	}
	history = EnsureCVContext(history, records)

	history = append(history, &schema.Message{
		Role:    schema.RoleType("user"),
		Content: message,
	})

	reply, err := a.llmModel.Generate(ctx, history)
	if err != nil {
		return "", fmt.Errorf("llm generate failed: %w", err)
	}

	history = append(history, reply)
	if err := a.memory.SetHistory(ctx, sessionID, history); err != nil {
		// 历史写回失败不吞掉回复，但要让调用方知道会话可能丢一轮
		logger.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("写回会话历史失败")
	}

	return reply.Content, nil
}
