package parser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"cv-agent-go/internal/constants"
)

const validCVJSON = `{
  "Name": "Jane Smith",
  "Contact Information": {"email": "jane@example.com", "phone": "+1 555-0000", "address": "not mentioned"},
  "Professional Summary": "Backend engineer.",
  "Experience": [],
  "Education": [],
  "Skills": ["Go"],
  "Certifications": "not mentioned",
  "Languages": ["English"]
}`

// mockChatModel 可编程的ChatModel：前failBefore次调用返回坏响应，之后返回goodContent
type mockChatModel struct {
	callCount   int
	failBefore  int
	badContent  string
	goodContent string
	err         error
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	m.callCount++
	if m.err != nil {
		return nil, m.err
	}
	content := m.goodContent
	if m.callCount <= m.failBefore {
		content = m.badContent
	}
	return &schema.Message{Role: "assistant", Content: content}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("stream not supported in mock")
}

func (m *mockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

func TestExtractStructuredFirstAttemptSuccess(t *testing.T) {
	mock := &mockChatModel{goodContent: validCVJSON}
	extractor := NewLLMCVExtractor(mock)

	structured, err := extractor.ExtractStructured(context.Background(), "raw cv text")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.callCount)

	name, ok := structured.Field("Name")
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", name)
}

func TestExtractStructuredRecoversOnLaterAttempt(t *testing.T) {
	mock := &mockChatModel{
		failBefore:  2,
		badContent:  "this is not json at all",
		goodContent: validCVJSON,
	}
	extractor := NewLLMCVExtractor(mock, WithMaxAttempts(3))

	structured, err := extractor.ExtractStructured(context.Background(), "raw cv text")
	require.NoError(t, err)
	assert.Equal(t, 3, mock.callCount)
	assert.True(t, structured.Has("Languages"))
}

func TestExtractStructuredExhaustsBudget(t *testing.T) {
	mock := &mockChatModel{
		failBefore: 100,
		badContent: `{"Name": "only one key"}`,
	}
	extractor := NewLLMCVExtractor(mock, WithMaxAttempts(3))

	_, err := extractor.ExtractStructured(context.Background(), "raw cv text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLLMAttemptsExhausted)
	assert.Equal(t, 3, mock.callCount)
}

func TestExtractStructuredTransportErrorConsumesAttempts(t *testing.T) {
	mock := &mockChatModel{err: errors.New("connection refused")}
	extractor := NewLLMCVExtractor(mock, WithMaxAttempts(2))

	_, err := extractor.ExtractStructured(context.Background(), "raw cv text")
	assert.ErrorIs(t, err, ErrLLMAttemptsExhausted)
	assert.Equal(t, 2, mock.callCount)
}

func TestExtractStructuredAcceptsFencedJSON(t *testing.T) {
	mock := &mockChatModel{goodContent: "Here is the result:\n```json\n" + validCVJSON + "\n```"}
	extractor := NewLLMCVExtractor(mock)

	structured, err := extractor.ExtractStructured(context.Background(), "raw cv text")
	require.NoError(t, err)
	assert.True(t, structured.Has("Skills"))
}

func TestBuildExtractionPromptContents(t *testing.T) {
	prompt := BuildExtractionPrompt("SOME RAW CV TEXT")

	assert.Contains(t, prompt, "SOME RAW CV TEXT")
	assert.Contains(t, prompt, "yyyy-mm-dd")
	assert.Contains(t, prompt, "'not mentioned'")
	for _, section := range constants.RequiredCVSections {
		assert.Contains(t, prompt, fmt.Sprintf("%q", section))
	}
}

func TestExtractStructuredExhaustionMarksActiveSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "extract-cv")

	mock := &mockChatModel{failBefore: 100, badContent: "junk"}
	extractor := NewLLMCVExtractor(mock, WithMaxAttempts(2))

	_, err := extractor.ExtractStructured(ctx, "raw cv text")
	require.ErrorIs(t, err, ErrLLMAttemptsExhausted)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	errorType := ""
	for _, attr := range ended[0].Attributes() {
		if string(attr.Key) == "error.type" {
			errorType = attr.Value.AsString()
		}
	}
	assert.Equal(t, "validation", errorType)
}

func TestNextRetryStateTransitions(t *testing.T) {
	// 成功是吸收态
	s := nextRetryState(retryState{attempt: 2}, true, 3)
	assert.True(t, s.succeeded)
	assert.Equal(t, s, nextRetryState(s, false, 3))

	// 预算耗尽是吸收态
	s = nextRetryState(retryState{attempt: 3}, false, 3)
	assert.True(t, s.exhausted)
	assert.Equal(t, s, nextRetryState(s, true, 3))

	// 预算内失败继续尝试
	s = nextRetryState(retryState{attempt: 1}, false, 3)
	assert.False(t, s.succeeded)
	assert.False(t, s.exhausted)
}
