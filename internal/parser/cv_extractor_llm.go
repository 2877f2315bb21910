package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/trace"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/internal/types"
)

// LLMCVExtractor 把原始CV文本交给LLM换取固定八键schema的结构化输出。
// 远端模型的格式不可靠，这里承担解析、键校验和有限重试。
type LLMCVExtractor struct {
	llmModel    model.ChatModel
	maxAttempts int
	callTimeout time.Duration
	logger      *log.Logger
}

// CVExtractorOption LLM抽取器的配置选项
type CVExtractorOption func(*LLMCVExtractor)

// WithMaxAttempts 设置尝试预算
func WithMaxAttempts(n int) CVExtractorOption {
	return func(e *LLMCVExtractor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithCallTimeout 设置单次LLM调用超时
func WithCallTimeout(d time.Duration) CVExtractorOption {
	return func(e *LLMCVExtractor) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// WithExtractorLogger 配置自定义日志记录器
func WithExtractorLogger(logger *log.Logger) CVExtractorOption {
	return func(e *LLMCVExtractor) {
		e.logger = logger
	}
}

// NewLLMCVExtractor 创建结构化抽取器
func NewLLMCVExtractor(llmModel model.ChatModel, options ...CVExtractorOption) *LLMCVExtractor {
	extractor := &LLMCVExtractor{
		llmModel:    llmModel,
		maxAttempts: constants.DefaultLLMMaxAttempts,
		callTimeout: 60 * time.Second,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// BuildExtractionPrompt 构造确定性的抽取提示词：精确键名、日期归一化规则、
// 缺失值占位符和完整的JSON示例
func BuildExtractionPrompt(rawText string) string {
	return fmt.Sprintf(`
Given the following text extracted from a CV:

'%s'

Please extract the following sections from the CV and return them as structured JSON.

Important Instructions:

Use the exact key names as specified below, including capitalization and spacing.
Ensure that all keys in the JSON output match these exactly.
All dates should be in the format 'yyyy-mm-dd'.
If only the month and year are provided, use '01' as the day (e.g., 'June 2020' becomes '2020-06-01').
If only the year is provided, use '01-01' as the day and month (e.g., '2020' becomes '2020-01-01').
If any section is not found, return it as 'not mentioned'.
The JSON structure should include the following keys:

"Name" (String)
"Contact Information" (Object with keys: "email", "phone", "address")
"Professional Summary" (String)
"Experience" (Array of objects with keys: "title", "company", "start_date", "end_date", "description")
"Education" (Array of objects with keys: "degree", "institution", "start_date", "end_date", "description")
"Skills" (Array of strings)
"Certifications" (Array of objects with keys: "name", "issuing_organization", "issue_date", "expiration_date")
"Languages" (Array of strings)

Example JSON Structure:
{
  "Name": "John Doe",
  "Contact Information": {
    "email": "john.doe@example.com",
    "phone": "+1 555-1234",
    "address": "123 Main St, Anytown, USA"
  },
  "Professional Summary": "Experienced software engineer with a focus on web development.",
  "Experience": [
    {
      "title": "Software Engineer",
      "company": "Tech Solutions",
      "start_date": "2019-01-01",
      "end_date": "2023-10-01",
      "description": "Developed and maintained web applications using Go and Hertz."
    }
  ],
  "Education": [
    {
      "degree": "B.Sc. in Computer Science",
      "institution": "State University",
      "start_date": "2013-09-01",
      "end_date": "2017-05-31",
      "description": "Graduated with honors."
    }
  ],
  "Skills": ["Go", "Python", "JavaScript", "SQL"],
  "Certifications": [
    {
      "name": "AWS Certified Solutions Architect",
      "issuing_organization": "Amazon",
      "issue_date": "2020-03-01",
      "expiration_date": "2023-03-01"
    }
  ],
  "Languages": ["English", "Spanish"]
}
Please ensure that your JSON output matches this structure exactly.
`, rawText)
}

// retryState 重试循环的显式状态：尝试中(n)、已成功、预算耗尽
type retryState struct {
	attempt   int
	succeeded bool
	exhausted bool
}

// nextRetryState 纯转移函数：根据本轮结果推进状态，与调用机制无关
func nextRetryState(s retryState, accepted bool, maxAttempts int) retryState {
	if s.succeeded || s.exhausted {
		return s
	}
	if accepted {
		return retryState{attempt: s.attempt, succeeded: true}
	}
	if s.attempt >= maxAttempts {
		return retryState{attempt: s.attempt, exhausted: true}
	}
	return retryState{attempt: s.attempt}
}

// ExtractStructured 带校验重试地获取结构化CV。
// 传输错误、解析失败、缺键都消耗一次尝试；首个通过校验的结果立即返回。
func (e *LLMCVExtractor) ExtractStructured(ctx context.Context, rawText string) (types.StructuredCV, error) {
	prompt := BuildExtractionPrompt(rawText)
	state := retryState{}

	for !state.succeeded && !state.exhausted {
		state.attempt++
		e.logger.Printf("Attempt %d to get LLM response.", state.attempt)

		structured, err := e.attemptOnce(ctx, prompt)
		if err != nil {
			e.logger.Printf("Attempt %d failed: %v", state.attempt, err)
			state = nextRetryState(state, false, e.maxAttempts)
			continue
		}

		state = nextRetryState(state, true, e.maxAttempts)
		e.logger.Printf("LLM response validation passed.")
		return structured, nil
	}

	// 预算耗尽是校验层面的终态失败，标记到当前span
	tracing.RecordError(trace.SpanFromContext(ctx), ErrLLMAttemptsExhausted, tracing.ErrorTypeValidation)
	return nil, ErrLLMAttemptsExhausted
}

// attemptOnce 单轮调用+解析+校验
func (e *LLMCVExtractor) attemptOnce(ctx context.Context, prompt string) (types.StructuredCV, error) {
	response, err := e.callLLM(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return e.parseStructuredResponse(response)
}

// callLLM 独立于会话历史的单轮调用：一条系统指令加用户提示词
func (e *LLMCVExtractor) callLLM(ctx context.Context, prompt string) (string, error) {
	messages := []*einoschema.Message{
		{Role: "system", Content: constants.ExtractionSystemPrompt},
		{Role: "user", Content: prompt},
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	response, err := e.llmModel.Generate(callCtx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM Generate failed: %w", err)
	}
	return response.Content, nil
}

// parseStructuredResponse 解析响应并做结构性校验。
// 只检查八个顶层键是否存在，不检查值的类型和内容。
func (e *LLMCVExtractor) parseStructuredResponse(response string) (types.StructuredCV, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("无法从LLM响应中提取有效的JSON")
	}

	var structured types.StructuredCV
	if err := json.Unmarshal([]byte(jsonStr), &structured); err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}

	var missing []string
	for _, section := range constants.RequiredCVSections {
		if !structured.Has(section) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("validation failed: missing sections %s", strings.Join(missing, ", "))
	}

	return structured, nil
}

// extractJSON 从文本中提取JSON（防止LLM返回的不是纯JSON）
func extractJSON(text string) string {
	// 尝试提取 ```json ... ``` 代码块中的内容
	re := regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	matches := re.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// 回退：寻找成对花括号包围的片段
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '{' {
			level++
		} else if text[i] == '}' {
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}
