package parser

import "errors"

var (
	// ErrUnsupportedFileType 文件扩展名无法识别，该请求直接失败，不重试
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrLLMAttemptsExhausted 尝试预算内未拿到通过校验的结构化输出，
	// 终态错误，调用方不得再次重试
	ErrLLMAttemptsExhausted = errors.New("llm failed to return structured data after multiple attempts")
)
