package types

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// FileKind 上传文件的识别类型
type FileKind string

const (
	FileKindPDF     FileKind = "pdf"
	FileKindWord    FileKind = "word"
	FileKindUnknown FileKind = "unknown"
)

// ExtractionMethod 文本提取策略
type ExtractionMethod string

const (
	ExtractionDirect ExtractionMethod = "direct"
	ExtractionOCR    ExtractionMethod = "ocr"
)

// DetectFileKind 根据扩展名识别文件类型
func DetectFileKind(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FileKindPDF
	case ".doc", ".docx":
		return FileKindWord
	default:
		return FileKindUnknown
	}
}

// StructuredCV LLM返回并通过键校验的结构化输出。
// 同一逻辑字段可能是字符串，也可能是嵌套对象/数组，消费方不得假设固定形态。
type StructuredCV map[string]any

// Has 判断顶层键是否存在
func (s StructuredCV) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Field 返回顶层字段值
func (s StructuredCV) Field(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// FlattenToText 将动态形态的字段值归一化为存储用的文本。
// 字符串原样返回；其余类型序列化为规范JSON（map键有序，嵌套结构不丢失）。
func FlattenToText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
