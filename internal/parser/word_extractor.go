package parser

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// WordTextExtractor 按文档顺序拼接Word段落文本。
// 任何失败都降级为空字符串，绝不让提取中断上传流程。
type WordTextExtractor struct {
	logger *log.Logger
}

// NewWordTextExtractor 创建Word文本提取器
func NewWordTextExtractor(logger *log.Logger) *WordTextExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &WordTextExtractor{logger: logger}
}

// Extract 提取Word文档的段落文本，段落间以换行分隔
func (w *WordTextExtractor) Extract(ctx context.Context, filePath string) string {
	file, err := os.Open(filePath)
	if err != nil {
		w.logger.Printf("Error reading Word document: %v", err)
		return ""
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		w.logger.Printf("Error reading Word document: %v", err)
		return ""
	}

	doc, err := docx.Parse(file, info.Size())
	if err != nil {
		w.logger.Printf("Error reading Word document: %v", err)
		return ""
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, para.String())
		}
	}
	return strings.Join(paragraphs, "\n")
}
