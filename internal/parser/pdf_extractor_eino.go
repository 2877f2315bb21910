package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 按页提取文本层。
// 按页返回是扫描件判定（只看第一页）和逐页拼接的前提。
type EinoPDFTextExtractor struct {
	parser *pdf.PDFParser
	logger *log.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(logger *log.Logger) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.logger = logger
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器，配置为按页分割
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true, // 每页一个文档，便于单独检查第一页
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser: p,
		logger: log.New(io.Discard, "", 0),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// PageTexts 返回PDF各页的文本层内容，顺序与页序一致
func (e *EinoPDFTextExtractor) PageTexts(ctx context.Context, filePath string) ([]string, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file %s: %w", filePath, err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.parser.Parse(ctx, file,
		einoParser.WithURI(filePath),
		einoParser.WithExtraMeta(map[string]interface{}{
			"source_file_path": filePath,
		}),
	)

	duration := time.Since(startTime)
	if err != nil {
		e.logger.Printf("PDF文本层提取失败: %s (用时 %.2f秒)", err, duration.Seconds())
		return nil, fmt.Errorf("eino PDF parser failed for %s: %w", filePath, err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		pages = append(pages, doc.Content)
	}

	e.logger.Printf("PDF文本层提取完成: %d页 (用时 %.2f秒)", len(pages), duration.Seconds())
	return pages, nil
}
