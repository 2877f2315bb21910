package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"cv-agent-go/internal/types"
)

// PDFTextLayer 按页提取PDF文本层
type PDFTextLayer interface {
	PageTexts(ctx context.Context, filePath string) ([]string, error)
}

// ScannedPDFOCR 对扫描件执行整篇OCR
type ScannedPDFOCR interface {
	ExtractScanned(ctx context.Context, filePath string) (string, error)
}

// WordExtractor 提取Word文档文本，失败降级为空
type WordExtractor interface {
	Extract(ctx context.Context, filePath string) string
}

// CVTextExtractor 文件到纯文本的入口。根据扩展名分流，
// PDF先探测第一页文本层决定走OCR还是直接提取。
type CVTextExtractor struct {
	pdf    PDFTextLayer
	ocr    ScannedPDFOCR
	word   WordExtractor
	logger *log.Logger
}

// NewCVTextExtractor 组装文本提取器
func NewCVTextExtractor(pdf PDFTextLayer, ocr ScannedPDFOCR, word WordExtractor, logger *log.Logger) *CVTextExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CVTextExtractor{
		pdf:    pdf,
		ocr:    ocr,
		word:   word,
		logger: logger,
	}
}

// Extract 从文件提取纯文本。空文本是合法结果（提取退化不致命），
// 只有无法识别的文件类型会返回错误。
func (e *CVTextExtractor) Extract(ctx context.Context, filePath string) (string, types.ExtractionMethod, error) {
	switch types.DetectFileKind(filePath) {
	case types.FileKindPDF:
		return e.extractPDF(ctx, filePath)
	case types.FileKindWord:
		return e.word.Extract(ctx, filePath), types.ExtractionDirect, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, filePath)
	}
}

func (e *CVTextExtractor) extractPDF(ctx context.Context, filePath string) (string, types.ExtractionMethod, error) {
	pages, err := e.pdf.PageTexts(ctx, filePath)
	if err != nil {
		// 文本层读不出来按扫描件处理，与空白首页同路径
		e.logger.Printf("Error reading PDF: %v", err)
		pages = nil
	}

	if e.isScanned(pages) {
		text, err := e.ocr.ExtractScanned(ctx, filePath)
		if err != nil {
			e.logger.Printf("警告: OCR提取失败，降级为空文本: %v", err)
			return "", types.ExtractionOCR, nil
		}
		return text, types.ExtractionOCR, nil
	}

	var nonEmpty []string
	for _, page := range pages {
		if page != "" {
			nonEmpty = append(nonEmpty, page)
		}
	}
	return strings.Join(nonEmpty, "\n"), types.ExtractionDirect, nil
}

// isScanned 只看第一页：文本层为空白（纯空白符）即判定整本为扫描件
func (e *CVTextExtractor) isScanned(pages []string) bool {
	if len(pages) == 0 {
		return true
	}
	return strings.TrimSpace(pages[0]) == ""
}
