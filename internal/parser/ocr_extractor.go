package parser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"

	"github.com/anthonynsimon/bild/effect"
	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// OCRPDFExtractor 扫描件处理链：逐页渲染为位图、灰度化加中值滤波去噪、
// 逐页OCR后按换行拼接。页间串行执行。
type OCRPDFExtractor struct {
	dpi        float64
	language   string
	medianSize float64
	logger     *log.Logger
}

// OCROption OCR提取器的配置选项
type OCROption func(*OCRPDFExtractor)

// WithOCRLanguage 设置tesseract语言包
func WithOCRLanguage(lang string) OCROption {
	return func(o *OCRPDFExtractor) {
		if lang != "" {
			o.language = lang
		}
	}
}

// WithOCRDPI 设置渲染分辨率
func WithOCRDPI(dpi int) OCROption {
	return func(o *OCRPDFExtractor) {
		if dpi > 0 {
			o.dpi = float64(dpi)
		}
	}
}

// WithOCRMedianSize 设置中值滤波窗口
func WithOCRMedianSize(size int) OCROption {
	return func(o *OCRPDFExtractor) {
		if size > 0 {
			o.medianSize = float64(size)
		}
	}
}

// WithOCRLogger 配置自定义日志记录器
func WithOCRLogger(logger *log.Logger) OCROption {
	return func(o *OCRPDFExtractor) {
		o.logger = logger
	}
}

// NewOCRPDFExtractor 创建扫描件OCR提取器
func NewOCRPDFExtractor(options ...OCROption) *OCRPDFExtractor {
	extractor := &OCRPDFExtractor{
		dpi:        300,
		language:   "eng",
		medianSize: 3,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractScanned 对整个PDF执行OCR。渲染不出任何页面时返回空文本，
// OCR后端不可用只记警告，调用方必须容忍空结果。
func (o *OCRPDFExtractor) ExtractScanned(ctx context.Context, filePath string) (string, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		o.logger.Printf("警告: 打开PDF用于渲染失败: %v", err)
		return "", nil
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if numPages == 0 {
		return "", nil
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(o.language); err != nil {
		o.logger.Printf("警告: 设置OCR语言 %s 失败: %v", o.language, err)
	}

	var buf bytes.Buffer
	for i := 0; i < numPages; i++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled during OCR: %w", ctx.Err())
		default:
		}

		pageText := o.ocrPage(doc, client, i)
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(pageText)
		o.logger.Printf("OCR on page %d completed.", i+1)
	}

	return buf.String(), nil
}

// ocrPage 渲染并识别单页，任何失败都降级为空字符串
func (o *OCRPDFExtractor) ocrPage(doc *fitz.Document, client *gosseract.Client, pageIndex int) string {
	img, err := doc.ImageDPI(pageIndex, o.dpi)
	if err != nil {
		o.logger.Printf("警告: 渲染第%d页失败: %v", pageIndex+1, err)
		return ""
	}

	cleaned := o.preprocess(img)

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, cleaned); err != nil {
		o.logger.Printf("警告: 编码第%d页图像失败: %v", pageIndex+1, err)
		return ""
	}

	if err := client.SetImageFromBytes(encoded.Bytes()); err != nil {
		o.logger.Printf("警告: 加载第%d页图像到OCR失败: %v", pageIndex+1, err)
		return ""
	}

	text, err := client.Text()
	if err != nil {
		o.logger.Printf("警告: OCR识别第%d页失败: %v", pageIndex+1, err)
		return ""
	}
	return text
}

// preprocess 灰度化并做中值滤波去噪
func (o *OCRPDFExtractor) preprocess(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	return effect.Median(gray, o.medianSize)
}
