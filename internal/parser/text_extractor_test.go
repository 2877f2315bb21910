package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/types"
)

type fakePDFLayer struct {
	pages []string
	err   error
}

func (f *fakePDFLayer) PageTexts(ctx context.Context, filePath string) ([]string, error) {
	return f.pages, f.err
}

type fakeOCR struct {
	text   string
	err    error
	called bool
}

func (f *fakeOCR) ExtractScanned(ctx context.Context, filePath string) (string, error) {
	f.called = true
	return f.text, f.err
}

type fakeWord struct {
	text   string
	called bool
}

func (f *fakeWord) Extract(ctx context.Context, filePath string) string {
	f.called = true
	return f.text
}

func TestExtractDigitalPDFSkipsOCR(t *testing.T) {
	pdf := &fakePDFLayer{pages: []string{"page one text", "", "page three"}}
	ocr := &fakeOCR{text: "should not be used"}
	extractor := NewCVTextExtractor(pdf, ocr, &fakeWord{}, nil)

	text, method, err := extractor.Extract(context.Background(), "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionDirect, method)
	assert.Equal(t, "page one text\npage three", text)
	assert.False(t, ocr.called)
}

func TestExtractScannedPDFUsesOCR(t *testing.T) {
	// 首页文本层空白即判定为扫描件，哪怕后面的页有文本
	pdf := &fakePDFLayer{pages: []string{"   \n\t ", "residual text"}}
	ocr := &fakeOCR{text: "ocr recovered text"}
	extractor := NewCVTextExtractor(pdf, ocr, &fakeWord{}, nil)

	text, method, err := extractor.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionOCR, method)
	assert.Equal(t, "ocr recovered text", text)
	assert.True(t, ocr.called)
}

func TestExtractPDFReadFailureFallsBackToOCR(t *testing.T) {
	pdf := &fakePDFLayer{err: errors.New("corrupt xref table")}
	ocr := &fakeOCR{text: "ocr text"}
	extractor := NewCVTextExtractor(pdf, ocr, &fakeWord{}, nil)

	text, method, err := extractor.Extract(context.Background(), "broken.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionOCR, method)
	assert.Equal(t, "ocr text", text)
}

func TestExtractOCRFailureDegradesToEmpty(t *testing.T) {
	pdf := &fakePDFLayer{pages: nil}
	ocr := &fakeOCR{err: errors.New("tesseract unavailable")}
	extractor := NewCVTextExtractor(pdf, ocr, &fakeWord{}, nil)

	text, method, err := extractor.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionOCR, method)
	assert.Empty(t, text)
}

func TestExtractWordDocument(t *testing.T) {
	word := &fakeWord{text: "word content"}
	extractor := NewCVTextExtractor(&fakePDFLayer{}, &fakeOCR{}, word, nil)

	text, method, err := extractor.Extract(context.Background(), "cv.docx")
	require.NoError(t, err)
	assert.Equal(t, types.ExtractionDirect, method)
	assert.Equal(t, "word content", text)
	assert.True(t, word.called)
}

func TestExtractUnsupportedFileType(t *testing.T) {
	extractor := NewCVTextExtractor(&fakePDFLayer{}, &fakeOCR{}, &fakeWord{}, nil)

	_, _, err := extractor.Extract(context.Background(), "photo.png")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
