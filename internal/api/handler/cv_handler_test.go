package handler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/types"
)

type fakeFileStore struct {
	savedName string
	savedData []byte
}

func (f *fakeFileStore) SaveUpload(originalFilename string, data []byte) (string, error) {
	f.savedName = originalFilename
	f.savedData = data
	return "/data/sample_cvs/" + originalFilename, nil
}

type fakeTextExtractor struct {
	text string
	err  error
}

func (f *fakeTextExtractor) Extract(ctx context.Context, filePath string) (string, types.ExtractionMethod, error) {
	return f.text, types.ExtractionDirect, f.err
}

type fakeStructuredExtractor struct {
	result types.StructuredCV
	err    error
}

func (f *fakeStructuredExtractor) ExtractStructured(ctx context.Context, rawText string) (types.StructuredCV, error) {
	return f.result, f.err
}

type fakeRecordStore struct {
	nextID uint64
	err    error
	stored *models.CVRecord
}

func (f *fakeRecordStore) AppendCVRecord(ctx context.Context, record *models.CVRecord) (uint64, error) {
	f.stored = record
	return f.nextID, f.err
}

type fakeChat struct {
	answer string
	err    error
}

func (f *fakeChat) Chat(ctx context.Context, sessionID, message string) (string, error) {
	return f.answer, f.err
}

func newTestHandler(texts TextExtractor, structured StructuredExtractor, records RecordStore) *CVHandler {
	return NewCVHandler(&config.Config{}, texts, structured, records, &fakeFileStore{}, nil, nil, &fakeChat{})
}

func TestHandleUploadCVFullPipeline(t *testing.T) {
	structured := types.StructuredCV{
		"Name":                 "John Doe",
		"Contact Information":  map[string]any{"email": "john@example.com"},
		"Professional Summary": "Engineer.",
		"Experience":           []any{},
		"Education":            []any{},
		"Skills":               []any{"Go"},
		"Certifications":       "not mentioned",
		"Languages":            []any{"English"},
	}
	records := &fakeRecordStore{nextID: 7}
	h := newTestHandler(
		&fakeTextExtractor{text: "raw cv text"},
		&fakeStructuredExtractor{result: structured},
		records,
	)

	resp, err := h.HandleUploadCV(context.Background(), "cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "CV uploaded and processed successfully!", resp.Message)
	require.NotNil(t, resp.CVData)
	assert.Equal(t, uint64(7), resp.CVData.ID)
	assert.True(t, strings.HasPrefix(resp.CVData.PersonalInformation, "John Doe"))
	assert.Equal(t, "raw cv text", resp.CVData.RawText)

	// 入库的记录与响应一致
	require.NotNil(t, records.stored)
	assert.Equal(t, resp.CVData.PersonalInformation, records.stored.PersonalInformation)
}

func TestHandleUploadCVEmptyBody(t *testing.T) {
	h := newTestHandler(&fakeTextExtractor{}, &fakeStructuredExtractor{}, &fakeRecordStore{})

	_, err := h.HandleUploadCV(context.Background(), "cv.pdf", nil)
	assert.Error(t, err)
}

func TestHandleUploadCVExtractionFailure(t *testing.T) {
	h := newTestHandler(
		&fakeTextExtractor{text: "raw"},
		&fakeStructuredExtractor{err: errors.New("attempts exhausted")},
		&fakeRecordStore{},
	)

	_, err := h.HandleUploadCV(context.Background(), "cv.pdf", []byte("x"))
	assert.Error(t, err)
}

func TestHandleUploadCVStoreFailureIsSwallowed(t *testing.T) {
	structured := types.StructuredCV{"Name": "Jane"}
	h := newTestHandler(
		&fakeTextExtractor{text: "raw"},
		&fakeStructuredExtractor{result: structured},
		&fakeRecordStore{err: errors.New("db write failed")},
	)

	resp, err := h.HandleUploadCV(context.Background(), "cv.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), resp.CVData.ID)
}

func TestHandleSendMessageDelegates(t *testing.T) {
	h := NewCVHandler(&config.Config{}, &fakeTextExtractor{}, &fakeStructuredExtractor{},
		&fakeRecordStore{}, &fakeFileStore{}, nil, nil, &fakeChat{answer: "the answer"})

	answer, err := h.HandleSendMessage(context.Background(), "s1", "q")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}
