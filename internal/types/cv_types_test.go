package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileKind(t *testing.T) {
	assert.Equal(t, FileKindPDF, DetectFileKind("cv.pdf"))
	assert.Equal(t, FileKindPDF, DetectFileKind("/tmp/CV.PDF"))
	assert.Equal(t, FileKindWord, DetectFileKind("cv.docx"))
	assert.Equal(t, FileKindWord, DetectFileKind("cv.doc"))
	assert.Equal(t, FileKindUnknown, DetectFileKind("cv.png"))
	assert.Equal(t, FileKindUnknown, DetectFileKind("noextension"))
}

func TestFlattenToText(t *testing.T) {
	assert.Equal(t, "plain", FlattenToText("plain"))
	assert.Equal(t, "", FlattenToText(nil))
	assert.JSONEq(t, `["a","b"]`, FlattenToText([]any{"a", "b"}))
	assert.JSONEq(t, `{"k":"v"}`, FlattenToText(map[string]any{"k": "v"}))
}

func TestStructuredCVFieldAccess(t *testing.T) {
	cv := StructuredCV{"Name": "X", "Skills": nil}

	v, ok := cv.Field("Name")
	assert.True(t, ok)
	assert.Equal(t, "X", v)

	assert.True(t, cv.Has("Skills"))
	assert.False(t, cv.Has("Missing"))
}
