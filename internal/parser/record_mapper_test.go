package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"
)

func TestMapToRecordFullCV(t *testing.T) {
	structured := types.StructuredCV{
		"Name": "John Doe",
		"Contact Information": map[string]any{
			"phone": "123",
			"email": "a@b.com",
		},
		"Professional Summary": "Seasoned engineer.",
		"Experience":           []any{map[string]any{"title": "Engineer"}},
		"Education":            []any{map[string]any{"degree": "B.Sc."}},
		"Skills":               []any{"Go", "SQL"},
		"Certifications":       []any{},
		"Languages":            []any{"English"},
	}

	record := MapToRecord("/tmp/cv.pdf", "raw text here", structured)

	assert.Equal(t, "/tmp/cv.pdf", record.FilePath)
	assert.Equal(t, "raw text here", record.RawText)
	// 联系方式按键排序渲染
	assert.Equal(t, "John Doe. email: a@b.com, phone: 123. Seasoned engineer.", record.PersonalInformation)
	// 非字符串字段序列化为规范JSON
	assert.JSONEq(t, `[{"title":"Engineer"}]`, record.WorkExperience)
	assert.JSONEq(t, `["Go","SQL"]`, record.Skills)
	require.NotEmpty(t, record.LLMStructuredJSON)
}

func TestMapToRecordMissingSections(t *testing.T) {
	structured := types.StructuredCV{
		"Name": "Jane",
	}

	record := MapToRecord("/tmp/cv.pdf", "", structured)

	assert.Equal(t, constants.NotMentioned, record.EducationHistory)
	assert.Equal(t, constants.NotMentioned, record.WorkExperience)
	assert.Equal(t, constants.NotMentioned, record.Skills)
	assert.Equal(t, constants.NotMentioned, record.Projects)
	assert.Equal(t, constants.NotMentioned, record.Certifications)
	// 缺失的联系方式和摘要用占位值拼进个人信息
	assert.Equal(t, "Jane. not mentioned. not mentioned", record.PersonalInformation)
}

func TestMapToRecordStringContactPassesThrough(t *testing.T) {
	structured := types.StructuredCV{
		"Contact Information": "call me maybe",
	}

	record := MapToRecord("x", "", structured)
	assert.Contains(t, record.PersonalInformation, "call me maybe")
}

func TestMapToRecordStringSectionPassesThrough(t *testing.T) {
	structured := types.StructuredCV{
		"Skills": "Go, SQL",
	}

	record := MapToRecord("x", "", structured)
	assert.Equal(t, "Go, SQL", record.Skills)
}
