package agent

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/storage/models"
)

func sampleRecords() []models.CVRecord {
	return []models.CVRecord{
		{
			PersonalInformation: "John Doe. email: a@b.com. Engineer.",
			EducationHistory:    "B.Sc. Computer Science",
			WorkExperience:      "Tech Solutions, 4 years",
			Skills:              `["Go","SQL"]`,
			Certifications:      "not mentioned",
		},
		{
			PersonalInformation: "Jane Smith. phone: 555. Analyst.",
			EducationHistory:    "M.Sc. Statistics",
			WorkExperience:      "DataCorp, 2 years",
			Skills:              `["Python"]`,
			Certifications:      `[{"name":"AWS SA"}]`,
		},
	}
}

func TestEnsureCVContextInjectsOnce(t *testing.T) {
	history := []*schema.Message{
		{Role: "system", Content: constants.ChatSystemSeed},
	}

	withContext := EnsureCVContext(history, sampleRecords())
	require.Len(t, withContext, 2)
	assert.True(t, strings.HasPrefix(withContext[1].Content, constants.CVContextMarker))

	// 再次调用不会重复注入
	again := EnsureCVContext(withContext, sampleRecords())
	assert.Len(t, again, 2)
}

func TestEnsureCVContextEmptyRecordsIsNoOp(t *testing.T) {
	history := []*schema.Message{
		{Role: "system", Content: constants.ChatSystemSeed},
		{Role: "user", Content: "hello"},
	}

	result := EnsureCVContext(history, nil)
	assert.Len(t, result, 2)
}

func TestBuildAggregatedCVPromptSections(t *testing.T) {
	prompt := BuildAggregatedCVPrompt(sampleRecords())

	assert.Contains(t, prompt, "--- CV 1 ---")
	assert.Contains(t, prompt, "--- CV 2 ---")
	assert.Contains(t, prompt, "Personal Information: John Doe. email: a@b.com. Engineer.")
	assert.Contains(t, prompt, "Education History: M.Sc. Statistics")
	assert.Contains(t, prompt, "Your Task:")
	assert.Contains(t, prompt, "Response Format:")
}

func TestBuildAggregatedCVPromptEmptyFieldsGetPlaceholder(t *testing.T) {
	prompt := BuildAggregatedCVPrompt([]models.CVRecord{{PersonalInformation: "X"}})
	assert.Contains(t, prompt, "Skills: not mentioned")
}

func TestEnsureCVContextSeedMessageDoesNotCountAsContext(t *testing.T) {
	// 普通系统消息没有标记前缀，不阻止注入
	history := []*schema.Message{
		{Role: "system", Content: "some unrelated system instruction"},
	}
	result := EnsureCVContext(history, sampleRecords())
	assert.Len(t, result, 2)
}
