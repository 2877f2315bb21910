package agent

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/storage/models"
)

// BuildAggregatedCVPrompt 把全部CV记录折叠成一段聊天上下文：
// 逐条标注的记录摘要，加上固定的查询任务说明。
func BuildAggregatedCVPrompt(records []models.CVRecord) string {
	var lines []string
	lines = append(lines,
		"You are an expert data assistant with full access to detailed information about candidates, including candidate names, skills, education levels, work experiences, industries, and any other relevant job-related attributes.",
		"",
		"The following are aggregated CV details from various candidates:",
		"",
	)

	for idx, record := range records {
		lines = append(lines,
			fmt.Sprintf("--- CV %d ---", idx+1),
			fmt.Sprintf("Personal Information: %s", valueOrPlaceholder(record.PersonalInformation)),
			fmt.Sprintf("Education History: %s", valueOrPlaceholder(record.EducationHistory)),
			fmt.Sprintf("Work Experience: %s", valueOrPlaceholder(record.WorkExperience)),
			fmt.Sprintf("Skills: %s", valueOrPlaceholder(record.Skills)),
			fmt.Sprintf("Certifications: %s", valueOrPlaceholder(record.Certifications)),
			"",
		)
	}

	lines = append(lines,
		"Your Task:",
		"Analyze the candidate data and answer queries clearly and directly.",
		"",
		"Instructions:",
		"- For skill queries (e.g., 'Who has Python?'), list candidates with and without the skill.",
		"- For education queries, compare candidates' education (degrees, institutions, etc.).",
		"- For industry queries, list candidates with relevant experience.",
		"- For job matching, identify candidates meeting specified skills, education, and experience.",
		"",
		"Response Format:",
		"- Start with a brief summary.",
		"- Use bullet points or subheadings for clarity.",
		"- Keep responses concise and well-structured.",
	)

	return strings.Join(lines, "\n")
}

// EnsureCVContext 幂等地向会话历史注入聚合CV上下文。
// 已存在带标记的系统消息时原样返回；记录集为空时不插入任何内容。
// 标记只在首次注入时写入，因此上下文是会话内的一次性快照，
// 之后新增的记录不会反映进来，这是已知且保留的行为。
func EnsureCVContext(history []*schema.Message, records []models.CVRecord) []*schema.Message {
	if hasCVContext(history) {
		return history
	}
	if len(records) == 0 {
		return history
	}

	return append(history, &schema.Message{
		Role:    schema.RoleType("system"),
		Content: constants.CVContextMarker + " " + BuildAggregatedCVPrompt(records),
	})
}

// hasCVContext 扫描历史，寻找带聚合上下文标记的系统消息
func hasCVContext(history []*schema.Message) bool {
	for _, msg := range history {
		if msg == nil {
			continue
		}
		if msg.Role == schema.RoleType("system") && strings.HasPrefix(msg.Content, constants.CVContextMarker) {
			return true
		}
	}
	return false
}

func valueOrPlaceholder(v string) string {
	if v == "" {
		return constants.NotMentioned
	}
	return v
}
