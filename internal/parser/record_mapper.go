package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/types"
)

// MapToRecord 把异构的LLM输出拍平为持久化记录。
// 所有字段都是字符串，缺失一律写入占位值，绝不产生空指针语义。
func MapToRecord(filePath, rawText string, structured types.StructuredCV) *models.CVRecord {
	name := fieldAsText(structured, "Name")
	contact := flattenContactInfo(structured)
	summary := fieldAsText(structured, "Professional Summary")

	structuredJSON, _ := json.Marshal(structured)

	return &models.CVRecord{
		FilePath:            filePath,
		PersonalInformation: fmt.Sprintf("%s. %s. %s", name, contact, summary),
		EducationHistory:    fieldAsText(structured, "Education"),
		WorkExperience:      fieldAsText(structured, "Experience"),
		Skills:              fieldAsText(structured, "Skills"),
		Projects:            fieldAsText(structured, "Projects"),
		Certifications:      fieldAsText(structured, "Certifications"),
		RawText:             rawText,
		LLMStructuredJSON:   structuredJSON,
	}
}

// fieldAsText 缺失 -> 占位值；字符串 -> 原样；其余 -> 规范JSON
func fieldAsText(structured types.StructuredCV, key string) string {
	v, ok := structured.Field(key)
	if !ok {
		return constants.NotMentioned
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	text := types.FlattenToText(v)
	if text == "" {
		return constants.NotMentioned
	}
	return text
}

// flattenContactInfo 联系方式可能是对象也可能是自由文本。
// 对象按键排序渲染为 "key: value" 并以逗号连接，文本直接透传。
func flattenContactInfo(structured types.StructuredCV) string {
	v, ok := structured.Field("Contact Information")
	if !ok {
		return constants.NotMentioned
	}

	switch contact := v.(type) {
	case string:
		return contact
	case map[string]any:
		keys := make([]string, 0, len(contact))
		for k := range contact {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s: %s", k, types.FlattenToText(contact[k])))
		}
		return strings.Join(pairs, ", ")
	default:
		text := types.FlattenToText(v)
		if text == "" {
			return constants.NotMentioned
		}
		return text
	}
}
