package models

import (
	"time"

	"gorm.io/datatypes"
)

// CVRecord 结构化CV的持久化形态。八个业务字段全部是文本，
// 复杂的LLM子结构在落库前被序列化，缺失值统一为占位串。
// 只追加，不存在更新与删除路径。
type CVRecord struct {
	ID                  uint64         `gorm:"primaryKey;autoIncrement"`
	FilePath            string         `gorm:"type:varchar(1024)"`
	PersonalInformation string         `gorm:"type:text"`
	EducationHistory    string         `gorm:"type:text"`
	WorkExperience      string         `gorm:"type:text"`
	Skills              string         `gorm:"type:text"`
	Projects            string         `gorm:"type:text"`
	Certifications      string         `gorm:"type:text"`
	RawText             string         `gorm:"type:mediumtext"`
	LLMStructuredJSON   datatypes.JSON `gorm:"type:json"` // 校验通过的原始LLM输出
	CreatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (CVRecord) TableName() string {
	return "cv_records"
}
