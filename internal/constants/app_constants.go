package constants

import "time"

const (
	// CVContextMarker 聊天上下文中聚合CV信息的系统消息前缀。
	// 注入前会扫描历史，保证一个会话最多只注入一次。
	CVContextMarker = "CV Context:"

	// NotMentioned 结构化字段缺失时写入的占位值
	NotMentioned = "not mentioned"

	// ChatSystemSeed 会话初始的系统消息内容
	ChatSystemSeed = "your goal is to help the user about cvs query"

	// ExtractionSystemPrompt 单轮结构化抽取调用的系统指令
	ExtractionSystemPrompt = "your response should only be in JSON format without any headers"

	// DefaultLLMMaxAttempts 结构化抽取的默认尝试预算
	DefaultLLMMaxAttempts = 3

	// DefaultOCRDPI 扫描件渲染的默认分辨率
	DefaultOCRDPI = 300
)

const (
	// SessionKeyPrefix Redis中会话历史的键前缀
	SessionKeyPrefix = "cv_chat:history:"

	// SessionCookieName 标识聊天会话的Cookie名称
	SessionCookieName = "cv_session_id"

	// DefaultSessionTTL 会话历史的默认过期时间
	DefaultSessionTTL = 24 * time.Hour
)

// RequiredCVSections LLM输出必须包含的顶层键。
// 校验只检查键是否存在，值允许为占位内容。
var RequiredCVSections = []string{
	"Name",
	"Contact Information",
	"Professional Summary",
	"Experience",
	"Education",
	"Skills",
	"Certifications",
	"Languages",
}
