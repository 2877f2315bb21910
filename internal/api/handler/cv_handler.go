package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/storage"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/types"
)

// TextExtractor 把上传的文件变成纯文本
type TextExtractor interface {
	Extract(ctx context.Context, filePath string) (string, types.ExtractionMethod, error)
}

// StructuredExtractor 把纯文本变成固定schema的结构化CV
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, rawText string) (types.StructuredCV, error)
}

// RecordStore 追加CV记录
type RecordStore interface {
	AppendCVRecord(ctx context.Context, record *models.CVRecord) (uint64, error)
}

// FileStore 上传文件落盘
type FileStore interface {
	SaveUpload(originalFilename string, data []byte) (string, error)
}

// ObjectArchiver 把CV原件归档到对象存储
type ObjectArchiver interface {
	UploadCVFile(ctx context.Context, originalFilename string, reader io.Reader, fileSize int64) (string, error)
}

// EventPublisher 发布领域事件
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// ChatService 处理一轮聊天
type ChatService interface {
	Chat(ctx context.Context, sessionID string, message string) (string, error)
}

// CVHandler 负责协调CV上传处理流程和聊天请求
type CVHandler struct {
	cfg        *config.Config
	texts      TextExtractor
	structured StructuredExtractor
	records    RecordStore
	files      FileStore
	archiver   ObjectArchiver  // 可为nil，未配置MinIO时跳过归档
	publisher  EventPublisher  // 可为nil，未配置RabbitMQ时跳过事件
	chat       ChatService
}

// NewCVHandler 创建CV处理器。archiver和publisher是可选依赖，传nil即禁用。
func NewCVHandler(
	cfg *config.Config,
	texts TextExtractor,
	structured StructuredExtractor,
	records RecordStore,
	files FileStore,
	archiver ObjectArchiver,
	publisher EventPublisher,
	chat ChatService,
) *CVHandler {
	return &CVHandler{
		cfg:        cfg,
		texts:      texts,
		structured: structured,
		records:    records,
		files:      files,
		archiver:   archiver,
		publisher:  publisher,
		chat:       chat,
	}
}

// CVData 上传响应中回显的结构化记录
type CVData struct {
	ID                  uint64 `json:"id"`
	FilePath            string `json:"file_path"`
	PersonalInformation string `json:"personal_information"`
	EducationHistory    string `json:"education_history"`
	WorkExperience      string `json:"work_experience"`
	Skills              string `json:"skills"`
	Projects            string `json:"projects"`
	Certifications      string `json:"certifications"`
	RawText             string `json:"raw_text"`
}

// CVUploadResponse 上传接口响应
type CVUploadResponse struct {
	Message string  `json:"message"`
	CVData  *CVData `json:"cv_data"`
}

// HandleUploadCV 同步处理一次CV上传：落盘、提文本、LLM结构化、映射入库。
// 归档和事件发布是尽力而为的旁路，失败只记日志。
// 入库失败同样不打断请求，记录会在响应里返回但ID为0。
func (h *CVHandler) HandleUploadCV(ctx context.Context, filename string, data []byte) (*CVUploadResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("上传文件内容为空")
	}

	filePath, err := h.files.SaveUpload(filename, data)
	if err != nil {
		return nil, fmt.Errorf("保存上传文件失败: %w", err)
	}

	rawText, method, err := h.texts.Extract(ctx, filePath)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFileType) {
			return nil, fmt.Errorf("不支持的文件类型 %s: %w", filename, err)
		}
		return nil, fmt.Errorf("提取CV文本失败: %w", err)
	}
	logger.Ctx(ctx).Info().
		Str("file", filename).
		Str("method", string(method)).
		Int("chars", len(rawText)).
		Msg("CV文本提取完成")

	structuredCV, err := h.structured.ExtractStructured(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("LLM结构化抽取失败: %w", err)
	}

	record := parser.MapToRecord(filePath, rawText, structuredCV)

	recordID, err := h.records.AppendCVRecord(ctx, record)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("file", filename).Msg("写入CV记录失败")
	}

	objectName := h.archiveOriginal(ctx, filename, data)
	h.publishUploaded(ctx, recordID, filePath, objectName)

	return &CVUploadResponse{
		Message: "CV uploaded and processed successfully!",
		CVData: &CVData{
			ID:                  recordID,
			FilePath:            record.FilePath,
			PersonalInformation: record.PersonalInformation,
			EducationHistory:    record.EducationHistory,
			WorkExperience:      record.WorkExperience,
			Skills:              record.Skills,
			Projects:            record.Projects,
			Certifications:      record.Certifications,
			RawText:             record.RawText,
		},
	}, nil
}

// archiveOriginal 归档CV原件，失败不影响主流程
func (h *CVHandler) archiveOriginal(ctx context.Context, filename string, data []byte) string {
	if h.archiver == nil {
		return ""
	}
	objectName, err := h.archiver.UploadCVFile(ctx, filename, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("file", filename).Msg("归档CV原件失败")
		return ""
	}
	return objectName
}

// publishUploaded 发布cv.uploaded事件，失败不影响主流程
func (h *CVHandler) publishUploaded(ctx context.Context, recordID uint64, filePath, objectName string) {
	if h.publisher == nil || h.cfg.RabbitMQ.EventsExchange == "" {
		return
	}
	event := storage.CVUploadedEvent{
		RecordID:   recordID,
		FilePath:   filePath,
		ObjectName: objectName,
		UploadedAt: time.Now().UTC(),
	}
	if err := h.publisher.PublishJSON(ctx, h.cfg.RabbitMQ.EventsExchange, h.cfg.RabbitMQ.UploadedRoutKey, event, true); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Uint64("record_id", recordID).Msg("发布CV上传事件失败")
	}
}

// HandleSendMessage 处理一轮聊天消息
func (h *CVHandler) HandleSendMessage(ctx context.Context, sessionID string, message string) (string, error) {
	return h.chat.Chat(ctx, sessionID, message)
}
