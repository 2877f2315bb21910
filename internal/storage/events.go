package storage

import "time"

// CVUploadedEvent 在一份CV入库后发布到事件交换机，
// 供下游系统（索引、通知等）异步消费。
type CVUploadedEvent struct {
	RecordID   uint64    `json:"record_id"`
	FilePath   string    `json:"file_path"`
	ObjectName string    `json:"object_name,omitempty"` // MinIO归档对象键，未归档时为空
	UploadedAt time.Time `json:"uploaded_at"`
}
