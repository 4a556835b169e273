package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 标识一条上传文件记录.
type FileRef struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Uploader string `json:"uploader,omitempty"`
}

// -------------------------- 文件生命周期领域 --------------------------

// FileUploadedPayload 文件已落盘并建立记录.
type FileUploadedPayload struct {
	File FileRef `json:"file"`
	// 去重判定结果：new/overwritten/new_version
	Verdict string `json:"verdict,omitempty"`
	Version int    `json:"version,omitempty"`
}

// FileStagePayload 阶段推进事件的通用负载（parse.started/parsed/archived/indexed）.
type FileStagePayload struct {
	File   FileRef `json:"file"`
	Status string  `json:"status"`
	// 阶段耗时（毫秒），仅完成事件填充
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// FileFailedPayload 阶段失败事件负载.
type FileFailedPayload struct {
	File   FileRef `json:"file"`
	Status string  `json:"status"` // 失败终态：parse_failed/archive_failed/index_failed
	Error  string  `json:"error"`
}

// FileDeletedPayload 文件记录及衍生产物被删除.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
	// 删除原因：overwrite/manual
	Reason string `json:"reason,omitempty"`
}

// FileRecoveredPayload 滞留任务被恢复.
type FileRecoveredPayload struct {
	File FileRef `json:"file"`
	// 恢复前滞留的中间态
	StaleStatus string `json:"stale_status"`
	// 滞留时长（秒）
	StaleSeconds int64 `json:"stale_seconds,omitempty"`
}

// -------------------------- 衍生产物领域 --------------------------

// ChapterExtractedPayload 章节抽取完成.
type ChapterExtractedPayload struct {
	File         FileRef `json:"file"`
	ChapterCount int     `json:"chapter_count"`
	// 是否走了全文退回（未能识别出有效大纲）
	Fallback bool `json:"fallback,omitempty"`
}

// ImageExtractedPayload 嵌入图片提取完成.
type ImageExtractedPayload struct {
	File       FileRef `json:"file"`
	ImageCount int     `json:"image_count"`
}

// FinreportSplitPayload 财报年份切分完成.
type FinreportSplitPayload struct {
	File  FileRef `json:"file"`
	Years []int   `json:"years,omitempty"` // 空表示整份归入 unknown
}

// -------------------------- 向量索引领域 --------------------------

// IndexRequestedPayload 请求建立向量索引.
type IndexRequestedPayload struct {
	File      FileRef `json:"file"`
	ChunkSize int     `json:"chunk_size,omitempty"`
}
