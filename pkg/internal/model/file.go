package model

import (
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

// FileStatus 文件生命周期状态.
type FileStatus string

const (
	FileStatusUploaded      FileStatus = "uploaded"
	FileStatusParsing       FileStatus = "parsing"
	FileStatusParsed        FileStatus = "parsed"
	FileStatusArchiving     FileStatus = "archiving"
	FileStatusArchived      FileStatus = "archived"
	FileStatusIndexing      FileStatus = "indexing"
	FileStatusIndexed       FileStatus = "indexed"
	FileStatusParseFailed   FileStatus = "parse_failed"
	FileStatusArchiveFailed FileStatus = "archive_failed"
	FileStatusIndexFailed   FileStatus = "index_failed"
)

// IsTerminal 判断状态是否为终态（成功或失败）.
func (s FileStatus) IsTerminal() bool {
	return s == FileStatusIndexed || s.IsFailed()
}

// IsFailed 判断状态是否为失败终态.
func (s FileStatus) IsFailed() bool {
	switch s {
	case FileStatusParseFailed, FileStatusArchiveFailed, FileStatusIndexFailed:
		return true
	default:
		return false
	}
}

// DuplicateAction 重复文件处理策略.
type DuplicateAction string

const (
	DuplicateSkip      DuplicateAction = "skip"
	DuplicateOverwrite DuplicateAction = "overwrite"
	DuplicateUpdate    DuplicateAction = "update"
)

// Valid 判断策略取值是否合法.
func (a DuplicateAction) Valid() bool {
	switch a {
	case DuplicateSkip, DuplicateOverwrite, DuplicateUpdate:
		return true
	default:
		return false
	}
}

// UploadedFile 上传文件的持久化记录，生命周期由流水线控制器独占驱动.
type UploadedFile struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// 原始文件名与小写后缀（含点号）
	Filename string `gorm:"size:512;index" json:"filename"`
	Filetype string `gorm:"size:16"        json:"filetype"`
	// FilePath 当前有效路径：归档前等于 TempPath，归档后等于 ArchivePath
	FilePath    string     `gorm:"size:1024"      json:"file_path"`
	TempPath    string     `gorm:"size:1024"      json:"temp_path"`
	ArchivePath string     `gorm:"size:1024"      json:"archive_path"`
	FileSize    int64      `gorm:"index"          json:"file_size"`
	SHA256      string     `gorm:"size:64;index"  json:"sha256"`
	Status      FileStatus `gorm:"size:32;index"  json:"status"`
	Uploader    string     `gorm:"size:255;index" json:"uploader"`
	// 上传时指定的重复处理策略，用于审计
	DuplicateAction DuplicateAction `gorm:"size:16" json:"duplicate_action"`
	// 版本链：version > 1 时 OriginalFileID 指向上一版本
	OriginalFileID   *string `gorm:"type:varchar(36);index" json:"original_file_id"`
	Version          int     `gorm:"default:1"              json:"version"`
	Category         string  `gorm:"size:64;index"          json:"category"`
	SemanticFilename string  `gorm:"size:512"               json:"semantic_filename"`
	// Metadata 为 FileMetadata 的 JSON 序列化，随阶段推进逐步填充
	Metadata string `gorm:"type:text" json:"metadata"`
	ErrorLog string `gorm:"type:text" json:"error_log"`

	CreatedAt       time.Time      `json:"created_at"`
	StatusUpdatedAt time.Time      `gorm:"index" json:"status_updated_at"`
	ParsedAt        *time.Time     `json:"parsed_at"`
	ArchivedAt      *time.Time     `json:"archived_at"`
	IndexedAt       *time.Time     `json:"indexed_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名.
func (UploadedFile) TableName() string {
	return "uploaded_files"
}

// MetadataSchemaVersion 当前 FileMetadata 结构版本号.
const MetadataSchemaVersion = 1

// FileMetadata 随解析阶段逐步填充的结构化元数据.
// 以显式字段代替自由 map，序列化后写入 UploadedFile.Metadata.
type FileMetadata struct {
	SchemaVersion int `json:"schema_version"`

	// 解析阶段
	PageCount     int     `json:"page_count,omitempty"`
	TextLength    int     `json:"text_length,omitempty"`
	ChapterCount  int     `json:"chapter_count,omitempty"`
	ImageCount    int     `json:"image_count,omitempty"`
	DirectPages   int     `json:"direct_pages,omitempty"`
	OCRPages      int     `json:"ocr_pages,omitempty"`
	AvgConfidence float64 `json:"avg_confidence,omitempty"`

	// 分类阶段
	Category   string  `json:"category,omitempty"`
	Strategy   string  `json:"strategy,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Years      []int   `json:"years,omitempty"`

	// 归档阶段
	ProjectName string `json:"project_name,omitempty"`
	DocDate     string `json:"doc_date,omitempty"`
}

// NewFileMetadata 创建带版本号的空元数据.
func NewFileMetadata() *FileMetadata {
	return &FileMetadata{SchemaVersion: MetadataSchemaVersion}
}

// SetMetadata 序列化元数据到行内字段.
func (f *UploadedFile) SetMetadata(m *FileMetadata) error {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = MetadataSchemaVersion
	}

	data, err := sonic.Marshal(m)
	if err != nil {
		return err
	}

	f.Metadata = string(data)

	return nil
}

// GetMetadata 反序列化行内元数据，空字段返回带版本号的零值.
func (f *UploadedFile) GetMetadata() (*FileMetadata, error) {
	if f.Metadata == "" {
		return NewFileMetadata(), nil
	}

	var m FileMetadata
	if err := sonic.Unmarshal([]byte(f.Metadata), &m); err != nil {
		return nil, err
	}

	return &m, nil
}
