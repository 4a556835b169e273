// Package types 定义 HTTP 边界的请求与响应结构.
package types

import "time"

// FileInfo 文件记录的对外视图.
type FileInfo struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	Filetype         string     `json:"filetype"`
	FileSize         int64      `json:"file_size"`
	SHA256           string     `json:"sha256"`
	Status           string     `json:"status"`
	Uploader         string     `json:"uploader"`
	Version          int        `json:"version"`
	OriginalFileID   *string    `json:"original_file_id,omitempty"`
	Category         string     `json:"category,omitempty"`
	SemanticFilename string     `json:"semantic_filename,omitempty"`
	ArchivePath      string     `json:"archive_path,omitempty"`
	ErrorLog         string     `json:"error_log,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StatusUpdatedAt  time.Time  `json:"status_updated_at"`
	ParsedAt         *time.Time `json:"parsed_at,omitempty"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty"`
	IndexedAt        *time.Time `json:"indexed_at,omitempty"`
}

// FileStatusResponse 轻量状态查询响应.
type FileStatusResponse struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
	ErrorLog        string    `json:"error_log,omitempty"`
}

// ChapterInfo 章节节点视图.
type ChapterInfo struct {
	ChapterNumber string `json:"chapter_number"`
	ChapterTitle  string `json:"chapter_title"`
	ChapterLevel  int    `json:"chapter_level"`
	PositionOrder int    `json:"position_order"`
	ContentLength int    `json:"content_length"`
}

// ImageInfo 提取图片视图.
type ImageInfo struct {
	ImageNumber int    `json:"image_number"`
	ImagePath   string `json:"image_path"`
	PageNumber  *int   `json:"page_number,omitempty"`
	Format      string `json:"format"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// FinreportInfo 财报年份切分视图.
type FinreportInfo struct {
	Year        *int   `json:"year"`
	ArchivePath string `json:"archive_path"`
	PageCount   int    `json:"page_count"`
	FileSize    int64  `json:"file_size"`
}

// FileDetailResponse 文件详情：记录、元数据与全部衍生产物.
type FileDetailResponse struct {
	File       FileInfo        `json:"file"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Chapters   []ChapterInfo   `json:"chapters,omitempty"`
	Images     []ImageInfo     `json:"images,omitempty"`
	Finreports []FinreportInfo `json:"finreports,omitempty"`
}
