package model

import "time"

// ExtractedImage 从文档中提取出的嵌入图片.
type ExtractedImage struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileID string `gorm:"type:varchar(36);index:idx_image_file_number,unique;index" json:"file_id"`
	// 落盘路径：<root>/<year>/<file_id>/<NNN>[_pageP]_<hash8>.<ext>
	ImagePath string `gorm:"size:1024" json:"image_path"`
	// 文件内 1 基序号，与 FileID 联合唯一
	ImageNumber int `gorm:"index:idx_image_file_number,unique" json:"image_number"`
	// 页码仅对 PDF 有意义
	PageNumber *int   `json:"page_number"`
	Format     string `gorm:"size:16" json:"format"`
	Size       int64  `json:"size"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	// MD5 前 8 位，仅用于文件名去歧义
	Hash        string    `gorm:"size:16" json:"hash"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// TableName 指定表名.
func (ExtractedImage) TableName() string {
	return "extracted_images"
}
