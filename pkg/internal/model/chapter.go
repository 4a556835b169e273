package model

import (
	"time"

	"github.com/bytedance/sonic"
)

// Chapter 文档大纲节点及其正文，章节抽取阶段批量写入后不可变.
type Chapter struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileID string `gorm:"type:varchar(36);index:idx_chapter_file;index:idx_chapter_file_order,unique" json:"file_id"`
	// 章节编号原样保留：如 "第一部分"、"1.2.3"、"附件1"
	ChapterNumber string `gorm:"size:64"  json:"chapter_number"`
	ChapterTitle  string `gorm:"size:512" json:"chapter_title"`
	// 层级：1=部分 2=主章节 3=二级 4=三级 5=四级
	ChapterLevel int `gorm:"index" json:"chapter_level"`
	// 遍历顺序的 1 基索引，同一文件内连续无空洞
	PositionOrder int    `gorm:"index:idx_chapter_file_order,unique" json:"position_order"`
	Content       string `gorm:"type:text" json:"content"`
	// StructureData 为 StructureData 的 JSON 序列化，仅 DOCX 填充
	StructureData string    `gorm:"type:text" json:"structure_data"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName 指定表名.
func (Chapter) TableName() string {
	return "chapters"
}

// StructureData DOCX 章节的排版特征.
type StructureData struct {
	DominantFont   string `json:"dominant_font,omitempty"`
	Alignment      string `json:"alignment,omitempty"`
	ParagraphCount int    `json:"paragraph_count,omitempty"`
}

// SetStructureData 序列化排版特征到行内字段.
func (c *Chapter) SetStructureData(s *StructureData) error {
	data, err := sonic.Marshal(s)
	if err != nil {
		return err
	}

	c.StructureData = string(data)

	return nil
}
