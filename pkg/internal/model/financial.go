package model

import "time"

// FinancialReportSegment 多年度财报按年份拆分出的单年 PDF.
// 年份无法识别时 Year 为 NULL，整份文件归档到 unknown 目录.
type FinancialReportSegment struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileID string `gorm:"type:varchar(36);index:idx_finreport_file_year,unique;index" json:"file_id"`
	Year   *int   `gorm:"index:idx_finreport_file_year,unique" json:"year"`
	// 独立单年 PDF 的归档路径
	ArchivePath string    `gorm:"size:1024" json:"archive_path"`
	PageCount   int       `json:"page_count"`
	FileSize    int64     `json:"file_size"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// TableName 指定表名.
func (FinancialReportSegment) TableName() string {
	return "financial_reports"
}
