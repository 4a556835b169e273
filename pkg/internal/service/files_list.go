package service

import (
	"context"
	"fmt"

	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/types"
)

// List 按条件分页查询文件记录.
func (s *FileService) List(_ context.Context, req *types.ListFilesRequest) (*types.ListFilesResponse, error) {
	db := s.dbClient.GetDB().Model(&model.UploadedFile{})

	if req.Status != "" {
		db = db.Where("status = ?", req.Status)
	}

	if req.Category != "" {
		db = db.Where("category = ?", req.Category)
	}

	if req.Uploader != "" {
		db = db.Where("uploader = ?", req.Uploader)
	}

	if req.Keyword != "" {
		db = db.Where("filename LIKE ?", "%"+req.Keyword+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计文件数失败: %w", err)
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = 20
	}

	var records []model.UploadedFile

	err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询文件列表失败: %w", err)
	}

	files := make([]types.FileInfo, 0, len(records))
	for i := range records {
		files = append(files, toFileInfo(&records[i]))
	}

	return &types.ListFilesResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Files:    files,
	}, nil
}

// Status 轻量状态查询，供上传方轮询生命周期推进.
func (s *FileService) Status(_ context.Context, fileID string) (*types.FileStatusResponse, error) {
	var f model.UploadedFile
	if err := s.dbClient.GetDB().First(&f, "id = ?", fileID).Error; err != nil {
		return nil, err
	}

	return &types.FileStatusResponse{
		ID:              f.ID,
		Status:          string(f.Status),
		StatusUpdatedAt: f.StatusUpdatedAt,
		ErrorLog:        f.ErrorLog,
	}, nil
}

// Detail 返回文件记录、结构化元数据与全部衍生产物.
func (s *FileService) Detail(_ context.Context, fileID string) (*types.FileDetailResponse, error) {
	db := s.dbClient.GetDB()

	var f model.UploadedFile
	if err := db.First(&f, "id = ?", fileID).Error; err != nil {
		return nil, err
	}

	resp := &types.FileDetailResponse{File: toFileInfo(&f)}

	meta, err := f.GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("解析元数据失败: %w", err)
	}

	resp.Metadata = metadataMap(meta)

	var chapters []model.Chapter
	if err := db.Where("file_id = ?", fileID).
		Order("position_order ASC").Find(&chapters).Error; err != nil {
		return nil, err
	}

	for _, c := range chapters {
		resp.Chapters = append(resp.Chapters, types.ChapterInfo{
			ChapterNumber: c.ChapterNumber,
			ChapterTitle:  c.ChapterTitle,
			ChapterLevel:  c.ChapterLevel,
			PositionOrder: c.PositionOrder,
			ContentLength: len([]rune(c.Content)),
		})
	}

	var images []model.ExtractedImage
	if err := db.Where("file_id = ?", fileID).
		Order("image_number ASC").Find(&images).Error; err != nil {
		return nil, err
	}

	for _, img := range images {
		resp.Images = append(resp.Images, types.ImageInfo{
			ImageNumber: img.ImageNumber,
			ImagePath:   img.ImagePath,
			PageNumber:  img.PageNumber,
			Format:      img.Format,
			Size:        img.Size,
			Width:       img.Width,
			Height:      img.Height,
		})
	}

	var segments []model.FinancialReportSegment
	if err := db.Where("file_id = ?", fileID).
		Order("year ASC").Find(&segments).Error; err != nil {
		return nil, err
	}

	for _, seg := range segments {
		resp.Finreports = append(resp.Finreports, types.FinreportInfo{
			Year:        seg.Year,
			ArchivePath: seg.ArchivePath,
			PageCount:   seg.PageCount,
			FileSize:    seg.FileSize,
		})
	}

	return resp, nil
}

// metadataMap 将显式元数据结构摊平为响应用 map，零值字段不输出.
func metadataMap(m *model.FileMetadata) map[string]any {
	out := map[string]any{"schema_version": m.SchemaVersion}

	put := func(k string, v any) {
		switch t := v.(type) {
		case int:
			if t != 0 {
				out[k] = t
			}
		case int64:
			if t != 0 {
				out[k] = t
			}
		case float64:
			if t != 0 {
				out[k] = t
			}
		case string:
			if t != "" {
				out[k] = t
			}
		case []int:
			if len(t) > 0 {
				out[k] = t
			}
		}
	}

	put("page_count", m.PageCount)
	put("text_length", m.TextLength)
	put("chapter_count", m.ChapterCount)
	put("image_count", m.ImageCount)
	put("direct_pages", m.DirectPages)
	put("ocr_pages", m.OCRPages)
	put("avg_confidence", m.AvgConfidence)
	put("category", m.Category)
	put("strategy", m.Strategy)
	put("confidence", m.Confidence)
	put("years", m.Years)
	put("project_name", m.ProjectName)
	put("doc_date", m.DocDate)

	return out
}
