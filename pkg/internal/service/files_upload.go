package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeisme/bidvault/pkg/configs"
	"github.com/yeisme/bidvault/pkg/internal/dedup"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/types"
	"github.com/yeisme/bidvault/pkg/log"
	"github.com/yeisme/bidvault/pkg/metrics"
	"github.com/yeisme/bidvault/pkg/queue"
)

// Upload 批量接收上传文件：逐文件校验、落盘、去重判定并建立记录.
// 单个文件失败不影响其余文件，整体响应逐文件给出裁决.
func (s *FileService) Upload(ctx context.Context, uploader string, action model.DuplicateAction,
	imageOnly bool, files []*multipart.FileHeader,
) *types.UploadFilesResponse {
	resp := &types.UploadFilesResponse{Results: make([]types.UploadVerdict, 0, len(files))}

	for _, fh := range files {
		verdict := s.uploadOne(ctx, uploader, action, imageOnly, fh)
		resp.Results = append(resp.Results, verdict)
	}

	return resp
}

// uploadOne 处理单个文件：白名单与大小校验 -> 边落盘边哈希 -> 去重判定 -> 入库 -> 发布事件.
func (s *FileService) uploadOne(ctx context.Context, uploader string, action model.DuplicateAction,
	imageOnly bool, fh *multipart.FileHeader,
) types.UploadVerdict {
	cfg := configs.GetConfig().Storage
	ext := strings.ToLower(filepath.Ext(fh.Filename))

	if !cfg.IsAllowedExtension(ext, imageOnly) {
		return uploadFailure(fh.Filename, fmt.Sprintf("不支持的文件类型: %s", ext))
	}

	if fh.Size > cfg.MaxFileSize {
		return uploadFailure(fh.Filename,
			fmt.Sprintf("文件超过大小限制: %d > %d", fh.Size, cfg.MaxFileSize))
	}

	id := uuid.NewString()

	tempPath, sha, size, err := s.saveTemp(fh, cfg.UploadDir, id, ext)
	if err != nil {
		return uploadFailure(fh.Filename, err.Error())
	}

	db := s.dbClient.GetDB()

	var (
		res    *dedup.Resolution
		record *model.UploadedFile
	)

	// 覆盖模式的级联删除与新记录写入在同一事务内，
	// 任何一步失败整体回滚，旧版本保持可见
	err = db.Transaction(func(tx *gorm.DB) error {
		r, err := dedup.Resolve(tx, sha, action)
		if err != nil {
			return err
		}

		res = r

		if r.Verdict == dedup.VerdictSkipped {
			return nil
		}

		record = &model.UploadedFile{
			ID:              id,
			Filename:        fh.Filename,
			Filetype:        ext,
			FilePath:        tempPath,
			TempPath:        tempPath,
			FileSize:        size,
			SHA256:          sha,
			Status:          model.FileStatusUploaded,
			Uploader:        uploader,
			DuplicateAction: action,
			OriginalFileID:  res.OriginalFileID,
			Version:         res.Version,
		}

		return tx.Create(record).Error
	})
	if err != nil {
		_ = os.Remove(tempPath)

		return uploadFailure(fh.Filename, fmt.Sprintf("入库失败: %v", err))
	}

	if res.Verdict == dedup.VerdictSkipped {
		_ = os.Remove(tempPath)

		metrics.FilesUploaded.WithLabelValues(string(res.Verdict)).Inc()

		return types.UploadVerdict{
			Filename: fh.Filename,
			Verdict:  string(res.Verdict),
			FileID:   res.Existing.ID,
			Status:   string(res.Existing.Status),
			Version:  res.Existing.Version,
			SHA256:   sha,
			Success:  true,
		}
	}

	// 事务已提交，覆盖模式的旧产物此刻才允许物理清理
	removeOrphans(res.OrphanPaths)

	metrics.FilesUploaded.WithLabelValues(string(res.Verdict)).Inc()
	s.publishUploaded(ctx, record, res)

	return types.UploadVerdict{
		Filename: fh.Filename,
		Verdict:  string(res.Verdict),
		FileID:   id,
		Status:   string(model.FileStatusUploaded),
		Version:  res.Version,
		SHA256:   sha,
		Success:  true,
	}
}

// saveTemp 将上传流写入暂存目录，边写边算 SHA-256.
func (s *FileService) saveTemp(fh *multipart.FileHeader, dir, id, ext string) (string, string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("创建上传目录失败: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", "", 0, fmt.Errorf("读取上传文件失败: %w", err)
	}
	defer src.Close()

	tempPath := filepath.Join(dir, id+ext)

	dst, err := os.Create(tempPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("写入暂存文件失败: %w", err)
	}
	defer dst.Close()

	sha, size, err := dedup.HashStream(io.TeeReader(src, dst))
	if err != nil {
		_ = os.Remove(tempPath)

		return "", "", 0, fmt.Errorf("写入暂存文件失败: %w", err)
	}

	return tempPath, sha, size, nil
}

// publishUploaded 发布 bv.file.uploaded 事件，流水线据此领取解析任务.
func (s *FileService) publishUploaded(_ context.Context, f *model.UploadedFile, res *dedup.Resolution) {
	if s.mqClient == nil || s.mqClient.Publisher() == nil {
		return
	}

	payload := queue.FileUploadedPayload{
		File: queue.FileRef{
			FileID:   f.ID,
			Filename: f.Filename,
			SHA256:   f.SHA256,
			Size:     f.FileSize,
			Uploader: f.Uploader,
		},
		Verdict: string(res.Verdict),
		Version: res.Version,
	}

	if err := queue.PublishFileUploaded(s.mqClient.Publisher(), payload,
		queue.WithProducer("bidvault")); err != nil {
		log.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("发布上传事件失败")
	}
}

// removeOrphans 尽力删除覆盖后遗留的物理文件，失败只记日志.
func removeOrphans(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Logger().Warn().Err(err).Str("path", p).Msg("清理旧产物失败")
		}
	}
}

func uploadFailure(filename, reason string) types.UploadVerdict {
	return types.UploadVerdict{Filename: filename, Success: false, Error: reason}
}
