package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeisme/bidvault/pkg/internal/dedup"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/log"
	"github.com/yeisme/bidvault/pkg/queue"
)

// Delete 删除文件记录与全部衍生产物，事务提交后再清理物理文件.
func (s *FileService) Delete(_ context.Context, fileID string) error {
	db := s.dbClient.GetDB()

	var f model.UploadedFile
	if err := db.First(&f, "id = ?", fileID).Error; err != nil {
		return err
	}

	var orphans []string

	err := db.Transaction(func(tx *gorm.DB) error {
		paths, err := dedup.DeleteCascade(tx, fileID)
		if err != nil {
			return err
		}

		orphans = paths

		return nil
	})
	if err != nil {
		return err
	}

	removeOrphans(orphans)

	if s.mqClient != nil && s.mqClient.Publisher() != nil {
		payload := queue.FileDeletedPayload{
			File:   queue.FileRef{FileID: f.ID, Filename: f.Filename, SHA256: f.SHA256},
			Reason: "manual",
		}

		if err := queue.PublishFileDeleted(s.mqClient.Publisher(), payload,
			queue.WithProducer("bidvault")); err != nil {
			log.Logger().Warn().Err(err).Str("file_id", f.ID).Msg("发布删除事件失败")
		}
	}

	return nil
}
