package pipeline

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/log"
)

// transitions 生命周期状态机的合法推进表，失败终态只能从对应中间态进入.
var transitions = map[model.FileStatus][]model.FileStatus{
	model.FileStatusUploaded:  {model.FileStatusParsing},
	model.FileStatusParsing:   {model.FileStatusParsed, model.FileStatusParseFailed},
	model.FileStatusParsed:    {model.FileStatusArchiving},
	model.FileStatusArchiving: {model.FileStatusArchived, model.FileStatusArchiveFailed},
	model.FileStatusArchived:  {model.FileStatusIndexing},
	model.FileStatusIndexing:  {model.FileStatusIndexed, model.FileStatusIndexFailed},
}

// staleResets 滞留恢复时各中间态回退到的上一个稳定态.
var staleResets = map[model.FileStatus]model.FileStatus{
	model.FileStatusParsing:   model.FileStatusUploaded,
	model.FileStatusArchiving: model.FileStatusParsed,
	model.FileStatusIndexing:  model.FileStatusArchived,
}

// CanTransition 判断状态推进是否合法.
func CanTransition(from, to model.FileStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}

	return false
}

// transition 以条件更新原子推进状态：WHERE status = from 保证同一文件
// 只被一个 worker 推进.返回 false 表示当前状态已不是 from（他人已领取或推进）.
func (p *Pipeline) transition(ctx context.Context, fileID string, from, to model.FileStatus, patch map[string]any) (bool, error) {
	if !CanTransition(from, to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}

	if patch == nil {
		patch = map[string]any{}
	}

	patch["status"] = to
	patch["status_updated_at"] = time.Now()

	var result *gorm.DB

	// 瞬时数据库错误重试一次
	for attempt := 0; attempt < 2; attempt++ {
		result = p.db.WithContext(ctx).
			Model(&model.UploadedFile{}).
			Where("id = ? AND status = ?", fileID, from).
			Updates(patch)

		if result.Error == nil {
			break
		}

		log.Logger().Warn().Err(result.Error).
			Str("file_id", fileID).
			Str("to", string(to)).
			Int("attempt", attempt+1).
			Msg("status transition retry")
	}

	if result.Error != nil {
		return false, fmt.Errorf("transition %s -> %s: %w", from, to, result.Error)
	}

	return result.RowsAffected == 1, nil
}

// fail 将文件推进到失败终态并记录错误详情，临时文件保留以便排障.
func (p *Pipeline) fail(ctx context.Context, fileID string, from, to model.FileStatus, cause error) {
	ok, err := p.transition(ctx, fileID, from, to, map[string]any{
		"error_log": cause.Error(),
	})
	if err != nil || !ok {
		log.Logger().Error().Err(err).
			Str("file_id", fileID).
			Str("to", string(to)).
			Msg("mark failed state failed")

		return
	}

	log.Logger().Error().Err(cause).
		Str("file_id", fileID).
		Str("status", string(to)).
		Msg("pipeline stage failed")
}
