// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yeisme/bidvault/pkg/configs"
	ctxPkg "github.com/yeisme/bidvault/pkg/context"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/pipeline"
	"github.com/yeisme/bidvault/pkg/internal/storage"
	"github.com/yeisme/bidvault/pkg/log"
	"github.com/yeisme/bidvault/pkg/scheduler"
)

// orphanMinAge 暂存文件至少存在该时长才视为孤儿，避免清掉正在上传的文件.
const orphanMinAge = 24 * time.Hour

// RegisterCronJobs 配置业务定时任务：
//   - 按 pipeline.recovery_interval 扫描滞留中间态并回退重派
//   - 每天 03:30 清理暂存目录中无记录引用的孤儿文件（可由配置关闭）
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, p *pipeline.Pipeline) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	cfg := configs.GetConfig().Pipeline

	// 将 storage manager 注入到 context，便于任务内使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if p != nil {
		_ = sched.AddInterval(JobStaleRecovery, cfg.GetRecoveryInterval(), func(ctx context.Context) {
			runStaleRecovery(ctx, p, &cfg)
		}, baseCtx)
	}

	if cfg.OrphanSweep {
		_ = sched.AddCron(JobOrphanSweep, CronOrphanSweep, func(ctx context.Context) {
			runOrphanSweep(ctx, mgr)
		}, baseCtx)
	}

	return nil
}

// runStaleRecovery 将超时滞留在中间态的文件回退到上一个稳定态并重新派发。
// 滞留阈值取两倍单阶段超时，保证正常处理中的任务不被误回收。
func runStaleRecovery(ctx context.Context, p *pipeline.Pipeline, cfg *configs.PipelineConfig) {
	l := log.Logger().With().Str("job", JobStaleRecovery).Logger()

	n, err := p.RecoverStale(ctx, 2*cfg.GetParsingTimeout())
	if err != nil {
		l.Error().Err(err).Msg("stale recovery failed")
		return
	}

	if n > 0 {
		l.Info().Int("recovered", n).Msg("stale files recovered")
	}
}

// runOrphanSweep 删除暂存目录中没有任何文件记录引用的遗留文件。
func runOrphanSweep(ctx context.Context, mgr *storage.Manager) {
	l := log.Logger().With().Str("job", JobOrphanSweep).Logger()

	if mgr == nil || mgr.GetDBClient() == nil || mgr.GetDBClient().GetDB() == nil {
		l.Error().Msg("db not initialized")
		return
	}

	dir := configs.GetConfig().Storage.UploadDir

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			l.Error().Err(err).Str("dir", dir).Msg("read upload dir failed")
		}

		return
	}

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)
	cutoff := time.Now().Add(-orphanMinAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		var count int64
		if err := dbx.Model(&model.UploadedFile{}).
			Where("temp_path = ?", path).Count(&count).Error; err != nil {
			l.Error().Err(err).Str("path", path).Msg("lookup temp path failed")
			continue
		}

		if count > 0 {
			continue
		}

		if err := os.Remove(path); err != nil {
			l.Error().Err(err).Str("path", path).Msg("remove orphan failed")
			continue
		}

		removed++
	}

	if removed > 0 {
		l.Info().Int("removed", removed).Str("dir", dir).Msg("orphan files swept")
	}
}
