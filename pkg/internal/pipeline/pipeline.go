// Package pipeline 驱动上传文件的解析流水线：
// uploaded → parsing → parsed → archiving → archived → indexing → indexed，
// 各中间态配有失败终态.状态推进全部走条件更新，同一文件同一时刻
// 只被一个 worker 处理；失败只影响单个文件.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	appcache "github.com/yeisme/bidvault/pkg/cache"
	"github.com/yeisme/bidvault/pkg/configs"
	"github.com/yeisme/bidvault/pkg/internal/archive"
	"github.com/yeisme/bidvault/pkg/internal/images"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/log"
	"github.com/yeisme/bidvault/pkg/metrics"
	"github.com/yeisme/bidvault/pkg/queue"
)

// Pipeline 解析流水线控制器.
type Pipeline struct {
	db       *gorm.DB
	cfg      configs.PipelineConfig
	archiver *archive.Archiver
	images   *images.Extractor
	splitter splitFunc
	embed    *EmbeddingClient
	pub      message.Publisher // 可为 nil，事件发布尽力而为
	cache    *appcache.Cache   // 可为 nil，分类结果按 SHA-256 缓存
	sem      *semaphore.Weighted
}

// New 创建流水线控制器.
func New(db *gorm.DB, cfg configs.PipelineConfig, archiver *archive.Archiver,
	imgExtractor *images.Extractor, splitter splitFunc,
	embed *EmbeddingClient, pub message.Publisher,
) *Pipeline {
	workers := cfg.MaxConcurrentTasks
	if workers < 1 {
		workers = configs.DefaultMaxConcurrentTasks
	}

	return &Pipeline{
		db:       db,
		cfg:      cfg,
		archiver: archiver,
		images:   imgExtractor,
		splitter: splitter,
		embed:    embed,
		pub:      pub,
		sem:      semaphore.NewWeighted(int64(workers)),
	}
}

// WithCache 启用分类结果缓存，键为文件 SHA-256.
func (p *Pipeline) WithCache(c *appcache.Cache) *Pipeline {
	p.cache = c

	return p
}

// Run 消费 bv.file.uploaded 消息并在有界并发下处理.
// 消息在任务入池后即 Ack：处理进度由数据库状态承载，
// 滞留恢复任务兜底崩溃丢失的任务.
func (p *Pipeline) Run(ctx context.Context, msgs <-chan *message.Message) {
	logger := log.Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			env, err := queue.ParseFileUploaded(msg)
			if err != nil {
				logger.Warn().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed message")
				msg.Ack()

				continue
			}

			if err := p.sem.Acquire(ctx, 1); err != nil {
				msg.Nack()

				return
			}

			msg.Ack()

			go func(fileID string) {
				defer p.sem.Release(1)

				if err := p.Process(ctx, fileID); err != nil {
					logger.Error().Err(err).Str("file_id", fileID).Msg("pipeline process error")
				}
			}(env.Payload.File.FileID)
		}
	}
}

// Process 处理单个文件，从当前状态起继续推进到终态.
// 文件处于他人在处理的中间态或已达终态时直接返回 nil.
func (p *Pipeline) Process(ctx context.Context, fileID string) error {
	var f model.UploadedFile
	if err := p.db.WithContext(ctx).First(&f, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}

		return fmt.Errorf("load file %s: %w", fileID, err)
	}

	switch f.Status {
	case model.FileStatusUploaded:
		if err := p.runStage(ctx, &f, model.FileStatusUploaded, model.FileStatusParsing,
			model.FileStatusParsed, model.FileStatusParseFailed,
			queue.TopicFileParsed, queue.TopicFileParseFailed, p.parse); err != nil {
			return err
		}

		fallthrough
	case model.FileStatusParsed:
		if err := p.runStage(ctx, &f, model.FileStatusParsed, model.FileStatusArchiving,
			model.FileStatusArchived, model.FileStatusArchiveFailed,
			queue.TopicFileArchived, queue.TopicFileArchiveFailed, p.archive); err != nil {
			return err
		}

		fallthrough
	case model.FileStatusArchived:
		return p.runStage(ctx, &f, model.FileStatusArchived, model.FileStatusIndexing,
			model.FileStatusIndexed, model.FileStatusIndexFailed,
			queue.TopicFileIndexed, queue.TopicFileIndexFailed, p.index)
	default:
		return nil
	}
}

// stageFunc 单阶段实现：返回成功推进时要附带的字段更新.
type stageFunc func(ctx context.Context, f *model.UploadedFile) (map[string]any, error)

// errStageSkipped 表示文件已被其他 worker 领取，非错误.
var errStageSkipped = errors.New("stage skipped")

// runStage 领取 → 执行 → 推进 的单阶段模板，阶段内配超时.
func (p *Pipeline) runStage(ctx context.Context, f *model.UploadedFile,
	from, working, done, failed model.FileStatus,
	doneTopic, failTopic string, stage stageFunc,
) error {
	claimed, err := p.transition(ctx, f.ID, from, working, nil)
	if err != nil {
		return err
	}

	if !claimed {
		return nil
	}

	// 重新加载记录，拿到上一阶段写入的字段
	if err := p.db.WithContext(ctx).First(f, "id = ?", f.ID).Error; err != nil {
		return fmt.Errorf("reload file %s: %w", f.ID, err)
	}

	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.GetParsingTimeout())
	defer cancel()

	start := time.Now()

	patch, err := stage(stageCtx, f)
	if err != nil {
		p.fail(ctx, f.ID, working, failed, err)
		p.publishFailed(failTopic, f, failed, err)
		metrics.PipelineStageTotal.WithLabelValues(string(working), "failed").Inc()

		return fmt.Errorf("stage %s: %w", working, err)
	}

	ok, err := p.transition(ctx, f.ID, working, done, patch)
	if err != nil {
		return err
	}

	if !ok {
		return errStageSkipped
	}

	f.Status = done
	p.publishStage(doneTopic, f, done, time.Since(start))
	metrics.PipelineStageTotal.WithLabelValues(string(working), "ok").Inc()
	metrics.PipelineStageDuration.WithLabelValues(string(working)).Observe(time.Since(start).Seconds())

	log.Logger().Info().
		Str("file_id", f.ID).
		Str("status", string(done)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline stage done")

	return nil
}

func (p *Pipeline) publishStage(topic string, f *model.UploadedFile, status model.FileStatus, elapsed time.Duration) {
	if p.pub == nil {
		return
	}

	err := queue.PublishFileStage(p.pub, topic, queue.FileStagePayload{
		File:       fileRef(f),
		Status:     string(status),
		DurationMs: elapsed.Milliseconds(),
	}, queue.WithProducer("bidvault"))
	if err != nil {
		log.Logger().Warn().Err(err).Str("topic", topic).Msg("publish stage event failed")
	}
}

func (p *Pipeline) publishFailed(topic string, f *model.UploadedFile, status model.FileStatus, cause error) {
	if p.pub == nil {
		return
	}

	err := queue.PublishFileFailed(p.pub, topic, queue.FileFailedPayload{
		File:   fileRef(f),
		Status: string(status),
		Error:  cause.Error(),
	}, queue.WithProducer("bidvault"))
	if err != nil {
		log.Logger().Warn().Err(err).Str("topic", topic).Msg("publish failed event failed")
	}
}

func fileRef(f *model.UploadedFile) queue.FileRef {
	return queue.FileRef{
		FileID:   f.ID,
		Filename: f.Filename,
		SHA256:   f.SHA256,
		Size:     f.FileSize,
		Uploader: f.Uploader,
	}
}

// RecoverStale 将滞留超过 olderThan 的中间态文件回退到上一个稳定态
// 并重新排队，返回恢复的文件数.
func (p *Pipeline) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	recovered := 0

	for stale, reset := range staleResets {
		var files []model.UploadedFile

		err := p.db.WithContext(ctx).
			Where("status = ? AND status_updated_at < ?", stale, cutoff).
			Find(&files).Error
		if err != nil {
			return recovered, fmt.Errorf("scan stale %s: %w", stale, err)
		}

		for i := range files {
			f := &files[i]

			result := p.db.WithContext(ctx).
				Model(&model.UploadedFile{}).
				Where("id = ? AND status = ?", f.ID, stale).
				Updates(map[string]any{
					"status":            reset,
					"status_updated_at": time.Now(),
				})
			if result.Error != nil || result.RowsAffected == 0 {
				continue
			}

			recovered++

			metrics.StaleRecovered.Inc()

			log.Logger().Warn().
				Str("file_id", f.ID).
				Str("stale", string(stale)).
				Str("reset", string(reset)).
				Msg("stale task recovered")

			if p.pub != nil {
				_ = queue.PublishFileUploaded(p.pub, queue.FileUploadedPayload{
					File: fileRef(f),
				}, queue.WithProducer("bidvault"))
			}
		}
	}

	// 稳定态滞留（worker 崩溃在阶段间隙）直接重新排队
	for _, resumable := range []model.FileStatus{model.FileStatusUploaded, model.FileStatusParsed, model.FileStatusArchived} {
		var files []model.UploadedFile

		err := p.db.WithContext(ctx).
			Where("status = ? AND status_updated_at < ?", resumable, cutoff).
			Find(&files).Error
		if err != nil {
			return recovered, fmt.Errorf("scan resumable %s: %w", resumable, err)
		}

		for i := range files {
			recovered++

			if p.pub != nil {
				_ = queue.PublishFileUploaded(p.pub, queue.FileUploadedPayload{
					File: fileRef(&files[i]),
				}, queue.WithProducer("bidvault"))
			}
		}
	}

	return recovered, nil
}
