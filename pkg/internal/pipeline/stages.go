package pipeline

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"

	appcache "github.com/yeisme/bidvault/pkg/cache"
	"github.com/yeisme/bidvault/pkg/internal/archive"
	"github.com/yeisme/bidvault/pkg/internal/chapter"
	"github.com/yeisme/bidvault/pkg/internal/classify"
	"github.com/yeisme/bidvault/pkg/internal/extract"
	"github.com/yeisme/bidvault/pkg/internal/finreport"
	"github.com/yeisme/bidvault/pkg/internal/images"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/log"
	"github.com/yeisme/bidvault/pkg/queue"
)

// splitFunc 财报年份切分的注入点，生产实现为 finreport.Splitter.Split.
type splitFunc func(ctx context.Context, doc *extract.PDFDocument, stem string) ([]finreport.Segment, error)

// parse 解析阶段：分类、文本提取、章节切分、图片提取、财报切分，
// 全部产物在一个事务内落库.
func (p *Pipeline) parse(ctx context.Context, f *model.UploadedFile) (map[string]any, error) {
	ext := strings.ToLower(f.Filetype)
	meta := model.NewFileMetadata()

	var (
		docText   *extract.DocumentText
		sections  []chapter.Section
		saved     []images.Saved
		segments  []finreport.Segment
		structure *model.StructureData
	)

	switch ext {
	case ".pdf":
		doc, err := extract.OpenPDF(f.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open pdf: %w", err)
		}

		analysis := p.classifyCached(ctx, f, doc)
		meta.PageCount = doc.PageCount()
		meta.Strategy = string(analysis.Strategy)
		meta.Confidence = analysis.Confidence
		meta.Years = analysis.Years

		switch analysis.Strategy {
		case classify.StrategyGroupByYearStore:
			stem := strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename))

			segments, err = p.splitter(ctx, doc, archive.Sanitize(stem))
			if err != nil {
				return nil, fmt.Errorf("split financial report: %w", err)
			}

		case classify.StrategyStorePDFOnly:
			// 证件、业绩类只存储，不展开解析

		default:
			docText = extract.ExtractPDFText(ctx, doc, extract.OCR())
			sections = chapter.NewExtractor().Extract(docText.Text)
			saved = p.images.ExtractPDF(doc, f.ID, time.Now().Year())
		}

	case ".docx":
		doc, err := extract.OpenDOCX(f.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open docx: %w", err)
		}

		docText = extract.ExtractDOCXText(doc)
		sections = chapter.NewExtractor().Extract(docText.Text)
		saved = p.images.ExtractDOCX(doc, f.ID, time.Now().Year())
		structure = &model.StructureData{
			DominantFont:   doc.DominantFont(),
			Alignment:      doc.DominantAlignment(),
			ParagraphCount: len(doc.Paragraphs),
		}
		meta.Strategy = string(classify.StrategyExtractTextWord)

	case ".txt":
		var err error

		docText, err = extract.ExtractPlainText(f.FilePath)
		if err != nil {
			return nil, fmt.Errorf("read text file: %w", err)
		}

		sections = chapter.NewExtractor().Extract(docText.Text)
		meta.Strategy = string(classify.StrategyHybridParse)

	default:
		// .doc/.xlsx 等暂不展开，仅分类存储
		analysis := classify.Classify(f.Filename, classify.DocumentInfo{})
		meta.Strategy = string(analysis.Strategy)
		meta.Confidence = analysis.Confidence
	}

	var content string
	if docText != nil {
		content = docText.Text
		meta.TextLength = len([]rune(content))
		meta.DirectPages = docText.DirectPages()
		meta.OCRPages = docText.OCRPages()
		meta.AvgConfidence = docText.AvgConfidence()
	}

	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		titles = append(titles, s.Text)
	}

	category := classify.Category(f.Filename, content, titles)
	meta.Category = string(category)
	meta.ChapterCount = len(sections)
	meta.ImageCount = len(saved)

	if err := p.persistParse(ctx, f, sections, saved, segments, structure); err != nil {
		return nil, err
	}

	p.publishArtifacts(f, sections, saved, segments)

	carrier := model.UploadedFile{}
	if err := carrier.SetMetadata(meta); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	return map[string]any{
		"metadata":  carrier.Metadata,
		"category":  string(category),
		"parsed_at": time.Now(),
	}, nil
}

// classifyCached 分类结果按 SHA-256 缓存；同一内容的分类结果恒定，
// 覆盖或版本更新重传同一文件时免去逐页采样.
func (p *Pipeline) classifyCached(ctx context.Context, f *model.UploadedFile, doc *extract.PDFDocument) classify.Analysis {
	if p.cache == nil || f.SHA256 == "" {
		return p.classifyPDF(f.Filename, doc)
	}

	analysis, err := appcache.GetOrSet(ctx, p.cache, "classify:"+f.SHA256,
		func() (classify.Analysis, error) {
			return p.classifyPDF(f.Filename, doc), nil
		}, 24*time.Hour)
	if err != nil {
		return p.classifyPDF(f.Filename, doc)
	}

	return analysis
}

// classifyPDF 采样前若干页的观测值交给分类器.
func (p *Pipeline) classifyPDF(filename string, doc *extract.PDFDocument) classify.Analysis {
	sample := doc.PageCount()

	if limit := p.cfg.ClassifyPageSample; limit > 0 && sample > limit {
		sample = limit
	}

	if sample > classify.MaxSampledPages {
		sample = classify.MaxSampledPages
	}

	stats := make([]classify.PageStats, 0, sample)

	for pageNr := 1; pageNr <= sample; pageNr++ {
		textLen, imgCount, ratio := doc.PageStatsOf(pageNr)
		stats = append(stats, classify.PageStats{
			TextLen:        textLen,
			ImageCount:     imgCount,
			ImageAreaRatio: ratio,
		})
	}

	return classify.Classify(filename, classify.DocumentInfo{
		TotalPages:    doc.PageCount(),
		PageStats:     stats,
		FirstPageText: doc.PageText(1),
	})
}

// ulidEntropy 产物行 ID 的单调熵源，批量插入时保持时间有序.
var ulidEntropy = ulid.Monotonic(crand.Reader, 0)

// newArtifactID 生成时间有序的产物行 ID.
func newArtifactID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String()
}

// persistParse 解析产物整体落库：重解析时先清掉旧产物，保证幂等.
func (p *Pipeline) persistParse(ctx context.Context, f *model.UploadedFile,
	sections []chapter.Section, saved []images.Saved,
	segments []finreport.Segment, structure *model.StructureData,
) error {
	now := time.Now()

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.Chapter{}, &model.ExtractedImage{}, &model.FinancialReportSegment{}} {
			if err := tx.Where("file_id = ?", f.ID).Delete(m).Error; err != nil {
				return fmt.Errorf("clear stale artifacts: %w", err)
			}
		}

		for i, sec := range sections {
			row := model.Chapter{
				ID:            newArtifactID(now),
				FileID:        f.ID,
				ChapterNumber: sec.Number,
				ChapterTitle:  sec.Text,
				ChapterLevel:  sec.Level,
				PositionOrder: i + 1,
				Content:       sec.Content,
				CreatedAt:     now,
			}

			if structure != nil {
				if err := row.SetStructureData(structure); err != nil {
					return err
				}
			}

			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert chapter %d: %w", i+1, err)
			}
		}

		for _, s := range saved {
			row := model.ExtractedImage{
				ID:          newArtifactID(now),
				FileID:      f.ID,
				ImagePath:   s.Path,
				ImageNumber: s.Number,
				PageNumber:  s.PageNr,
				Format:      s.Format,
				Size:        s.Size,
				Width:       s.Width,
				Height:      s.Height,
				Hash:        s.Hash,
				ExtractedAt: now,
			}

			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert image %d: %w", s.Number, err)
			}
		}

		for _, seg := range segments {
			row := model.FinancialReportSegment{
				ID:          newArtifactID(now),
				FileID:      f.ID,
				Year:        seg.Year,
				ArchivePath: seg.Path,
				PageCount:   len(seg.Pages),
				FileSize:    seg.Size,
				ArchivedAt:  seg.ArchivedAt,
			}

			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert financial segment: %w", err)
			}
		}

		return nil
	})
}

// publishArtifacts 发布衍生产物事件，尽力而为.
func (p *Pipeline) publishArtifacts(f *model.UploadedFile,
	sections []chapter.Section, saved []images.Saved, segments []finreport.Segment,
) {
	if p.pub == nil {
		return
	}

	ref := fileRef(f)

	if len(sections) > 0 {
		fallback := len(sections) == 1 && sections[0].Number == "1" && sections[0].Text == "全文"

		msg, err := queue.NewWatermillMessage(queue.TopicChapterExtracted, queue.ChapterExtractedPayload{
			File:         ref,
			ChapterCount: len(sections),
			Fallback:     fallback,
		}, queue.WithProducer("bidvault"))
		if err == nil {
			_ = p.pub.Publish(queue.TopicChapterExtracted, msg)
		}
	}

	if len(saved) > 0 {
		msg, err := queue.NewWatermillMessage(queue.TopicImageExtracted, queue.ImageExtractedPayload{
			File:       ref,
			ImageCount: len(saved),
		}, queue.WithProducer("bidvault"))
		if err == nil {
			_ = p.pub.Publish(queue.TopicImageExtracted, msg)
		}
	}

	if len(segments) > 0 {
		years := make([]int, 0, len(segments))

		for _, seg := range segments {
			if seg.Year != nil {
				years = append(years, *seg.Year)
			}
		}

		msg, err := queue.NewWatermillMessage(queue.TopicFinreportSplit, queue.FinreportSplitPayload{
			File:  ref,
			Years: years,
		}, queue.WithProducer("bidvault"))
		if err == nil {
			_ = p.pub.Publish(queue.TopicFinreportSplit, msg)
		}
	}
}

// archive 归档阶段：生成语义文件名并把文件移入归档目录树.
func (p *Pipeline) archive(ctx context.Context, f *model.UploadedFile) (map[string]any, error) {
	now := time.Now()
	label := classify.FileCategory(f.Category).Label()

	// 项目名退回用第一章正文开头
	var first model.Chapter

	var contentSample string

	err := p.db.WithContext(ctx).
		Where("file_id = ?", f.ID).
		Order("position_order ASC").
		First(&first).Error
	if err == nil {
		contentSample = first.Content
	}

	name := archive.SemanticFilename(f.Filename, contentSample, label, strings.ToLower(f.Filetype), now)

	res, err := p.archiver.Archive(ctx, f.FilePath, name, f.Category, now)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	return map[string]any{
		"archive_path":      res.Path,
		"file_path":         res.Path,
		"semantic_filename": filepath.Base(res.Path),
		"archived_at":       now,
	}, nil
}

// index 索引阶段：章节内容切块后提交向量化服务.
// 向量化未启用时直接进入终态.
func (p *Pipeline) index(ctx context.Context, f *model.UploadedFile) (map[string]any, error) {
	patch := map[string]any{"indexed_at": time.Now()}

	if !p.embed.Enabled() {
		log.Logger().Debug().Str("file_id", f.ID).Msg("embedding disabled, index skipped")

		return patch, nil
	}

	var chapters []model.Chapter

	err := p.db.WithContext(ctx).
		Where("file_id = ?", f.ID).
		Order("position_order ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}

	var sb strings.Builder
	for _, c := range chapters {
		sb.WriteString(c.ChapterTitle)
		sb.WriteByte('\n')
		sb.WriteString(c.Content)
		sb.WriteByte('\n')
	}

	chunks := Chunk(sb.String(), p.embed.ChunkSize())
	if len(chunks) == 0 {
		return patch, nil
	}

	n, err := p.embed.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	log.Logger().Info().Str("file_id", f.ID).Int("chunks", len(chunks)).Int("vectors", n).Msg("file indexed")

	return patch, nil
}
