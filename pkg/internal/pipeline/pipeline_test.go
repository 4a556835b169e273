package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/bidvault/pkg/configs"
	"github.com/yeisme/bidvault/pkg/internal/archive"
	"github.com/yeisme/bidvault/pkg/internal/extract"
	"github.com/yeisme/bidvault/pkg/internal/finreport"
	"github.com/yeisme/bidvault/pkg/internal/images"
	"github.com/yeisme/bidvault/pkg/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&model.UploadedFile{},
		&model.Chapter{},
		&model.ExtractedImage{},
		&model.FinancialReportSegment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

func newTestPipeline(t *testing.T, db *gorm.DB) *Pipeline {
	t.Helper()

	cfg := configs.PipelineConfig{
		MaxConcurrentTasks: 2,
		ParsingTimeout:     60,
		ClassifyPageSample: 20,
		MinRangePages:      3,
	}

	noSplit := func(_ context.Context, _ *extract.PDFDocument, _ string) ([]finreport.Segment, error) {
		return nil, nil
	}

	embed := NewEmbeddingClient(
		configs.EmbeddingConfig{Enabled: false},
		configs.CircuitBreakerConfig{MinRequests: 100},
	)

	return New(db, cfg,
		archive.NewArchiver(t.TempDir(), nil, ""),
		images.NewExtractor(t.TempDir()),
		noSplit, embed, nil)
}

func seedUploaded(t *testing.T, db *gorm.DB, id, path, filename, filetype string) *model.UploadedFile {
	t.Helper()

	f := &model.UploadedFile{
		ID:              id,
		Filename:        filename,
		Filetype:        filetype,
		FilePath:        path,
		TempPath:        path,
		SHA256:          "cafe" + id,
		Status:          model.FileStatusUploaded,
		Uploader:        "tester",
		Version:         1,
		StatusUpdatedAt: time.Now(),
	}

	if err := db.Create(f).Error; err != nil {
		t.Fatalf("seed uploaded: %v", err)
	}

	return f
}

// TestCanTransition 状态机推进表.
func TestCanTransition(t *testing.T) {
	allowed := [][2]model.FileStatus{
		{model.FileStatusUploaded, model.FileStatusParsing},
		{model.FileStatusParsing, model.FileStatusParsed},
		{model.FileStatusParsing, model.FileStatusParseFailed},
		{model.FileStatusParsed, model.FileStatusArchiving},
		{model.FileStatusArchiving, model.FileStatusArchived},
		{model.FileStatusArchiving, model.FileStatusArchiveFailed},
		{model.FileStatusArchived, model.FileStatusIndexing},
		{model.FileStatusIndexing, model.FileStatusIndexed},
		{model.FileStatusIndexing, model.FileStatusIndexFailed},
	}

	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("%s -> %s 应为合法推进", pair[0], pair[1])
		}
	}

	denied := [][2]model.FileStatus{
		{model.FileStatusUploaded, model.FileStatusParsed},
		{model.FileStatusParsed, model.FileStatusIndexing},
		{model.FileStatusIndexed, model.FileStatusParsing},
		{model.FileStatusParseFailed, model.FileStatusParsing},
		{model.FileStatusUploaded, model.FileStatusParseFailed},
	}

	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("%s -> %s 应为非法推进", pair[0], pair[1])
		}
	}
}

// TestTransitionClaim 条件更新保证同一文件只被一个 worker 领取.
func TestTransitionClaim(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)
	seedUploaded(t, db, "f1", "/tmp/f1.txt", "a.txt", ".txt")

	ctx := context.Background()

	ok, err := p.transition(ctx, "f1", model.FileStatusUploaded, model.FileStatusParsing, nil)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}

	ok, err = p.transition(ctx, "f1", model.FileStatusUploaded, model.FileStatusParsing, nil)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}

	if ok {
		t.Error("第二次领取应失败")
	}
}

// TestTransitionIllegal 非法推进直接报错.
func TestTransitionIllegal(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)
	seedUploaded(t, db, "f1", "/tmp/f1.txt", "a.txt", ".txt")

	if _, err := p.transition(context.Background(), "f1",
		model.FileStatusUploaded, model.FileStatusIndexed, nil); err == nil {
		t.Error("非法推进应报错")
	}
}

// TestProcessTxtEndToEnd 纯文本文件从 uploaded 一路推进到 indexed.
func TestProcessTxtEndToEnd(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)

	content := strings.Join([]string{
		"某某项目施工招标",
		"一、工程概况",
		"本工程位于某地，总建筑面积一万平方米。",
		"二、质量要求",
		"达到国家现行验收规范合格标准。",
		"三、工期要求",
		"计划工期三百天。",
	}, "\n")

	src := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	seedUploaded(t, db, "f1", src, "某某项目投标文件.txt", ".txt")

	if err := p.Process(context.Background(), "f1"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	var f model.UploadedFile
	if err := db.First(&f, "id = ?", "f1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}

	if f.Status != model.FileStatusIndexed {
		t.Fatalf("status = %s, want indexed (error_log: %s)", f.Status, f.ErrorLog)
	}

	if f.ParsedAt == nil || f.ArchivedAt == nil || f.IndexedAt == nil {
		t.Error("阶段时间戳未填充")
	}

	// 章节入库
	var chapters []model.Chapter

	db.Where("file_id = ?", "f1").Order("position_order ASC").Find(&chapters)

	if len(chapters) != 3 {
		t.Fatalf("chapters = %d, want 3", len(chapters))
	}

	if chapters[0].ChapterTitle != "工程概况" || chapters[0].ChapterNumber != "一" {
		t.Errorf("chapter[0] = %+v", chapters[0])
	}

	// 归档落点与语义文件名
	if f.ArchivePath == "" || f.FilePath != f.ArchivePath {
		t.Errorf("archive path = %q file path = %q", f.ArchivePath, f.FilePath)
	}

	if _, err := os.Stat(f.ArchivePath); err != nil {
		t.Errorf("归档件不存在: %v", err)
	}

	if !strings.Contains(f.SemanticFilename, "某某项目") || !strings.HasSuffix(f.SemanticFilename, ".txt") {
		t.Errorf("semantic filename = %q", f.SemanticFilename)
	}

	// 元数据
	meta, err := f.GetMetadata()
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}

	if meta.ChapterCount != 3 || meta.TextLength == 0 {
		t.Errorf("meta = %+v", meta)
	}

	if f.Category != "proposal" {
		t.Errorf("category = %s, want proposal", f.Category)
	}
}

// TestProcessLegacyDocStoreOnly 旧版 .doc 没有解析器：原样归档推进到终态，
// 元数据如实记录仅存储，不产出章节.
func TestProcessLegacyDocStoreOnly(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)

	src := filepath.Join(t.TempDir(), "legacy.doc")
	if err := os.WriteFile(src, []byte{0xd0, 0xcf, 0x11, 0xe0}, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	seedUploaded(t, db, "f1", src, "某某项目投标文件.doc", ".doc")

	if err := p.Process(context.Background(), "f1"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	var f model.UploadedFile
	if err := db.First(&f, "id = ?", "f1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}

	if f.Status != model.FileStatusIndexed {
		t.Fatalf("status = %s, want indexed (error_log: %s)", f.Status, f.ErrorLog)
	}

	meta, err := f.GetMetadata()
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}

	if meta.Strategy != "store_only" {
		t.Errorf("strategy = %q, want store_only", meta.Strategy)
	}

	if meta.ChapterCount != 0 || meta.TextLength != 0 {
		t.Errorf("meta = %+v", meta)
	}

	var chapters int64

	db.Model(&model.Chapter{}).Where("file_id = ?", "f1").Count(&chapters)

	if chapters != 0 {
		t.Errorf("chapters = %d, want 0", chapters)
	}

	if f.ArchivePath == "" {
		t.Error("归档路径未填充")
	}
}

// TestProcessParseFailure 源文件缺失时进入 parse_failed 且记录错误.
func TestProcessParseFailure(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)
	seedUploaded(t, db, "f1", "/no/such/file.txt", "a.txt", ".txt")

	if err := p.Process(context.Background(), "f1"); err == nil {
		t.Fatal("缺失文件应返回错误")
	}

	var f model.UploadedFile

	db.First(&f, "id = ?", "f1")

	if f.Status != model.FileStatusParseFailed {
		t.Errorf("status = %s, want parse_failed", f.Status)
	}

	if f.ErrorLog == "" {
		t.Error("error_log 未记录")
	}
}

// TestProcessTerminalNoop 终态文件不再被处理.
func TestProcessTerminalNoop(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)

	f := seedUploaded(t, db, "f1", "/tmp/x.txt", "a.txt", ".txt")
	db.Model(f).Updates(map[string]any{"status": model.FileStatusIndexed})

	if err := p.Process(context.Background(), "f1"); err != nil {
		t.Errorf("终态处理应为空操作: %v", err)
	}
}

// TestRecoverStale 滞留中间态回退到上一个稳定态.
func TestRecoverStale(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)

	f := seedUploaded(t, db, "f1", "/tmp/x.txt", "a.txt", ".txt")
	db.Model(f).Updates(map[string]any{
		"status":            model.FileStatusParsing,
		"status_updated_at": time.Now().Add(-time.Hour),
	})

	n, err := p.RecoverStale(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("RecoverStale: %v", err)
	}

	if n != 1 {
		t.Errorf("recovered = %d, want 1", n)
	}

	var got model.UploadedFile

	db.First(&got, "id = ?", "f1")

	if got.Status != model.FileStatusUploaded {
		t.Errorf("status = %s, want uploaded", got.Status)
	}
}

// TestRecoverStaleFresh 未超时的任务不被打扰.
func TestRecoverStaleFresh(t *testing.T) {
	db := openTestDB(t)
	p := newTestPipeline(t, db)

	f := seedUploaded(t, db, "f1", "/tmp/x.txt", "a.txt", ".txt")
	db.Model(f).Updates(map[string]any{"status": model.FileStatusParsing})

	n, err := p.RecoverStale(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("RecoverStale: %v", err)
	}

	if n != 0 {
		t.Errorf("recovered = %d, want 0", n)
	}
}

// TestChunk 文本切块边界.
func TestChunk(t *testing.T) {
	if got := Chunk("", 10); got != nil {
		t.Errorf("空文本应返回 nil, got %v", got)
	}

	if got := Chunk("短文本", 10); len(got) != 1 || got[0] != "短文本" {
		t.Errorf("短文本应单块返回, got %v", got)
	}

	// 切点优先落在换行处
	text := strings.Repeat("甲", 8) + "\n" + strings.Repeat("乙", 8)
	got := Chunk(text, 10)

	if len(got) != 2 {
		t.Fatalf("chunks = %d, want 2", len(got))
	}

	if !strings.HasSuffix(got[0], "\n") || strings.Contains(got[1], "甲") {
		t.Errorf("chunks = %q", got)
	}

	// 无换行时按窗口硬切
	hard := Chunk(strings.Repeat("丙", 25), 10)
	if len(hard) != 3 {
		t.Errorf("hard chunks = %d, want 3", len(hard))
	}
}

// TestEmbeddingDisabled 向量化未启用时 Embed 报错，索引阶段需自行跳过.
func TestEmbeddingDisabled(t *testing.T) {
	c := NewEmbeddingClient(
		configs.EmbeddingConfig{Enabled: false},
		configs.CircuitBreakerConfig{MinRequests: 100},
	)

	if c.Enabled() {
		t.Error("Enabled() = true, want false")
	}

	if _, err := c.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("禁用时 Embed 应报错")
	}
}
