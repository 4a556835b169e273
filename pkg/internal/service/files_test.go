package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/bidvault/pkg/configs"
	ctxPkg "github.com/yeisme/bidvault/pkg/context"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/storage"
	dbc "github.com/yeisme/bidvault/pkg/internal/storage/db"
	"github.com/yeisme/bidvault/pkg/internal/types"
)

func newTestService(t *testing.T) (*FileService, *gorm.DB) {
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

	if err := configs.InitConfig(""); err != nil {
		t.Fatalf("init config: %v", err)
	}

	cfg := configs.GetConfig()
	cfg.Storage.UploadDir = t.TempDir()
	cfg.Storage.MaxFileSize = 1 << 20
	cfg.Storage.AllowedExtensions = []string{".pdf", ".docx", ".txt"}

	mgr := &storage.Manager{DB: &dbc.Client{DB: db}}
	ctx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return NewFileService(ctx), db
}

// fileHeader 构造 multipart 上传头，模拟 HTTP 表单文件.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("files", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}

	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}

	_ = w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}

	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["files"][0]
}

// TestUploadNew 首次上传建立记录并落盘.
func TestUploadNew(t *testing.T) {
	svc, db := newTestService(t)

	resp := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "投标文件.txt", []byte("某某项目投标内容"))})

	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}

	r := resp.Results[0]
	if !r.Success || r.Verdict != "new" || r.FileID == "" {
		t.Fatalf("verdict = %+v", r)
	}

	var f model.UploadedFile
	if err := db.First(&f, "id = ?", r.FileID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}

	if f.Status != model.FileStatusUploaded || f.Filetype != ".txt" || f.Version != 1 {
		t.Errorf("record = %+v", f)
	}

	if f.SHA256 != r.SHA256 || len(f.SHA256) != 64 {
		t.Errorf("sha256 = %q", f.SHA256)
	}

	info, err := os.Stat(f.TempPath)
	if err != nil {
		t.Fatalf("temp file missing: %v", err)
	}

	if info.Size() != f.FileSize {
		t.Errorf("size = %d, record %d", info.Size(), f.FileSize)
	}
}

// TestUploadSkipDuplicate 重复内容在 skip 策略下不入库且暂存被清理.
func TestUploadSkipDuplicate(t *testing.T) {
	svc, db := newTestService(t)
	content := []byte("重复内容")

	first := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "a.txt", content)})

	second := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "b.txt", content)})

	r := second.Results[0]
	if !r.Success || r.Verdict != "skipped_duplicate" {
		t.Fatalf("verdict = %+v", r)
	}

	if r.FileID != first.Results[0].FileID {
		t.Errorf("skip 应指回已有记录")
	}

	var count int64

	db.Model(&model.UploadedFile{}).Count(&count)

	if count != 1 {
		t.Errorf("records = %d, want 1", count)
	}

	entries, _ := os.ReadDir(configs.GetConfig().Storage.UploadDir)
	if len(entries) != 1 {
		t.Errorf("temp files = %d, want 1", len(entries))
	}
}

// TestUploadUpdateVersionChain update 策略接入版本链.
func TestUploadUpdateVersionChain(t *testing.T) {
	svc, db := newTestService(t)
	content := []byte("同一份文件")

	first := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "v1.txt", content)})

	second := svc.Upload(context.Background(), "tester@example.com", model.DuplicateUpdate, false,
		[]*multipart.FileHeader{fileHeader(t, "v2.txt", content)})

	r := second.Results[0]
	if r.Verdict != "new_version" || r.Version != 2 {
		t.Fatalf("verdict = %+v", r)
	}

	var f model.UploadedFile

	db.First(&f, "id = ?", r.FileID)

	if f.OriginalFileID == nil || *f.OriginalFileID != first.Results[0].FileID {
		t.Errorf("original_file_id = %v", f.OriginalFileID)
	}
}

// TestUploadOverwriteFailureKeepsPrior 覆盖上传中替换记录写入失败时整体回滚，
// 旧版本记录、衍生产物行与物理文件全部保持原样.
func TestUploadOverwriteFailureKeepsPrior(t *testing.T) {
	svc, db := newTestService(t)
	content := []byte("年度财务报告正文")

	first := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "v1.txt", content)})

	id := first.Results[0].FileID
	sha := first.Results[0].SHA256

	// 模拟已归档的旧版本及其衍生产物
	archPath := filepath.Join(t.TempDir(), "v1.pdf")
	if err := os.WriteFile(archPath, []byte("archived"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	db.Model(&model.UploadedFile{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.FileStatusArchived, "archive_path": archPath})

	imgPath := filepath.Join(t.TempDir(), "001.png")
	if err := os.WriteFile(imgPath, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	img := model.ExtractedImage{ID: "i1", FileID: id, ImagePath: imgPath, ImageNumber: 1}
	if err := db.Create(&img).Error; err != nil {
		t.Fatalf("seed image: %v", err)
	}

	// 让替换记录的写入失败
	rejecting := true

	err := db.Callback().Create().Before("gorm:create").Register("reject_uploaded_files",
		func(tx *gorm.DB) {
			if rejecting && tx.Statement.Table == "uploaded_files" {
				tx.AddError(errors.New("insert rejected"))
			}
		})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	second := svc.Upload(context.Background(), "tester@example.com", model.DuplicateOverwrite, false,
		[]*multipart.FileHeader{fileHeader(t, "v2.txt", content)})

	if second.Results[0].Success {
		t.Fatal("写入失败应向上传方报告失败")
	}

	rejecting = false

	var live int64

	db.Model(&model.UploadedFile{}).Where("sha256 = ?", sha).Count(&live)

	if live != 1 {
		t.Fatalf("live rows = %d, want 1", live)
	}

	var imgs int64

	db.Model(&model.ExtractedImage{}).Where("file_id = ?", id).Count(&imgs)

	if imgs != 1 {
		t.Errorf("image rows = %d, want 1", imgs)
	}

	for _, p := range []string{archPath, imgPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("旧产物不应被清理: %s (%v)", p, err)
		}
	}
}

// TestUploadRejectedExtension 白名单外的后缀被拒绝.
func TestUploadRejectedExtension(t *testing.T) {
	svc, _ := newTestService(t)

	resp := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "evil.exe", []byte("mz"))})

	if resp.Results[0].Success {
		t.Error(".exe 应被拒绝")
	}
}

// TestListFilterAndPaging 列表过滤与分页.
func TestListFilterAndPaging(t *testing.T) {
	svc, db := newTestService(t)

	for i, f := range []model.UploadedFile{
		{ID: "f1", Filename: "招标文件.pdf", Status: model.FileStatusIndexed, Category: "tender", Uploader: "a@example.com"},
		{ID: "f2", Filename: "投标文件.pdf", Status: model.FileStatusUploaded, Category: "proposal", Uploader: "a@example.com"},
		{ID: "f3", Filename: "投标附件.docx", Status: model.FileStatusUploaded, Category: "proposal", Uploader: "b@example.com"},
	} {
		f.SHA256 = f.ID
		f.StatusUpdatedAt = time.Now()
		f.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)

		if err := db.Create(&f).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	resp, err := svc.List(context.Background(), &types.ListFilesRequest{Category: "proposal"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Total != 2 || len(resp.Files) != 2 {
		t.Errorf("total = %d files = %d", resp.Total, len(resp.Files))
	}

	resp, err = svc.List(context.Background(), &types.ListFilesRequest{Keyword: "投标", Page: 1, PageSize: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Total != 2 || len(resp.Files) != 1 {
		t.Errorf("keyword page: total = %d files = %d", resp.Total, len(resp.Files))
	}
}

// TestStatusAndDetail 状态与详情查询.
func TestStatusAndDetail(t *testing.T) {
	svc, db := newTestService(t)

	f := model.UploadedFile{
		ID: "f1", Filename: "投标文件.txt", Status: model.FileStatusParsed,
		SHA256: "abc", StatusUpdatedAt: time.Now(),
	}
	_ = f.SetMetadata(&model.FileMetadata{ChapterCount: 1, TextLength: 100})

	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}

	ch := model.Chapter{
		ID: "c1", FileID: "f1", ChapterNumber: "一", ChapterTitle: "工程概况",
		ChapterLevel: 2, PositionOrder: 1, Content: "正文",
	}
	if err := db.Create(&ch).Error; err != nil {
		t.Fatalf("seed chapter: %v", err)
	}

	status, err := svc.Status(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if status.Status != "parsed" {
		t.Errorf("status = %s", status.Status)
	}

	detail, err := svc.Detail(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}

	if len(detail.Chapters) != 1 || detail.Chapters[0].ChapterTitle != "工程概况" {
		t.Errorf("chapters = %+v", detail.Chapters)
	}

	if detail.Metadata["chapter_count"] == nil {
		t.Errorf("metadata = %+v", detail.Metadata)
	}

	if _, err := svc.Status(context.Background(), "missing"); err == nil {
		t.Error("缺失记录应报错")
	}
}

// TestDeleteRemovesArtifacts 删除清掉记录、产物行与物理文件.
func TestDeleteRemovesArtifacts(t *testing.T) {
	svc, db := newTestService(t)

	resp := svc.Upload(context.Background(), "tester@example.com", model.DuplicateSkip, false,
		[]*multipart.FileHeader{fileHeader(t, "del.txt", []byte("待删除"))})

	id := resp.Results[0].FileID

	var f model.UploadedFile

	db.First(&f, "id = ?", id)

	imgPath := filepath.Join(t.TempDir(), "001.png")
	if err := os.WriteFile(imgPath, []byte("png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	img := model.ExtractedImage{ID: "i1", FileID: id, ImagePath: imgPath, ImageNumber: 1}
	if err := db.Create(&img).Error; err != nil {
		t.Fatalf("seed image: %v", err)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := db.First(&model.UploadedFile{}, "id = ?", id).Error; err == nil {
		t.Error("记录应被删除")
	}

	for _, p := range []string{f.TempPath, imgPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("物理文件未清理: %s", p)
		}
	}
}
