package dedup

import (
	"bytes"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/bidvault/pkg/internal/model"
)

// openTestDB 打开内存 SQLite 并建表.
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

func seedFile(t *testing.T, db *gorm.DB, id, sha string, version int, original *string) *model.UploadedFile {
	t.Helper()

	f := &model.UploadedFile{
		ID:              id,
		Filename:        "标书.pdf",
		Filetype:        ".pdf",
		TempPath:        "/tmp/" + id + ".pdf",
		SHA256:          sha,
		Status:          model.FileStatusIndexed,
		Version:         version,
		OriginalFileID:  original,
		StatusUpdatedAt: time.Now(),
	}

	if err := db.Create(f).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}

	return f
}

// TestHashStream 摘要与字节数.
func TestHashStream(t *testing.T) {
	sha, n, err := HashStream(bytes.NewReader([]byte("abc")))
	if err != nil {
		t.Fatalf("HashStream: %v", err)
	}

	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if sha != want {
		t.Errorf("sha = %s, want %s", sha, want)
	}

	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
}

// TestResolveNew 无同哈希记录时按新文件入库.
func TestResolveNew(t *testing.T) {
	db := openTestDB(t)

	r, err := Resolve(db, "deadbeef", model.DuplicateSkip)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if r.Verdict != VerdictNew || r.Version != 1 || r.Existing != nil {
		t.Errorf("resolution = %+v", r)
	}
}

// TestResolveSkip 命中重复且策略为 skip.
func TestResolveSkip(t *testing.T) {
	db := openTestDB(t)
	seedFile(t, db, "f1", "aaaa", 1, nil)

	r, err := Resolve(db, "aaaa", model.DuplicateSkip)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if r.Verdict != VerdictSkipped || r.Existing == nil || r.Existing.ID != "f1" {
		t.Errorf("resolution = %+v", r)
	}
}

// TestResolveUpdateChain update 策略形成版本链，根指针始终指向第一版.
func TestResolveUpdateChain(t *testing.T) {
	db := openTestDB(t)

	root := "f1"
	seedFile(t, db, "f1", "aaaa", 1, nil)
	seedFile(t, db, "f2", "aaaa", 2, &root)

	r, err := Resolve(db, "aaaa", model.DuplicateUpdate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if r.Verdict != VerdictNewVersion {
		t.Fatalf("verdict = %s", r.Verdict)
	}

	// 以最新一版为基准递增
	if r.Version != 3 {
		t.Errorf("version = %d, want 3", r.Version)
	}

	if r.OriginalFileID == nil || *r.OriginalFileID != "f1" {
		t.Errorf("original = %v, want f1", r.OriginalFileID)
	}
}

// TestResolveOverwriteCascade overwrite 级联删除旧记录与衍生产物.
func TestResolveOverwriteCascade(t *testing.T) {
	db := openTestDB(t)
	f := seedFile(t, db, "f1", "aaaa", 1, nil)
	f.ArchivePath = "/archive/f1.pdf"
	db.Save(f)

	db.Create(&model.Chapter{ID: "c1", FileID: "f1", ChapterNumber: "1", ChapterTitle: "总则", ChapterLevel: 2, PositionOrder: 1})
	db.Create(&model.ExtractedImage{ID: "i1", FileID: "f1", ImageNumber: 1, ImagePath: "/img/001.png"})

	year := 2023
	db.Create(&model.FinancialReportSegment{ID: "s1", FileID: "f1", Year: &year, ArchivePath: "/fin/2023.pdf"})

	r, err := Resolve(db, "aaaa", model.DuplicateOverwrite)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if r.Verdict != VerdictOverwritten || r.Version != 1 {
		t.Errorf("resolution = %+v", r)
	}

	// 物理清理路径包含旧文件与全部产物
	wantPaths := map[string]bool{
		"/tmp/f1.pdf":     false,
		"/archive/f1.pdf": false,
		"/img/001.png":    false,
		"/fin/2023.pdf":   false,
	}

	for _, p := range r.OrphanPaths {
		if _, ok := wantPaths[p]; !ok {
			t.Errorf("多余的路径 %s", p)
		}

		wantPaths[p] = true
	}

	for p, seen := range wantPaths {
		if !seen {
			t.Errorf("缺少路径 %s", p)
		}
	}

	var cnt int64

	db.Model(&model.Chapter{}).Where("file_id = ?", "f1").Count(&cnt)
	if cnt != 0 {
		t.Errorf("chapters = %d", cnt)
	}

	db.Model(&model.ExtractedImage{}).Where("file_id = ?", "f1").Count(&cnt)
	if cnt != 0 {
		t.Errorf("images = %d", cnt)
	}

	db.Model(&model.FinancialReportSegment{}).Where("file_id = ?", "f1").Count(&cnt)
	if cnt != 0 {
		t.Errorf("segments = %d", cnt)
	}

	// 旧文件记录对后续查重不可见
	r2, err := Resolve(db, "aaaa", model.DuplicateSkip)
	if err != nil {
		t.Fatalf("Resolve after overwrite: %v", err)
	}

	if r2.Verdict != VerdictNew {
		t.Errorf("verdict = %s, want new", r2.Verdict)
	}
}

// TestResolveInvalidAction 非法策略报错.
func TestResolveInvalidAction(t *testing.T) {
	db := openTestDB(t)
	seedFile(t, db, "f1", "aaaa", 1, nil)

	if _, err := Resolve(db, "aaaa", model.DuplicateAction("purge")); err == nil {
		t.Error("非法策略应返回错误")
	}
}
