package images

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeisme/bidvault/pkg/internal/extract"
)

// pngBytes 生成一张纯色 PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

// TestSaveLayoutAndMetadata 落盘路径布局与元数据字段.
func TestSaveLayoutAndMetadata(t *testing.T) {
	root := t.TempDir()
	e := NewExtractor(root)

	data := pngBytes(t, 40, 30)
	page := 3

	s, err := e.save(data, "file-123", 2026, 1, &page, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	sum := md5.Sum(data)
	wantHash := hex.EncodeToString(sum[:])[:8]

	if s.Hash != wantHash {
		t.Errorf("Hash = %s, want %s", s.Hash, wantHash)
	}

	if s.Width != 40 || s.Height != 30 || s.Format != "png" {
		t.Errorf("bounds = %dx%d %s", s.Width, s.Height, s.Format)
	}

	wantDir := filepath.Join(root, "2026", "file-123")
	if filepath.Dir(s.Path) != wantDir {
		t.Errorf("dir = %s, want %s", filepath.Dir(s.Path), wantDir)
	}

	wantName := fmt.Sprintf("001_page3_%s.png", wantHash)
	if filepath.Base(s.Path) != wantName {
		t.Errorf("name = %s, want %s", filepath.Base(s.Path), wantName)
	}

	// 磁盘字节数与记录一致
	info, err := os.Stat(s.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if info.Size() != s.Size || s.Size != int64(len(data)) {
		t.Errorf("size = %d, want %d", info.Size(), len(data))
	}
}

// TestSaveWithoutPage 无页码时文件名不含 page 片段.
func TestSaveWithoutPage(t *testing.T) {
	e := NewExtractor(t.TempDir())

	s, err := e.save(pngBytes(t, 8, 8), "f", 2026, 7, nil, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	name := filepath.Base(s.Path)
	if strings.Contains(name, "page") || !strings.HasPrefix(name, "007_") {
		t.Errorf("name = %s", name)
	}
}

// TestSaveRejectsGarbage 无法识别格式且无提示时报错.
func TestSaveRejectsGarbage(t *testing.T) {
	e := NewExtractor(t.TempDir())

	if _, err := e.save([]byte("not an image"), "f", 2026, 1, nil, ""); err == nil {
		t.Error("乱码字节应返回错误")
	}

	if _, err := e.save(nil, "f", 2026, 1, nil, "png"); err == nil {
		t.Error("空字节应返回错误")
	}
}

// TestSaveFormatHintFallback 解码失败但有格式提示时按提示落盘.
func TestSaveFormatHintFallback(t *testing.T) {
	e := NewExtractor(t.TempDir())

	// pdfcpu 可能给出无法用标准库解码的原始流，此时信任提取层的格式
	s, err := e.save([]byte{0x01, 0x02, 0x03}, "f", 2026, 1, nil, "jpeg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if s.Format != "jpg" || s.Width != 0 {
		t.Errorf("format = %s width = %d", s.Format, s.Width)
	}
}

// TestExtractDOCXMedia DOCX media 部件全部落盘且编号连续.
func TestExtractDOCXMedia(t *testing.T) {
	e := NewExtractor(t.TempDir())

	doc := &extract.DOCXDocument{
		Media: []extract.DOCXMedia{
			{Name: "image1.png", Data: pngBytes(t, 10, 10)},
			{Name: "image2.png", Data: pngBytes(t, 20, 20)},
		},
	}

	saved := e.ExtractDOCX(doc, "file-abc", 2026)
	if len(saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(saved))
	}

	for i, s := range saved {
		if s.Number != i+1 {
			t.Errorf("Number = %d, want %d", s.Number, i+1)
		}

		if s.PageNr != nil {
			t.Errorf("DOCX 图片不应有页码")
		}

		if _, err := os.Stat(s.Path); err != nil {
			t.Errorf("stat %s: %v", s.Path, err)
		}
	}
}

// TestExtractDOCXSkipsBroken 单张损坏图片跳过，其余继续.
func TestExtractDOCXSkipsBroken(t *testing.T) {
	e := NewExtractor(t.TempDir())

	doc := &extract.DOCXDocument{
		Media: []extract.DOCXMedia{
			{Name: "broken", Data: []byte("xx")},
			{Name: "image2.png", Data: pngBytes(t, 5, 5)},
		},
	}

	saved := e.ExtractDOCX(doc, "f", 2026)
	if len(saved) != 1 {
		t.Fatalf("saved = %d, want 1", len(saved))
	}

	if saved[0].Number != 2 {
		t.Errorf("Number = %d, want 2 (序号保持原始位置)", saved[0].Number)
	}
}
