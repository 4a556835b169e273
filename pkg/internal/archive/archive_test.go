package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)

// TestProjectName 项目名识别的三级退回.
func TestProjectName(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		content  string
		want     string
	}{
		{"文件名命中", "某某大桥建设工程投标文件.pdf", "", "某某大桥建设工程"},
		{"正文退回", "scan_001.pdf", "招标人：某某公司\n智慧园区管理平台建设项目招标文件", "智慧园区管理平台建设项目"},
		{"占位名", "scan_001.pdf", "无关内容", "未命名项目"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ProjectName(c.filename, c.content); got != c.want {
				t.Errorf("ProjectName = %q, want %q", got, c.want)
			}
		})
	}
}

// TestDocDate 日期识别兼容连字符与中文单位.
func TestDocDate(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"投标文件2024-03-15终版.pdf", "2024-03-15"},
		{"2023年7月5日开标记录.docx", "2023-07-05"},
		{"投标文件.pdf", "2026-08-28"},
	}

	for _, c := range cases {
		if got := DocDate(c.filename, testNow); got != c.want {
			t.Errorf("DocDate(%q) = %q, want %q", c.filename, got, c.want)
		}
	}
}

// TestVersion 版本号标记.
func TestVersion(t *testing.T) {
	if got := Version("标书V2.1终版.pdf"); got != "v2.1" {
		t.Errorf("Version = %q, want v2.1", got)
	}

	if got := Version("标书终版.pdf"); got != "" {
		t.Errorf("Version = %q, want empty", got)
	}
}

// TestSanitize 非法字符剔除.
func TestSanitize(t *testing.T) {
	if got := Sanitize(`a<b>c:d"e/f\g|h?i*j`); got != "abcdefghij" {
		t.Errorf("Sanitize = %q", got)
	}
}

// TestSemanticFilename 完整文件名组装.
func TestSemanticFilename(t *testing.T) {
	got := SemanticFilename("某某项目投标文件2024-03-15_v2.pdf", "", "投标文件", ".PDF", testNow)
	want := "2024-03-15_某某项目_投标文件_v2.pdf"

	if got != want {
		t.Errorf("SemanticFilename = %q, want %q", got, want)
	}
}

// TestArchiveMoveAndLayout 归档目录树与文件移动.
func TestArchiveMoveAndLayout(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "src.pdf")

	if err := os.WriteFile(src, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	a := NewArchiver(root, nil, "")

	r, err := a.Archive(context.Background(), src, "2026-08-28_某某项目_投标文件.pdf", "proposal", testNow)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	want := filepath.Join(root, "2026", "08", "proposal", "2026-08-28_某某项目_投标文件.pdf")
	if r.Path != want {
		t.Errorf("path = %s, want %s", r.Path, want)
	}

	if _, err := os.Stat(r.Path); err != nil {
		t.Errorf("归档件不存在: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("源文件应已移走")
	}

	if r.ObjectKey != "" {
		t.Errorf("未配置镜像时 ObjectKey 应为空")
	}
}

// TestArchiveNameCollision 同名冲突追加序号.
func TestArchiveNameCollision(t *testing.T) {
	root := t.TempDir()
	a := NewArchiver(root, nil, "")

	for i, wantBase := range []string{"报告.pdf", "报告_1.pdf", "报告_2.pdf"} {
		src := filepath.Join(t.TempDir(), "src.pdf")
		if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
			t.Fatalf("write src %d: %v", i, err)
		}

		r, err := a.Archive(context.Background(), src, "报告.pdf", "report", testNow)
		if err != nil {
			t.Fatalf("Archive %d: %v", i, err)
		}

		if filepath.Base(r.Path) != wantBase {
			t.Errorf("第 %d 次归档 = %s, want %s", i+1, filepath.Base(r.Path), wantBase)
		}
	}
}
