package extract

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/bidvault/pkg/configs"
)

// TestParseContentStream 内容流操作符恢复文本并保留行结构.
func TestParseContentStream(t *testing.T) {
	stream := []byte("BT\n(Hello) Tj\nT*\n(World) Tj\nET")

	got := parseContentStream(stream)
	if got != "Hello\nWorld" {
		t.Errorf("parseContentStream = %q, want %q", got, "Hello\nWorld")
	}
}

// TestParseContentStreamTJ TJ 数组操作符与 ' 换行操作符.
func TestParseContentStreamTJ(t *testing.T) {
	stream := []byte("[(abc) -120 (def)] TJ\n(next line) '")

	got := parseContentStream(stream)
	if got != "abcdef\nnext line" {
		t.Errorf("parseContentStream = %q", got)
	}
}

// TestDecodePDFString 转义序列与八进制编码.
func TestDecodePDFString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`a\nb`, "a\nb"},
		{`a\\b`, `a\b`},
		{`\050x\051`, "(x)"},
		{`plain`, "plain"},
	}

	for _, c := range cases {
		if got := decodePDFString([]byte(c.in)); got != c.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// writeTestDocx 构造一个最小的 .docx 文件.
func writeTestDocx(t *testing.T, dir string) string {
	t.Helper()

	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:jc w:val="center"/>
<w:rPr><w:rFonts w:eastAsia="宋体"/></w:rPr></w:pPr>
<w:r><w:t>第一部分合同协议书</w:t></w:r></w:p>
<w:p><w:pPr><w:rPr><w:rFonts w:eastAsia="宋体"/></w:rPr></w:pPr>
<w:r><w:t>一、工程概况</w:t></w:r></w:p>
<w:p><w:r><w:t>本工程为某某项目。</w:t></w:r></w:p>
<w:p><w:r><w:t> </w:t></w:r></w:p>
</w:body>
</w:document>`

	path := filepath.Join(dir, "test.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}

	if _, err := w.Write([]byte(docXML)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}

	m, err := zw.Create("word/media/image1.png")
	if err != nil {
		t.Fatalf("create media: %v", err)
	}

	if _, err := m.Write([]byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("write media: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	return path
}

// TestOpenDOCX 段落、样式、字体与媒体资源解析.
func TestOpenDOCX(t *testing.T) {
	path := writeTestDocx(t, t.TempDir())

	doc, err := OpenDOCX(path)
	if err != nil {
		t.Fatalf("OpenDOCX: %v", err)
	}

	// 空白段落被丢弃
	if len(doc.Paragraphs) != 3 {
		t.Fatalf("paragraphs = %d, want 3", len(doc.Paragraphs))
	}

	if doc.Paragraphs[0].Style != "Heading1" {
		t.Errorf("style = %q, want Heading1", doc.Paragraphs[0].Style)
	}

	if doc.Paragraphs[0].Alignment != "center" {
		t.Errorf("alignment = %q, want center", doc.Paragraphs[0].Alignment)
	}

	if doc.DominantFont() != "宋体" {
		t.Errorf("DominantFont = %q, want 宋体", doc.DominantFont())
	}

	if len(doc.Media) != 1 || doc.Media[0].Name != "image1.png" {
		t.Errorf("media = %+v", doc.Media)
	}

	text := doc.Text()
	want := "第一部分合同协议书\n一、工程概况\n本工程为某某项目。"

	if text != want {
		t.Errorf("Text = %q, want %q", text, want)
	}
}

// TestOCRClientRecognize OCR 客户端请求与响应解析.
func TestOCRClientRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"识别出的文本","confidence":0.92}`))
	}))
	defer srv.Close()

	client := newOCRClient(
		configs.OCRConfig{Enabled: true, Endpoint: srv.URL, Timeout: 5, Language: "ch"},
		configs.CircuitBreakerConfig{MinRequests: 100, FailureRate: 0.5},
	)

	text, err := client.Recognize(context.Background(), []byte("fake-image"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	if text != "识别出的文本" {
		t.Errorf("text = %q", text)
	}
}

// TestOCRClientDisabled 禁用状态直接报错，由调用方降级.
func TestOCRClientDisabled(t *testing.T) {
	client := newOCRClient(
		configs.OCRConfig{Enabled: false},
		configs.CircuitBreakerConfig{MinRequests: 100},
	)

	if client.Enabled() {
		t.Error("Enabled() = true, want false")
	}

	if _, err := client.Recognize(context.Background(), nil); err == nil {
		t.Error("Recognize 应在禁用时返回错误")
	}
}

// TestDocumentTextStats 来源统计与平均置信度.
func TestDocumentTextStats(t *testing.T) {
	d := &DocumentText{Pages: []PageText{
		{PageNr: 1, Source: SourceDirect, Confidence: 0.95},
		{PageNr: 2, Source: SourceOCR, Confidence: 0.85},
		{PageNr: 3, Source: SourceDirect, Confidence: 0.95},
	}}

	if d.DirectPages() != 2 {
		t.Errorf("DirectPages = %d, want 2", d.DirectPages())
	}

	if d.OCRPages() != 1 {
		t.Errorf("OCRPages = %d, want 1", d.OCRPages())
	}

	avg := d.AvgConfidence()
	if avg < 0.91 || avg > 0.92 {
		t.Errorf("AvgConfidence = %v", avg)
	}
}

// TestNormalizeLines 空行堆叠压缩.
func TestNormalizeLines(t *testing.T) {
	got := normalizeLines("a\n\n\n\nb\n  c  \n")
	if got != "a\n\nb\nc" {
		t.Errorf("normalizeLines = %q", got)
	}
}
