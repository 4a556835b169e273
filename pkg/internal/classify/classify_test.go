package classify

import (
	"strings"
	"testing"
)

// scanStats 构造 n 页扫描页观测值.
func scanStats(n int) []PageStats {
	stats := make([]PageStats, n)
	for i := range stats {
		stats[i] = PageStats{TextLen: 20, ImageCount: 1, ImageAreaRatio: 0.9}
	}

	return stats
}

// textStats 构造 n 页文本页观测值.
func textStats(n int) []PageStats {
	stats := make([]PageStats, n)
	for i := range stats {
		stats[i] = PageStats{TextLen: 1200, ImageCount: 0, ImageAreaRatio: 0}
	}

	return stats
}

// TestAnalyzePage 页面类型判定规则.
func TestAnalyzePage(t *testing.T) {
	cases := []struct {
		name  string
		stats PageStats
		want  PageType
	}{
		{"空白页", PageStats{TextLen: 10, ImageCount: 0}, PageBlank},
		{"文本页", PageStats{TextLen: 800, ImageCount: 0, ImageAreaRatio: 0.1}, PageText},
		{"扫描页", PageStats{TextLen: 30, ImageCount: 1, ImageAreaRatio: 0.9}, PageScan},
		{"混合页", PageStats{TextLen: 300, ImageCount: 2, ImageAreaRatio: 0.4}, PageMixed},
		{"图片页", PageStats{TextLen: 60, ImageCount: 1, ImageAreaRatio: 0.5}, PageImage},
	}

	for _, c := range cases {
		got := AnalyzePage(1, c.stats)
		if got.Type != c.want {
			t.Errorf("%s: AnalyzePage = %s, want %s", c.name, got.Type, c.want)
		}
	}
}

// TestClassifyByExtension 扩展名直接决定的分支.
func TestClassifyByExtension(t *testing.T) {
	img := Classify("photo.JPG", DocumentInfo{})
	if img.DocType != DocImageOnly || img.Strategy != StrategyExtractMetadata {
		t.Errorf("image: got (%s, %s)", img.DocType, img.Strategy)
	}

	word := Classify("投标文件.docx", DocumentInfo{})
	if word.DocType != DocMainProposal || word.Strategy != StrategyExtractTextWord {
		t.Errorf("docx: got (%s, %s)", word.DocType, word.Strategy)
	}

	// 旧版 .doc 没有解析器，策略必须如实记录为仅存储
	legacy := Classify("投标文件.doc", DocumentInfo{})
	if legacy.DocType != DocMainProposal || legacy.Strategy != StrategyStoreOnly {
		t.Errorf("doc: got (%s, %s)", legacy.DocType, legacy.Strategy)
	}

	// 无匹配策略的类型不拒绝，按主标书处理
	txt := Classify("notes.txt", DocumentInfo{})
	if txt.DocType != DocMainProposal {
		t.Errorf("txt: got %s, want main_proposal", txt.DocType)
	}
}

// TestClassifyScanPDF 扫描页占比超过 0.8 判定为纯扫描 PDF.
func TestClassifyScanPDF(t *testing.T) {
	got := Classify("file.pdf", DocumentInfo{
		TotalPages: 3,
		PageStats:  scanStats(3),
	})

	if got.DocType != DocScanPDF || got.Strategy != StrategyOCRThenParse {
		t.Errorf("got (%s, %s), want (scan_pdf, ocr_then_parse)", got.DocType, got.Strategy)
	}

	if got.ScanRatio != 1.0 {
		t.Errorf("ScanRatio = %v, want 1.0", got.ScanRatio)
	}
}

// TestClassifyMixedPDF 扫描占比 0.2~0.8 之间判定为混合 PDF.
func TestClassifyMixedPDF(t *testing.T) {
	stats := append(textStats(5), scanStats(5)...)

	got := Classify("file.pdf", DocumentInfo{TotalPages: 10, PageStats: stats})
	if got.DocType != DocMixedPDF || got.Strategy != StrategyHybridParse {
		t.Errorf("got (%s, %s), want (mixed_pdf, hybrid_parse)", got.DocType, got.Strategy)
	}
}

// TestClassifyMainProposal 文本为主的 PDF 默认主标书.
func TestClassifyMainProposal(t *testing.T) {
	got := Classify("标书.pdf", DocumentInfo{TotalPages: 30, PageStats: textStats(20)})
	if got.DocType != DocMainProposal || got.Strategy != StrategyExtractTOC {
		t.Errorf("got (%s, %s), want (main_proposal, extract_toc_and_content)", got.DocType, got.Strategy)
	}
}

// TestClassifyFinancialReport 财务关键词且页数足够判定为财报并提取年份.
func TestClassifyFinancialReport(t *testing.T) {
	got := Classify("report.pdf", DocumentInfo{
		TotalPages:    45,
		PageStats:     textStats(20),
		FirstPageText: "2023年度财务报表及2022年度审计报告",
	})

	if got.DocType != DocFinancialReport || got.Strategy != StrategyGroupByYearStore {
		t.Fatalf("got (%s, %s)", got.DocType, got.Strategy)
	}

	if len(got.Years) != 2 || got.Years[0] != 2023 || got.Years[1] != 2022 {
		t.Errorf("Years = %v, want [2023 2022]", got.Years)
	}
}

// TestClassifyFinancialRequiresPages 页数不足 5 页的不按财报处理.
func TestClassifyFinancialRequiresPages(t *testing.T) {
	got := Classify("财务报表.pdf", DocumentInfo{
		TotalPages:    3,
		PageStats:     textStats(3),
		FirstPageText: "财务报表",
	})

	if got.DocType == DocFinancialReport {
		t.Errorf("3 页文件不应判定为财务报告")
	}
}

// TestClassifyCertificatePriority 证件关键词优先于扫描占比.
func TestClassifyCertificatePriority(t *testing.T) {
	got := Classify("营业执照.pdf", DocumentInfo{
		TotalPages: 2,
		PageStats:  scanStats(2),
	})

	if got.DocType != DocLicense || got.Strategy != StrategyStorePDFOnly {
		t.Errorf("got (%s, %s), want (license, store_pdf_only)", got.DocType, got.Strategy)
	}
}

// TestClassifyIdempotent 相同输入的分类结果一致.
func TestClassifyIdempotent(t *testing.T) {
	info := DocumentInfo{
		TotalPages:    10,
		PageStats:     append(textStats(6), scanStats(4)...),
		FirstPageText: "某项目投标文件",
	}

	first := Classify("标书.pdf", info)
	for range 3 {
		again := Classify("标书.pdf", info)
		if again.DocType != first.DocType || again.Strategy != first.Strategy {
			t.Fatalf("分类结果不稳定: (%s,%s) vs (%s,%s)",
				again.DocType, again.Strategy, first.DocType, first.Strategy)
		}
	}
}

// TestQuickCategory 文件名关键词计分.
func TestQuickCategory(t *testing.T) {
	cases := []struct {
		filename string
		want     FileCategory
	}{
		{"某某项目招标文件.pdf", CategoryTender},
		{"技术方案投标书.docx", CategoryProposal},
		{"采购合同书.pdf", CategoryContract},
		{"年度分析报告.pdf", CategoryReport},
		{"随便什么东西.pdf", CategoryOther},
	}

	for _, c := range cases {
		if got := QuickCategory(c.filename, ""); got != c.want {
			t.Errorf("QuickCategory(%q) = %s, want %s", c.filename, got, c.want)
		}
	}
}

// TestDetailedCategoryVoting 结构特征参与投票.
func TestDetailedCategoryVoting(t *testing.T) {
	got := DetailedCategory(
		"扫描件001.pdf",
		"本合同由甲方与乙方签订",
		[]string{"合同条款", "违约责任"},
	)

	if got != CategoryContract {
		t.Errorf("got %s, want contract", got)
	}
}

// TestIsFilenameAccurate 文件名准确性判定.
func TestIsFilenameAccurate(t *testing.T) {
	if !IsFilenameAccurate("2024年某某系统招标文件.pdf") {
		t.Error("含年份与招标关键词的文件名应判定为准确")
	}

	if IsFilenameAccurate("scan_0001.pdf") {
		t.Error("扫描仪默认命名不应判定为准确")
	}
}

// TestCategoryLabel 中文标签完整.
func TestCategoryLabel(t *testing.T) {
	for _, c := range []FileCategory{
		CategoryTender, CategoryProposal, CategoryContract,
		CategoryReport, CategoryReference, CategoryOther,
	} {
		if c.Label() == "" || !strings.Contains("招标文件投标文件合同文件报告文档参考资料其他文档", c.Label()) {
			t.Errorf("Label(%s) = %q", c, c.Label())
		}
	}
}
