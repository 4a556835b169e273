package classify

import (
	"path/filepath"
	"strings"
)

const (
	// scanPDFRatio 扫描页占比超过该值判定为纯扫描 PDF.
	scanPDFRatio = 0.8
	// mixedPDFRatio 扫描页占比超过该值判定为混合 PDF.
	mixedPDFRatio = 0.2
	// MaxSampledPages 分类时最多分析的页数.
	MaxSampledPages = 20
)

// imageExtensions 直接判定为 image_only 的后缀.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".gif": true, ".tiff": true, ".webp": true,
}

// DocumentInfo 提取层为分类准备的文件观测值.
// 对 PDF，PageStats 最多覆盖前 MaxSampledPages 页.
type DocumentInfo struct {
	TotalPages    int
	PageStats     []PageStats
	FirstPageText string
}

// Classify 按优先级规则判定文件类型与处理策略，永不拒绝：
// 规则不命中时按主标书处理.
// 对相同输入给出相同结果.
func Classify(filename string, info DocumentInfo) Analysis {
	ext := strings.ToLower(filepath.Ext(filename))

	if imageExtensions[ext] {
		return Analysis{
			DocType:    DocImageOnly,
			Strategy:   StrategyExtractMetadata,
			TotalPages: 1,
			ImageRatio: 1.0,
			Confidence: 1.0,
			Note:       "图片文件，仅提取位置和大小",
		}
	}

	if ext == ".docx" {
		return Analysis{
			DocType:    DocMainProposal,
			Strategy:   StrategyExtractTextWord,
			TotalPages: info.TotalPages,
			TextRatio:  1.0,
			Confidence: 1.0,
			Note:       "Word文档，直接提取文本",
		}
	}

	// 旧版 .doc 二进制格式没有解析器，原样存储
	if ext == ".doc" {
		return Analysis{
			DocType:    DocMainProposal,
			Strategy:   StrategyStoreOnly,
			TotalPages: info.TotalPages,
			Confidence: 1.0,
			Note:       "旧版 Word 文档，仅存储",
		}
	}

	if ext != ".pdf" {
		// 不确定类型按主标书归类，不拒绝也不展开
		return Analysis{
			DocType:    DocMainProposal,
			Strategy:   StrategyStoreOnly,
			TotalPages: info.TotalPages,
			Confidence: 0.5,
			Note:       "无匹配策略，按主标书存储",
		}
	}

	return classifyPDF(filename, info)
}

func classifyPDF(filename string, info DocumentInfo) Analysis {
	pages := make([]PageAnalysis, 0, len(info.PageStats))

	var scanCount, textCount int

	for i, s := range info.PageStats {
		pa := AnalyzePage(i+1, s)
		pages = append(pages, pa)

		switch pa.Type {
		case PageScan:
			scanCount++
		case PageText:
			textCount++
		}
	}

	var scanRatio, textRatio float64
	if len(pages) > 0 {
		scanRatio = float64(scanCount) / float64(len(pages))
		textRatio = float64(textCount) / float64(len(pages))
	}

	base := Analysis{
		TotalPages: info.TotalPages,
		Pages:      pages,
		ScanRatio:  scanRatio,
		TextRatio:  textRatio,
		ImageRatio: 1.0 - textRatio,
	}

	// 1. 证件类
	if isCertificate(info.FirstPageText, filename) {
		base.DocType = DocLicense
		base.Strategy = StrategyStorePDFOnly
		base.Confidence = 0.9
		base.Note = "证件/资质文件，仅存储，记录位置"

		return base
	}

	// 2. 财务报告
	if isFinancialReport(info.FirstPageText, filename, info.TotalPages) {
		base.DocType = DocFinancialReport
		base.Strategy = StrategyGroupByYearStore
		base.Years = extractYears(info.FirstPageText)
		base.Confidence = 0.85
		base.Note = "财务报告，按年份分组存储"

		return base
	}

	// 3. 业绩报告
	if isPerformanceReport(info.FirstPageText, filename) {
		base.DocType = DocPerformanceReport
		base.Strategy = StrategyStorePDFOnly
		base.Confidence = 0.8
		base.Note = "业绩报告，仅存储，记录位置和页数"

		return base
	}

	// 4. 纯扫描 PDF
	if scanRatio > scanPDFRatio {
		base.DocType = DocScanPDF
		base.Strategy = StrategyOCRThenParse
		base.Confidence = 0.85
		base.Note = "纯扫描PDF，逐页OCR识别"

		return base
	}

	// 5. 混合 PDF
	if scanRatio > mixedPDFRatio {
		base.DocType = DocMixedPDF
		base.Strategy = StrategyHybridParse
		base.Confidence = 0.8
		base.Note = "混合PDF，逐页选择提取方式"

		return base
	}

	// 6. 默认：主标书
	base.DocType = DocMainProposal
	base.Strategy = StrategyExtractTOC
	base.Confidence = 0.9
	base.Note = "主标书文件，提取目录和内容"

	return base
}
