// Package classify 对上传文档做内容类型判定并给出处理策略.
// 证件与业绩报告仅存储，财务报告按年份分组，扫描件走 OCR，主标书做全量解析.
package classify

// DocType 文件内容类型，封闭枚举.
type DocType string

const (
	DocMainProposal      DocType = "main_proposal"      // 主标书，可解析
	DocLicense           DocType = "license"            // 营业执照
	DocCertificate       DocType = "certificate"        // 资质证书
	DocFinancialReport   DocType = "financial_report"   // 财务报告
	DocPerformanceReport DocType = "performance_report" // 业绩报告
	DocScanPDF           DocType = "scan_pdf"           // 纯扫描PDF
	DocMixedPDF          DocType = "mixed_pdf"          // 文本扫描混合PDF
	DocImageOnly         DocType = "image_only"         // 单个图片
	DocUnknown           DocType = "unknown"
)

// Strategy 处理策略标签，流水线据此选择提取链.
type Strategy string

const (
	StrategyExtractMetadata  Strategy = "extract_metadata"        // 仅提取图片元数据
	StrategyExtractTextWord  Strategy = "extract_text_word"       // Word 文本提取
	StrategyStorePDFOnly     Strategy = "store_pdf_only"          // 仅存储，记录位置
	StrategyStoreOnly        Strategy = "store_only"              // 无解析器的格式原样存储
	StrategyGroupByYearStore Strategy = "group_by_year_store"     // 按年份分组归档
	StrategyOCRThenParse     Strategy = "ocr_then_parse"          // 全文 OCR 后解析
	StrategyHybridParse      Strategy = "hybrid_parse"            // 逐页混合提取
	StrategyExtractTOC       Strategy = "extract_toc_and_content" // 目录与正文全量解析
)

// PageType 页面类型.
type PageType string

const (
	PageText  PageType = "text"
	PageScan  PageType = "scan"
	PageImage PageType = "image"
	PageBlank PageType = "blank"
	PageMixed PageType = "mixed"
)

// PageStats 提取层给出的页面原始观测值.
type PageStats struct {
	TextLen        int     // 原生文本字符数
	ImageCount     int     // 嵌入图片对象数
	ImageAreaRatio float64 // 图片面积占页面比例估算
}

// PageAnalysis 单页分析结果.
type PageAnalysis struct {
	PageNum     int // 1 基页码
	Type        PageType
	TextDensity float64
	ImageCount  int
	ImageRatio  float64
	Confidence  float64
}

// Analysis 整个文件的分类结果，置信度仅用于遥测，不参与拒绝.
type Analysis struct {
	DocType    DocType
	Strategy   Strategy
	TotalPages int
	Pages      []PageAnalysis

	ScanRatio  float64
	TextRatio  float64
	ImageRatio float64

	Years      []int // 财务报告首页识别出的年份，降序
	Confidence float64
	Note       string
}
