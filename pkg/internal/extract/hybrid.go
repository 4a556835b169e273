package extract

import (
	"context"
	"os"
	"strings"

	"github.com/yeisme/bidvault/pkg/log"
)

const (
	// minNativeChars 原生文本达到该字符数即接受，不再尝试 OCR.
	minNativeChars = 100

	// 各来源的置信度，仅写入遥测，不影响路由.
	confidenceDirect   = 0.95
	confidenceOCR      = 0.85
	confidenceDegraded = 0.5
)

// PageSource 单页文本的来源.
type PageSource string

const (
	SourceDirect PageSource = "direct"
	SourceOCR    PageSource = "ocr"
)

// PageText 单页提取结果.
type PageText struct {
	PageNr     int
	Text       string
	Source     PageSource
	Confidence float64
}

// DocumentText 整个文件的提取结果，Text 为各页以换行拼接的全文.
type DocumentText struct {
	Pages []PageText
	Text  string
}

// DirectPages 统计原生提取的页数.
func (d *DocumentText) DirectPages() int {
	n := 0

	for _, p := range d.Pages {
		if p.Source == SourceDirect {
			n++
		}
	}

	return n
}

// OCRPages 统计 OCR 提取的页数.
func (d *DocumentText) OCRPages() int {
	return len(d.Pages) - d.DirectPages()
}

// AvgConfidence 平均置信度.
func (d *DocumentText) AvgConfidence() float64 {
	if len(d.Pages) == 0 {
		return 0
	}

	var sum float64
	for _, p := range d.Pages {
		sum += p.Confidence
	}

	return sum / float64(len(d.Pages))
}

// ExtractPDFText 逐页混合提取：原生文本优先，不足 minNativeChars 时
// 以页面主图提交 OCR（扫描页即整页位图）；OCR 不可用则降级保留原生文本.
// OCR 失败只影响单页，不构成阶段失败.
func ExtractPDFText(ctx context.Context, doc *PDFDocument, ocr *OCRClient) *DocumentText {
	logger := log.Logger()
	result := &DocumentText{}

	var all []string

	for pageNr := 1; pageNr <= doc.PageCount(); pageNr++ {
		select {
		case <-ctx.Done():
			result.Text = strings.Join(all, "\n")
			return result
		default:
		}

		page := extractPage(ctx, doc, ocr, pageNr)
		result.Pages = append(result.Pages, page)
		all = append(all, page.Text)

		if page.Source == SourceOCR {
			logger.Debug().Int("page", pageNr).Msg("page text via ocr")
		}
	}

	result.Text = strings.Join(all, "\n")

	return result
}

func extractPage(ctx context.Context, doc *PDFDocument, ocr *OCRClient, pageNr int) PageText {
	native := doc.PageText(pageNr)
	if len([]rune(native)) >= minNativeChars {
		return PageText{PageNr: pageNr, Text: native, Source: SourceDirect, Confidence: confidenceDirect}
	}

	if ocr.Enabled() {
		if img := doc.DominantImage(pageNr); img != nil {
			text, err := ocr.Recognize(ctx, img.Data)
			if err == nil && strings.TrimSpace(text) != "" {
				return PageText{PageNr: pageNr, Text: text, Source: SourceOCR, Confidence: confidenceOCR}
			}

			if err != nil {
				log.Logger().Warn().Err(err).Int("page", pageNr).Msg("ocr degraded to native text")
			}
		}
	}

	// OCR 关闭或失败：降级保留原生文本
	return PageText{PageNr: pageNr, Text: native, Source: SourceDirect, Confidence: confidenceDegraded}
}

// ExtractPlainText 读取纯文本文件全文.
func ExtractPlainText(path string) (*DocumentText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := string(data)

	return &DocumentText{
		Pages: []PageText{{PageNr: 1, Text: text, Source: SourceDirect, Confidence: confidenceDirect}},
		Text:  text,
	}, nil
}

// ExtractDOCXText 提取 Word 文档全文.
func ExtractDOCXText(doc *DOCXDocument) *DocumentText {
	text := doc.Text()

	return &DocumentText{
		Pages: []PageText{{PageNr: 1, Text: text, Source: SourceDirect, Confidence: confidenceDirect}},
		Text:  text,
	}
}
