// Package extract 提供 PDF/DOCX/纯文本的文本与图片提取.
// PDF 走 pdfcpu 内容流解析，扫描页由 OCR 补齐，DOCX 解析 OOXML 段落.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFDocument 已读入并校验过的 PDF 文件.
type PDFDocument struct {
	ctx  *model.Context
	path string
	dims []types.Dim
}

// OpenPDF 读取并校验 PDF，损坏的文件在此处报错.
func OpenPDF(path string) (*PDFDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read %s: %w", path, err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("pdfcpu page dims: %w", err)
	}

	return &PDFDocument{ctx: ctx, path: path, dims: dims}, nil
}

// Path 返回源文件路径.
func (d *PDFDocument) Path() string {
	return d.path
}

// PageCount 返回页数.
func (d *PDFDocument) PageCount() int {
	return d.ctx.PageCount
}

// PageText 提取单页原生文本，保留行序；无文本流时返回空串.
func (d *PDFDocument) PageText(pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(d.ctx, pageNr)
	if err != nil {
		return ""
	}

	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}

	return parseContentStream(data)
}

// ImageObjNrs 返回页面引用的图片对象号.
func (d *PDFDocument) ImageObjNrs(pageNr int) []int {
	if d.ctx.Optimize == nil {
		return nil
	}

	return pdfcpu.ImageObjNrs(d.ctx, pageNr)
}

// imageDims 从交叉引用表读取图片对象的像素尺寸.
func (d *PDFDocument) imageDims(objNr int) (int, int) {
	entry, ok := d.ctx.Table[objNr]
	if !ok || entry == nil || entry.Free {
		return 0, 0
	}

	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return 0, 0
	}

	var w, h int
	if v := sd.IntEntry("Width"); v != nil {
		w = *v
	}

	if v := sd.IntEntry("Height"); v != nil {
		h = *v
	}

	return w, h
}

// scanDPI 估算图片覆盖面积时假定的最低扫描分辨率.
const scanDPI = 96.0

// PageStatsOf 汇总单页观测值：原生文本长度、图片数、图片面积占比估算.
// 面积占比以最大图片的像素面积对照页面在 scanDPI 下的满页像素面积.
func (d *PDFDocument) PageStatsOf(pageNr int) (textLen, imageCount int, areaRatio float64) {
	textLen = len([]rune(d.PageText(pageNr)))

	objNrs := d.ImageObjNrs(pageNr)
	imageCount = len(objNrs)

	if imageCount == 0 || pageNr > len(d.dims) {
		return textLen, imageCount, 0
	}

	var maxPixels float64

	for _, objNr := range objNrs {
		w, h := d.imageDims(objNr)
		if px := float64(w) * float64(h); px > maxPixels {
			maxPixels = px
		}
	}

	dim := d.dims[pageNr-1]

	fullPagePixels := dim.Width * dim.Height * (scanDPI / 72.0) * (scanDPI / 72.0)
	if fullPagePixels <= 0 {
		return textLen, imageCount, 0
	}

	areaRatio = maxPixels / fullPagePixels
	if areaRatio > 1.0 {
		areaRatio = 1.0
	}

	return textLen, imageCount, areaRatio
}

// EmbeddedImage 从 PDF 中取出的一张嵌入图片.
type EmbeddedImage struct {
	Data    []byte
	PageNr  int
	ObjNr   int
	Format  string // 文件扩展名，不含点号
}

// PageImages 提取单页全部嵌入图片，单张失败跳过.
func (d *PDFDocument) PageImages(pageNr int) []EmbeddedImage {
	imgs, err := pdfcpu.ExtractPageImages(d.ctx, pageNr, false)
	if err != nil {
		return nil
	}

	out := make([]EmbeddedImage, 0, len(imgs))

	for objNr, img := range imgs {
		data, err := io.ReadAll(img)
		if err != nil || len(data) == 0 {
			continue
		}

		out = append(out, EmbeddedImage{
			Data:   data,
			PageNr: pageNr,
			ObjNr:  objNr,
			Format: img.FileType,
		})
	}

	return out
}

// DominantImage 返回页面上像素面积最大的嵌入图片，扫描页即整页位图.
// 无图片时返回 nil.
func (d *PDFDocument) DominantImage(pageNr int) *EmbeddedImage {
	imgs := d.PageImages(pageNr)
	if len(imgs) == 0 {
		return nil
	}

	best := 0
	bestPixels := 0

	for i, img := range imgs {
		w, h := d.imageDims(img.ObjNr)
		if px := w * h; px > bestPixels {
			best = i
			bestPixels = px
		}
	}

	return &imgs[best]
}

// ExtractPages 将选中页（1 基）写出为独立 PDF.
func ExtractPages(srcPath, dstPath string, pages []int) error {
	selected := make([]string, 0, len(pages))
	for _, p := range pages {
		selected = append(selected, fmt.Sprintf("%d", p))
	}

	return api.TrimFile(srcPath, dstPath, selected, model.NewDefaultConfiguration())
}

// pdfStringRe 匹配内容流中的字符串字面量.
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// parseContentStream 从内容流操作符中恢复文本，保留换行结构：
// T*、' 与 Td/TD 产生换行，Tj/TJ 追加文本.
func parseContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")),
			bytes.Equal(line, []byte("T*")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}

	return normalizeLines(sb.String())
}

// decodePDFString 处理 PDF 字符串的转义序列，含八进制转义.
func decodePDFString(raw []byte) string {
	var sb strings.Builder

	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}

		i++

		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')

				for range 2 {
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
					}
				}

				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}

	return sb.String()
}

// normalizeLines 逐行修剪空白并去掉空行堆叠，保留行序.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}

			blank = true

			continue
		}

		blank = false

		out = append(out, line)
	}

	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
