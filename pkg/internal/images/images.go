// Package images 将文档内嵌图片落盘到按 年份/文件ID 分区的目录，
// 文件名携带序号与内容哈希前缀，写入采用临时文件加重命名保证原子性.
package images

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"

	// 注册标准与扩展栅格格式解码器，DecodeConfig 依赖
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yeisme/bidvault/pkg/internal/extract"
	"github.com/yeisme/bidvault/pkg/log"
)

// Saved 一张已落盘图片的元数据，与 model.ExtractedImage 字段对应.
type Saved struct {
	Path    string
	Number  int // 文件内 1 基序号
	PageNr  *int
	Format  string
	Size    int64
	Width   int
	Height  int
	Hash    string // MD5 前 8 位
}

// Extractor 图片提取器.
type Extractor struct {
	root string
}

// NewExtractor 创建图片提取器，root 为图片根目录.
func NewExtractor(root string) *Extractor {
	return &Extractor{root: root}
}

// ExtractPDF 提取 PDF 全部页面的嵌入图片.
// 单张图片失败记录日志后跳过，不影响其余图片.
func (e *Extractor) ExtractPDF(doc *extract.PDFDocument, fileID string, year int) []Saved {
	logger := log.Logger()

	var saved []Saved

	number := 0

	for pageNr := 1; pageNr <= doc.PageCount(); pageNr++ {
		for _, img := range doc.PageImages(pageNr) {
			number++
			page := img.PageNr

			s, err := e.save(img.Data, fileID, year, number, &page, img.Format)
			if err != nil {
				logger.Warn().Err(err).
					Str("file_id", fileID).
					Int("page", pageNr).
					Int("number", number).
					Msg("save embedded image failed, skipped")

				continue
			}

			saved = append(saved, *s)
		}
	}

	return saved
}

// ExtractDOCX 提取 Word 文档 media 部件中的图片，页码为空.
func (e *Extractor) ExtractDOCX(doc *extract.DOCXDocument, fileID string, year int) []Saved {
	logger := log.Logger()

	var saved []Saved

	for i, media := range doc.Media {
		number := i + 1

		ext := filepath.Ext(media.Name)
		if ext != "" {
			ext = ext[1:]
		}

		s, err := e.save(media.Data, fileID, year, number, nil, ext)
		if err != nil {
			logger.Warn().Err(err).
				Str("file_id", fileID).
				Str("media", media.Name).
				Msg("save docx media failed, skipped")

			continue
		}

		saved = append(saved, *s)
	}

	return saved
}

// save 解码尺寸、计算哈希并原子落盘.
func (e *Extractor) save(data []byte, fileID string, year, number int, pageNr *int, formatHint string) (*Saved, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	width, height, format := decodeBounds(data)
	if format == "" {
		format = normalizeFormat(formatHint)
	}

	if format == "" {
		return nil, fmt.Errorf("unrecognized image format")
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])[:8]

	dir := filepath.Join(e.root, fmt.Sprintf("%d", year), fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	var name string
	if pageNr != nil {
		name = fmt.Sprintf("%03d_page%d_%s.%s", number, *pageNr, hash, format)
	} else {
		name = fmt.Sprintf("%03d_%s.%s", number, hash, format)
	}

	path := filepath.Join(dir, name)
	if err := atomicWrite(path, data); err != nil {
		return nil, err
	}

	return &Saved{
		Path:   path,
		Number: number,
		PageNr: pageNr,
		Format: format,
		Size:   int64(len(data)),
		Width:  width,
		Height: height,
		Hash:   hash,
	}, nil
}

// decodeBounds 只解码图片头获取尺寸与格式，失败时返回零值.
func decodeBounds(data []byte) (width, height int, format string) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, ""
	}

	return cfg.Width, cfg.Height, normalizeFormat(name)
}

// normalizeFormat 统一扩展名写法.
func normalizeFormat(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "jpg"
	case "tiff", "tif":
		return "tif"
	case "":
		return ""
	default:
		return format
	}
}

// atomicWrite 同目录临时文件加重命名，避免读到半写状态.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".img-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write temp: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
