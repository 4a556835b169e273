// Package finreport 识别合并扫描件中各年度财务报告的页码区间，
// 按年份切分为独立 PDF 并归档到 financial_reports/<年份>/ 目录.
package finreport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/yeisme/bidvault/pkg/internal/extract"
	"github.com/yeisme/bidvault/pkg/log"
)

// yearPatterns 按优先级排列的年份识别模式，命中即停.
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})\s*年度?\s*(?:财务报表|审计报告|年报)`),
	regexp.MustCompile(`(?:财务报表|审计报告|年报)[\s\S]*?(\d{4})\s*年`),
	regexp.MustCompile(`截至\s*(\d{4})\s*年`),
	regexp.MustCompile(`(\d{4})\s*年\s*\d+\s*月\s*\d+\s*日`),
}

const (
	// sampleChars 每页参与年份识别的最大字符数.
	sampleChars = 2000

	// 合理年份范围，落在范围外的匹配视为噪声
	minYear = 2000
	maxYear = 2030
)

// DetectYear 从页面文本中识别年度，未识别返回 0.
func DetectYear(text string) int {
	runes := []rune(text)
	if len(runes) > sampleChars {
		runes = runes[:sampleChars]
	}

	sample := string(runes)

	for _, re := range yearPatterns {
		for _, m := range re.FindAllStringSubmatch(sample, -1) {
			year, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}

			if year >= minYear && year <= maxYear {
				return year
			}
		}
	}

	return 0
}

// yearRun 同一年度的页码集合.
type yearRun struct {
	year  int
	pages []int // 1 基，升序
}

// clusterPages 顺序扫描逐页年份并聚合为连续的年度页码区间.
// 同一区间内两次检出之间的未识别页随区间扩展被吸收；检出不同年份即关闭
// 当前区间。同一年度被其他年份隔开时形成多个区间，每个区间独立按
// minRangePages 阈值判定，不足的区间丢弃.
func clusterPages(pageYears []int, minRangePages int) []yearRun {
	type openRun struct {
		year  int
		start int // 0 基，首次检出页
		last  int // 0 基，最近一次检出页
	}

	var (
		runs []yearRun
		cur  *openRun
	)

	closeRun := func() {
		if cur == nil {
			return
		}

		if n := cur.last - cur.start + 1; n >= minRangePages {
			pages := make([]int, 0, n)
			for i := cur.start; i <= cur.last; i++ {
				pages = append(pages, i+1)
			}

			runs = append(runs, yearRun{year: cur.year, pages: pages})
		}

		cur = nil
	}

	for i, y := range pageYears {
		switch {
		case y == 0:
			// 未识别页：后续同年再次检出时随区间扩展被吸收，否则不归属任何年度
		case cur != nil && y == cur.year:
			cur.last = i
		default:
			closeRun()

			cur = &openRun{year: y, start: i, last: i}
		}
	}

	closeRun()

	// 新年度在前，同年度的多个区间保持文档顺序
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].year > runs[j].year })

	return runs
}

// Segment 一段已归档的年度财务报告.
type Segment struct {
	Year       *int // nil 表示无法识别年份
	Pages      []int
	Path       string
	Size       int64
	ArchivedAt time.Time
}

// Splitter 财务报告年份切分器.
type Splitter struct {
	archiveRoot   string
	minRangePages int
}

// NewSplitter 创建切分器，archiveRoot 为归档根目录.
func NewSplitter(archiveRoot string, minRangePages int) *Splitter {
	if minRangePages < 1 {
		minRangePages = 1
	}

	return &Splitter{archiveRoot: archiveRoot, minRangePages: minRangePages}
}

// Split 按年份切分财务报告并归档.
// 全文未识别出任何年度时整份文件归档到 unknown 目录，年份为空.
func (s *Splitter) Split(ctx context.Context, doc *extract.PDFDocument, stem string) ([]Segment, error) {
	logger := log.Logger()

	pageYears := make([]int, doc.PageCount())

	for pageNr := 1; pageNr <= doc.PageCount(); pageNr++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageYears[pageNr-1] = DetectYear(doc.PageText(pageNr))
	}

	runs := clusterPages(pageYears, s.minRangePages)
	if len(runs) == 0 {
		seg, err := s.archiveUnknown(doc, stem)
		if err != nil {
			return nil, err
		}

		logger.Info().Str("stem", stem).Msg("no fiscal year detected, archived as unknown")

		return []Segment{*seg}, nil
	}

	date := time.Now().Format("2006-01-02")
	segments := make([]Segment, 0, len(runs))
	seen := map[int]int{} // 同一年度的第几个区间

	for _, run := range runs {
		dir := filepath.Join(s.archiveRoot, "financial_reports", strconv.Itoa(run.year))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}

		seen[run.year]++

		name := fmt.Sprintf("%s_%s_%d年财务报告.pdf", date, stem, run.year)
		if n := seen[run.year]; n > 1 {
			name = fmt.Sprintf("%s_%s_%d年财务报告_%d.pdf", date, stem, run.year, n)
		}

		dst := filepath.Join(dir, name)

		if err := extract.ExtractPages(doc.Path(), dst, run.pages); err != nil {
			return nil, fmt.Errorf("extract year %d pages: %w", run.year, err)
		}

		info, err := os.Stat(dst)
		if err != nil {
			return nil, err
		}

		year := run.year
		segments = append(segments, Segment{
			Year:       &year,
			Pages:      run.pages,
			Path:       dst,
			Size:       info.Size(),
			ArchivedAt: time.Now(),
		})

		logger.Info().Int("year", run.year).Int("pages", len(run.pages)).
			Str("path", dst).Msg("fiscal year segment archived")
	}

	return segments, nil
}

// archiveUnknown 将整份文件复制到 unknown 目录.
func (s *Splitter) archiveUnknown(doc *extract.PDFDocument, stem string) (*Segment, error) {
	dir := filepath.Join(s.archiveRoot, "financial_reports", "unknown")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	date := time.Now().Format("2006-01-02")
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s_财务报告.pdf", date, stem))

	size, err := copyFile(doc.Path(), dst)
	if err != nil {
		return nil, err
	}

	pages := make([]int, doc.PageCount())
	for i := range pages {
		pages[i] = i + 1
	}

	return &Segment{Pages: pages, Path: dst, Size: size, ArchivedAt: time.Now()}, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()

		return 0, fmt.Errorf("copy %s: %w", dst, err)
	}

	return n, out.Close()
}
