package chapter

import (
	"strings"
	"unicode/utf8"
)

const (
	// anchorLookahead 主条款锚点探测窗口：`1.` 之后多少行内须出现 `1.1`.
	anchorLookahead = 30
	// minOutlineEntries 少于该数量的大纲退化为单章节全文.
	minOutlineEntries = 3
)

// Section 一个章节节点及其正文.
type Section struct {
	Title
	Content string
}

// Extractor 章节提取器，无内部状态，可并发复用.
type Extractor struct{}

// NewExtractor 创建章节提取器.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract 从全文提取章节大纲并切分正文.
// 对同一输入产出字节级一致的结果；识别不足时退化为单章节 {"1","全文",1}.
func (e *Extractor) Extract(content string) []Section {
	lines := strings.Split(content, "\n")

	titles := e.collectTitles(lines)
	if len(titles) < minOutlineEntries {
		return []Section{{
			Title:   Title{Number: "1", Text: "全文", Level: 1, Line: 0},
			Content: content,
		}}
	}

	return segment(lines, titles)
}

// collectTitles 两阶段标题识别：先定位正文锚点，锚点之前拒绝阿拉伯数字编号
// （目录条目），部分标题、中文编号和附件标题不受锚点限制.
func (e *Extractor) collectTitles(lines []string) []Title {
	anchor := findBodyAnchor(lines)

	var titles []Title

	seen := make(map[string]bool)
	inAppendix := false

	for idx, raw := range lines {
		line := strings.TrimSpace(raw)
		if utf8.RuneCountInString(line) < 2 {
			continue
		}

		t := matchTitle(line, inAppendix)
		if t == nil {
			continue
		}

		if idx < anchor && isArabicNumber(t.Number) {
			continue
		}

		// 同一编号只接受首次出现
		if seen[t.Number] {
			continue
		}

		seen[t.Number] = true

		if strings.HasPrefix(t.Number, "附件") {
			inAppendix = true
		}

		t.Line = idx
		titles = append(titles, *t)
	}

	return titles
}

// isArabicNumber 判断编号是否为阿拉伯数字体系（主章节、多级章节、附件子项）.
func isArabicNumber(number string) bool {
	for _, r := range number {
		return r >= '0' && r <= '9'
	}

	return false
}

// findBodyAnchor 定位第一个真实主条款：`1.` 行且其后 anchorLookahead 行内出现 `1.1`.
// 目录中的 "1.一般约定" 不会紧跟 "1.1" 条目，以此区分目录与正文.
// 未找到锚点时从头开始.
func findBodyAnchor(lines []string) int {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		t := matchTitle(line, false)
		if t == nil || t.Level != 2 || t.Number != "1" {
			continue
		}

		end := i + anchorLookahead
		if end > len(lines) {
			end = len(lines)
		}

		for j := i + 1; j < end; j++ {
			sub := matchTitle(strings.TrimSpace(lines[j]), false)
			if sub != nil && sub.Number == "1.1" {
				return i
			}
		}
	}

	return 0
}
