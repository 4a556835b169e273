package chapter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// unitRunes 短标题中出现即判定为数量单位片段的字符.
const unitRunes = "元米天年月日吨个次项万千百"

// trailingPageRe 目录里的页码尾巴，如 "合同协议书.....79".
var trailingPageRe = regexp.MustCompile(`[.．…]{2,}\s*\d*$`)

// isValidTitle 校验候选标题，过滤单位片段、目录行、页码残片和法律条款引用.
func isValidTitle(title string) bool {
	if utf8.RuneCountInString(title) < 2 {
		return false
	}

	switch title {
	case "。", "，", "、", "；", "：", "…", "...":
		return false
	}

	// 短标题含单位字符，多为 "82.76 万元" 这类金额被误切
	if utf8.RuneCountInString(title) <= 5 {
		for _, r := range title {
			if strings.ContainsRune(unitRunes, r) {
				return false
			}
		}
	}

	// 法律条款片段，如 "款〔缺陷责任期〕…"
	if strings.HasPrefix(title, "款") || strings.HasPrefix(title, "条") || strings.HasPrefix(title, "项") {
		if strings.ContainsAny(title, "〔【（") {
			return false
		}
	}

	first, _ := utf8.DecodeRuneInString(title)
	if strings.ContainsRune("(（[【)）]】", first) {
		return false
	}

	// 以数字开头的超短标题是编号残片
	if unicode.IsDigit(first) && utf8.RuneCountInString(title) <= 6 {
		return false
	}

	// 页码残片
	if strings.HasPrefix(title, "...") || strings.HasSuffix(title, "...") {
		return false
	}

	// 目录行
	if strings.Count(title, ".") > 10 || strings.Count(title, "。") > 5 {
		return false
	}

	return true
}

// repairTitle 修复标题：去换行、压缩内部空白、剥离页码尾巴、按冒号截断.
func repairTitle(title string) string {
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.Join(strings.Fields(title), " ")
	title = trailingPageRe.ReplaceAllString(title, "")
	title = strings.TrimSpace(title)

	// 冒号后多为正文起始，仅当冒号前已构成标题时截断
	if idx := strings.IndexAny(title, "：:"); idx > 0 {
		head := title[:idx]
		if utf8.RuneCountInString(head) >= 2 {
			title = head
		}
	}

	return title
}

// isHeaderFooter 判断正文行是否为页眉页脚：过短、页码数字、分隔线.
func isHeaderFooter(line string) bool {
	if utf8.RuneCountInString(line) < 3 {
		return true
	}

	if n, err := strconv.Atoi(line); err == nil && n < 1000 {
		return true
	}

	for _, r := range line {
		if !strings.ContainsRune("-=_", r) {
			return false
		}
	}

	return true
}
