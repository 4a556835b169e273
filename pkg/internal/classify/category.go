package classify

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FileCategory 业务维度的文档分类，用于归档目录与语义文件名.
type FileCategory string

const (
	CategoryTender    FileCategory = "tender"    // 招标文件
	CategoryProposal  FileCategory = "proposal"  // 投标文件
	CategoryContract  FileCategory = "contract"  // 合同文件
	CategoryReport    FileCategory = "report"    // 报告文档
	CategoryReference FileCategory = "reference" // 参考资料
	CategoryOther     FileCategory = "other"
)

// Label 返回分类的中文标签，用于语义文件名.
func (c FileCategory) Label() string {
	switch c {
	case CategoryTender:
		return "招标文件"
	case CategoryProposal:
		return "投标文件"
	case CategoryContract:
		return "合同文件"
	case CategoryReport:
		return "报告文档"
	case CategoryReference:
		return "参考资料"
	default:
		return "其他文档"
	}
}

// 文件名准确性评估模式：命中任一说明文件名携带了明确的项目或类型信息.
var accuratePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}年.*?招标`),
	regexp.MustCompile(`.*?项目.*?投标`),
	regexp.MustCompile(`招标文件`),
	regexp.MustCompile(`投标书`),
	regexp.MustCompile(`技术方案`),
	regexp.MustCompile(`商务报价`),
	regexp.MustCompile(`合同`),
	regexp.MustCompile(`协议`),
}

var filenameDateRe = regexp.MustCompile(`\d{4}[-年]\d{1,2}[-月]\d{1,2}`)

// categoryKeywords 快速分类的关键词表.
var categoryKeywords = map[FileCategory][]string{
	CategoryTender: {
		"招标", "招标文件", "招标公告", "投标须知", "评分标准",
		"技术规格书", "招标要求", "资格预审",
	},
	CategoryProposal: {
		"投标", "投标书", "投标文件", "技术方案", "商务报价",
		"投标函", "报价单", "技术标", "商务标",
	},
	CategoryContract: {
		"合同", "协议", "合同书", "协议书", "采购合同", "服务协议",
	},
	CategoryReport: {
		"报告", "总结", "分析报告", "项目报告", "评估报告", "调研报告",
	},
	CategoryReference: {
		"参考", "资料", "文档", "说明", "手册", "指南",
	},
}

// categoryVoteOrder 并列计分时的裁决顺序，保证结果确定.
var categoryVoteOrder = []FileCategory{
	CategoryTender, CategoryProposal, CategoryContract,
	CategoryReport, CategoryReference,
}

// IsFilenameAccurate 判断文件名是否足够准确，决定快速/详细分类路径.
func IsFilenameAccurate(filename string) bool {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	for _, re := range accuratePatterns {
		if re.MatchString(stem) {
			return true
		}
	}

	// 日期加较长的描述性文字同样视为准确
	return filenameDateRe.MatchString(stem) && utf8.RuneCountInString(stem) > 10
}

// QuickCategory 基于文件名（和可选的内容前 500 字）做关键词计分分类.
func QuickCategory(filename, content string) FileCategory {
	text := filename
	if content != "" {
		sample := []rune(content)
		if len(sample) > 500 {
			sample = sample[:500]
		}

		text = filename + " " + string(sample)
	}

	text = strings.ToLower(text)

	best := CategoryOther
	bestScore := 0

	for _, cat := range categoryVoteOrder {
		score := 0

		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				score++
			}
		}

		if score > bestScore {
			best = cat
			bestScore = score
		}
	}

	return best
}

// DetailedCategory 文件名模糊时的详细分类：
// 文件名、内容前 2000 字、章节结构三路投票，多数获胜.
func DetailedCategory(filename, content string, chapterTitles []string) FileCategory {
	votes := []FileCategory{
		QuickCategory(filename, ""),
	}

	sample := []rune(content)
	if len(sample) > 2000 {
		sample = sample[:2000]
	}

	votes = append(votes, QuickCategory("", string(sample)))
	votes = append(votes, structureCategory(chapterTitles))

	counts := make(map[FileCategory]int)
	for _, v := range votes {
		counts[v]++
	}

	best := votes[0]
	bestCount := 0

	for _, v := range votes {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}

	return best
}

// structureCategory 根据章节标题的结构特征判定分类.
func structureCategory(chapterTitles []string) FileCategory {
	all := strings.Join(chapterTitles, " ")

	switch {
	case strings.Contains(all, "投标须知"),
		strings.Contains(all, "评分标准"),
		strings.Contains(all, "技术规格"):
		return CategoryTender
	case strings.Contains(all, "技术方案"),
		strings.Contains(all, "商务报价"),
		strings.Contains(all, "投标函"):
		return CategoryProposal
	case strings.Contains(all, "甲方"),
		strings.Contains(all, "乙方"),
		strings.Contains(all, "合同条款"),
		strings.Contains(all, "违约责任"):
		return CategoryContract
	default:
		return CategoryOther
	}
}

// Category 分类主入口：文件名准确走快速路径，否则走详细投票路径.
func Category(filename, content string, chapterTitles []string) FileCategory {
	if IsFilenameAccurate(filename) {
		return QuickCategory(filename, content)
	}

	if content == "" && len(chapterTitles) == 0 {
		return QuickCategory(filename, content)
	}

	return DetailedCategory(filename, content, chapterTitles)
}
