package classify

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 证件关键词.
var (
	licenseKeywords = []string{"营业执照", "工商", "注册号", "统一社会信用", "license"}
	certKeywords    = []string{"资质", "证书", "认证", "certificate", "许可证", "等级"}
)

// 报告关键词.
var (
	financialKeywords   = []string{"财务报表", "资产负债表", "利润表", "现金流量表", "财务报告", "年报", "financial"}
	performanceKeywords = []string{"业绩", "工程", "施工", "项目完成", "中标", "performance"}
)

// minFinancialPages 财务报告的最小页数，短文档不按财报处理.
const minFinancialPages = 5

// yearRe 首页年份识别.
var yearRe = regexp.MustCompile(`(\d{4})\s*年度?`)

func containsAny(text, filename string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) || strings.Contains(filename, kw) {
			return true
		}
	}

	return false
}

func isCertificate(text, filename string) bool {
	return containsAny(text, filename, licenseKeywords) ||
		containsAny(text, filename, certKeywords)
}

func isFinancialReport(text, filename string, totalPages int) bool {
	if totalPages < minFinancialPages {
		return false
	}

	return containsAny(text, filename, financialKeywords)
}

func isPerformanceReport(text, filename string) bool {
	return containsAny(text, filename, performanceKeywords)
}

// extractYears 从文本提取合理范围内的年份集合，降序去重.
func extractYears(text string) []int {
	set := make(map[int]bool)

	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		if year > 1900 && year < 2100 {
			set[year] = true
		}
	}

	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	return years
}
