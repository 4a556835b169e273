// Package chapter 从扁平化文档文本中解析层级章节大纲并切分正文.
// 编号文法覆盖中文部分编号、阿拉伯数字四级章节和附件编号.
package chapter

import (
	"regexp"
	"strconv"
	"strings"
)

// chineseNumMap 中文数字到整数的映射.
var chineseNumMap = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5,
	"六": 6, "七": 7, "八": 8, "九": 9, "十": 10,
	"十一": 11, "十二": 12, "十三": 13, "十四": 14, "十五": 15,
	"十六": 16, "十七": 17, "十八": 18, "十九": 19, "二十": 20,
	"二十一": 21,
}

var (
	// 顶层部分: 第一部分、第二部分
	partRe = regexp.MustCompile(`^第([一二三四五])部分[\s　]*(.+)$`)
	// 中文编号: 一、工程概况
	chineseRe = regexp.MustCompile(`^([一二三四五六七八九十]+)、[\s　]*(.+)$`)
	// 阿拉伯数字主章节: 1.一般约定
	mainChapterRe = regexp.MustCompile(`^(\d+)\.[\s　]*(.+)$`)
	// 二级章节: 1.1 词语定义
	level2Re = regexp.MustCompile(`^(\d+)\.(\d+)[\s　]*(.+)$`)
	// 三级章节: 1.1.1 合同
	level3Re = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)[\s　]*(.+)$`)
	// 四级章节: 1.1.1.1 合同
	level4Re = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)\.(\d+)[\s　]*(.+)$`)
	// 附件: 附件1：一览表
	attachmentRe = regexp.MustCompile(`^附件(\d+)[：:][\s　]*(.+)$`)
	// 附件子项: 11-1：材料暂估价表
	attachmentSubRe = regexp.MustCompile(`^(\d+)-(\d+)[：:][\s　]*(.+)$`)
)

// Title 一条被接受的章节标题.
type Title struct {
	Number string // 编号原样保留，如 "第一部分"、"1.2.3"、"附件1"
	Text   string // 修复后的标题文本
	Level  int    // 1=部分 2=主章节 3=二级 4=三级 5=四级
	Line   int    // 源文本行号（0 基）
}

// maxMainChapterNumber 主章节编号上限，超出视为正文数字.
const maxMainChapterNumber = 30

// matchTitle 按特异性从高到低匹配一行文本，inAppendix 控制附件子项文法是否生效.
// 不匹配或标题未通过校验时返回 nil.
func matchTitle(line string, inAppendix bool) *Title {
	// 四级章节
	if m := level4Re.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[5])
		if isValidTitle(title) {
			return &Title{
				Number: strings.Join(m[1:5], "."),
				Text:   title,
				Level:  5,
			}
		}
	}

	// 三级章节
	if m := level3Re.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[4])
		if isValidTitle(title) {
			return &Title{
				Number: strings.Join(m[1:4], "."),
				Text:   title,
				Level:  4,
			}
		}
	}

	// 二级章节；排除 "1.一般约定" 被误切成 "1.一"
	if m := level2Re.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[3])
		if isValidTitle(title) && !startsWithChineseNumeral(title) {
			return &Title{
				Number: m[1] + "." + m[2],
				Text:   title,
				Level:  3,
			}
		}
	}

	// 主章节；纯中文数字标题是 "1.一" 这类误切残片
	if m := mainChapterRe.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[2])

		num, err := strconv.Atoi(m[1])
		if err == nil && num <= maxMainChapterNumber &&
			isValidTitle(title) && !isPureChineseNumerals(title) {
			return &Title{
				Number: m[1],
				Text:   title,
				Level:  2,
			}
		}
	}

	// 中文编号
	if m := chineseRe.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[2])
		if _, ok := chineseNumMap[m[1]]; ok && isValidTitle(title) {
			return &Title{
				Number: m[1],
				Text:   title,
				Level:  2,
			}
		}
	}

	// 部分标题
	if m := partRe.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[2])
		if _, ok := chineseNumMap[m[1]]; ok {
			return &Title{
				Number: "第" + m[1] + "部分",
				Text:   title,
				Level:  1,
			}
		}
	}

	// 附件
	if m := attachmentRe.FindStringSubmatch(line); m != nil {
		title := repairTitle(m[2])
		if isValidTitle(title) {
			return &Title{
				Number: "附件" + m[1],
				Text:   title,
				Level:  2,
			}
		}
	}

	// 附件子项，仅在附件区域内有效
	if inAppendix {
		if m := attachmentSubRe.FindStringSubmatch(line); m != nil {
			title := repairTitle(m[3])
			if isValidTitle(title) {
				return &Title{
					Number: m[1] + "-" + m[2],
					Text:   title,
					Level:  3,
				}
			}
		}
	}

	return nil
}

// startsWithChineseNumeral 判断首字符是否为中文数字.
func startsWithChineseNumeral(s string) bool {
	for _, r := range s {
		return strings.ContainsRune("一二三四五六七八九十", r)
	}

	return false
}

// isPureChineseNumerals 判断字符串是否完全由中文数字组成.
func isPureChineseNumerals(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !strings.ContainsRune("一二三四五六七八九十", r) {
			return false
		}
	}

	return true
}
