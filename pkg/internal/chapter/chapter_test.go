package chapter

import (
	"strings"
	"testing"
)

const contractSample = `第一部分合同协议书

一、工程概况
本工程为某某项目的施工总承包。

二、合同工期
工期为三百天。

三、质量标准
符合国家标准。

第二部分通用合同条款

1.一般约定
双方应遵守下列约定。
1.1 词语定义与解释
组成本合同的文件。
1.1.1 合同
指构成合同的全部文件。
1.1.1.1 合同协议书
指双方签署的协议书。

2.发包人
2.1 许可或批准
发包人应办理许可。
2.2 发包人代表
发包人委派的代表。

附件1：承包人承揽工程项目一览表
附表内容见后。
11-1：材料暂估价表
表格内容。
`

// TestExtractContractOutline 验证合同样本的大纲层级与编号.
func TestExtractContractOutline(t *testing.T) {
	sections := NewExtractor().Extract(contractSample)

	want := []struct {
		number string
		level  int
	}{
		{"第一部分", 1},
		{"一", 2},
		{"二", 2},
		{"三", 2},
		{"第二部分", 1},
		{"1", 2},
		{"1.1", 3},
		{"1.1.1", 4},
		{"1.1.1.1", 5},
		{"2", 2},
		{"2.1", 3},
		{"2.2", 3},
		{"附件1", 2},
		{"11-1", 3},
	}

	if len(sections) != len(want) {
		for _, s := range sections {
			t.Logf("got: [L%d] %s %s", s.Level, s.Number, s.Text)
		}
		t.Fatalf("section count = %d, want %d", len(sections), len(want))
	}

	for i, w := range want {
		if sections[i].Number != w.number || sections[i].Level != w.level {
			t.Errorf("section[%d] = (%s, L%d), want (%s, L%d)",
				i, sections[i].Number, sections[i].Level, w.number, w.level)
		}
	}
}

// TestExtractAssignsContent 正文应归属到紧邻的上一标题，且不含下一标题行.
func TestExtractAssignsContent(t *testing.T) {
	sections := NewExtractor().Extract(contractSample)

	for _, s := range sections {
		if s.Number == "2.1" {
			if !strings.Contains(s.Content, "发包人应办理许可") {
				t.Errorf("2.1 content = %q, 缺少正文", s.Content)
			}

			if strings.Contains(s.Content, "发包人代表") {
				t.Errorf("2.1 content 包含了下一章节的标题行: %q", s.Content)
			}
		}
	}
}

// TestExtractFallbackSingleChapter 标题不足三条时退化为单章节全文.
func TestExtractFallbackSingleChapter(t *testing.T) {
	content := "这是一段没有任何章节编号的纯文本。\n第二行内容。"

	sections := NewExtractor().Extract(content)
	if len(sections) != 1 {
		t.Fatalf("section count = %d, want 1", len(sections))
	}

	s := sections[0]
	if s.Number != "1" || s.Text != "全文" || s.Level != 1 {
		t.Errorf("fallback = (%s, %s, L%d), want (1, 全文, L1)", s.Number, s.Text, s.Level)
	}

	if s.Content != content {
		t.Errorf("fallback content 应为全文")
	}
}

// TestExtractDeterministic 相同输入多次提取结果一致.
func TestExtractDeterministic(t *testing.T) {
	e := NewExtractor()

	first := e.Extract(contractSample)
	for range 3 {
		again := e.Extract(contractSample)
		if len(again) != len(first) {
			t.Fatalf("section count 不稳定: %d vs %d", len(again), len(first))
		}

		for i := range first {
			if again[i] != first[i] {
				t.Errorf("section[%d] 不一致", i)
			}
		}
	}
}

// TestExtractPositionOrderContiguous 标题行号严格递增.
func TestExtractPositionOrderContiguous(t *testing.T) {
	sections := NewExtractor().Extract(contractSample)

	for i := 1; i < len(sections); i++ {
		if sections[i].Line <= sections[i-1].Line {
			t.Errorf("section[%d].Line=%d 未递增 (prev=%d)", i, sections[i].Line, sections[i-1].Line)
		}
	}
}

// TestMatchTitleRejectsInvalid 无效候选标题应被过滤.
func TestMatchTitleRejectsInvalid(t *testing.T) {
	cases := []struct {
		line string
		why  string
	}{
		{"82.76 万元", "金额被误切为二级章节"},
		{"1.（一）投标须知", "括号开头"},
		{"1.30天", "数量单位"},
		{"1.条〔缺陷责任期〕内容", "法律条款片段"},
		{"1.目录行。。。。。。。。第一章。。第二章。。第三章。。第四章。。第五章。。第六章", "句号过多的目录行"},
	}

	for _, c := range cases {
		if got := matchTitle(c.line, false); got != nil {
			t.Errorf("matchTitle(%q) = %+v, want nil (%s)", c.line, got, c.why)
		}
	}
}

// TestMatchTitleChineseDisambiguation "1.一般约定" 是主章节而非 "1.一" 二级章节.
func TestMatchTitleChineseDisambiguation(t *testing.T) {
	got := matchTitle("1.一般约定", false)
	if got == nil {
		t.Fatal("matchTitle(1.一般约定) = nil")
	}

	if got.Number != "1" || got.Level != 2 {
		t.Errorf("got (%s, L%d), want (1, L2)", got.Number, got.Level)
	}
}

// TestAttachmentSubRequiresAppendix 附件子项文法仅在附件区域内生效.
func TestAttachmentSubRequiresAppendix(t *testing.T) {
	if got := matchTitle("11-1：材料暂估价表", false); got != nil {
		t.Errorf("附件区域外不应匹配附件子项: %+v", got)
	}

	got := matchTitle("11-1：材料暂估价表", true)
	if got == nil || got.Number != "11-1" || got.Level != 3 {
		t.Errorf("附件区域内应匹配: %+v", got)
	}
}

// TestRepairTitle 标题修复：压缩空白、剥离页码尾巴、冒号截断.
func TestRepairTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"合同协议书.....79", "合同协议书"},
		{"词语定义\n与解释", "词语定义 与解释"},
		{"投标须知：投标人应当仔细阅读", "投标须知"},
		{"  多余   空白  ", "多余 空白"},
	}

	for _, c := range cases {
		if got := repairTitle(c.in); got != c.want {
			t.Errorf("repairTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestIsHeaderFooter 页眉页脚过滤规则.
func TestIsHeaderFooter(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"12", true},
		{"999", true},
		{"--------", true},
		{"====", true},
		{"2023年度财务报表", false},
		{"正文内容不应被过滤", false},
	}

	for _, c := range cases {
		if got := isHeaderFooter(c.line); got != c.want {
			t.Errorf("isHeaderFooter(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

// TestFindBodyAnchorSkipsTOC 目录区的条目不应进入大纲正文切分.
func TestFindBodyAnchorSkipsTOC(t *testing.T) {
	lines := strings.Split(contractSample, "\n")

	anchor := findBodyAnchor(lines)
	if anchor == 0 {
		t.Fatal("findBodyAnchor 未找到主条款锚点")
	}

	line := strings.TrimSpace(lines[anchor])
	if !strings.HasPrefix(line, "1.") {
		t.Errorf("anchor line = %q, want 以 1. 开头", line)
	}
}
