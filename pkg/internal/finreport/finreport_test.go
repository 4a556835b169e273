package finreport

import (
	"strings"
	"testing"
)

// TestDetectYear 各类年份表述的识别.
func TestDetectYear(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"年度财务报表", "某某公司 2023 年度财务报表", 2023},
		{"审计报告前置", "审计报告\n本所审计了贵公司 2022 年的财务状况", 2022},
		{"截至表述", "截至 2021 年 12 月 31 日止年度", 2021},
		{"具体日期", "2020年12月31日", 2020},
		{"无年份", "资产负债表\n流动资产合计", 0},
		{"范围外年份", "1985年度财务报表", 0},
		{"空文本", "", 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DetectYear(c.text); got != c.want {
				t.Errorf("DetectYear = %d, want %d", got, c.want)
			}
		})
	}
}

// TestDetectYearSampleLimit 只检查页面开头的采样段.
func TestDetectYearSampleLimit(t *testing.T) {
	text := strings.Repeat("无关内容", sampleChars) + "2023年度财务报表"

	if got := DetectYear(text); got != 0 {
		t.Errorf("DetectYear = %d, 采样段之外的年份不应命中", got)
	}
}

// TestClusterPagesInteriorFill 同年度两次检出之间的未识别页被填充.
func TestClusterPagesInteriorFill(t *testing.T) {
	// 页 1 与页 5 检出 2023，页 2-4 未识别
	years := []int{2023, 0, 0, 0, 2023}

	runs := clusterPages(years, 3)
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}

	if runs[0].year != 2023 || len(runs[0].pages) != 5 {
		t.Errorf("run = %+v", runs[0])
	}
}

// TestClusterPagesMinRange 页数不足的年度被丢弃.
func TestClusterPagesMinRange(t *testing.T) {
	years := []int{2023, 2023, 0, 2022}

	runs := clusterPages(years, 3)
	if len(runs) != 0 {
		t.Errorf("runs = %v, 页数不足应全部丢弃", runs)
	}
}

// TestClusterPagesMultiYear 多年度按新年度在前排序.
func TestClusterPagesMultiYear(t *testing.T) {
	years := []int{2022, 0, 2022, 2023, 0, 2023, 0}

	runs := clusterPages(years, 3)
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}

	if runs[0].year != 2023 || runs[1].year != 2022 {
		t.Errorf("order = [%d %d], want [2023 2022]", runs[0].year, runs[1].year)
	}

	// 2023 填充后为页 4-6，末尾未识别页不参与填充
	if got := runs[0].pages; len(got) != 3 || got[0] != 4 || got[2] != 6 {
		t.Errorf("2023 pages = %v", got)
	}
}

// TestClusterPagesDisjointSameYear 同一年度被其他年份隔开的两段各自独立判定，
// 不会合并成一个跨页区间.
func TestClusterPagesDisjointSameYear(t *testing.T) {
	// 2020 出现两段：页 1-3 与页 7-8，中间是 2021 的页 4-6
	years := []int{2020, 0, 2020, 2021, 2021, 2021, 2020, 2020}

	runs := clusterPages(years, 3)
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}

	// 第二段 2020 只有 2 页，独立判定后因不足阈值被丢弃
	if runs[0].year != 2021 || runs[1].year != 2020 {
		t.Fatalf("order = [%d %d], want [2021 2020]", runs[0].year, runs[1].year)
	}

	if got := runs[1].pages; len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("2020 pages = %v", got)
	}

	for _, p := range runs[0].pages {
		if p > 6 {
			t.Errorf("2021 pages = %v, 不应包含第二段 2020 的页", runs[0].pages)
		}
	}
}

// TestClusterPagesNoFillAcrossYears 不同年度检出之间的页不被跨年填充.
func TestClusterPagesNoFillAcrossYears(t *testing.T) {
	// 页 3 已检出 2022，不应被 2023 的内部填充覆盖
	years := []int{2023, 0, 2022, 0, 2023}

	runs := clusterPages(years, 2)

	byYear := map[int][]int{}
	for _, r := range runs {
		byYear[r.year] = r.pages
	}

	for _, p := range byYear[2023] {
		if p == 3 {
			t.Errorf("页 3 被归入 2023: %v", byYear[2023])
		}
	}
}

// TestClusterPagesAllUnknown 无任何检出时返回空.
func TestClusterPagesAllUnknown(t *testing.T) {
	if runs := clusterPages([]int{0, 0, 0}, 3); len(runs) != 0 {
		t.Errorf("runs = %v, want empty", runs)
	}
}
