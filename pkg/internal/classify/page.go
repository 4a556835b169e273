package classify

const (
	blankTextThreshold = 50  // 低于该字符数且无图片视为空白页
	textPageThreshold  = 500 // 达到该字符数且图片占比低视为文本页
	scanTextThreshold  = 100 // 扫描页允许的最大文本量
	textDensityBase    = 2000
)

// AnalyzePage 根据文本量与图片面积占比判定页面类型.
func AnalyzePage(pageNum int, s PageStats) PageAnalysis {
	var pt PageType

	switch {
	case s.TextLen < blankTextThreshold && s.ImageCount == 0:
		pt = PageBlank
	case s.TextLen >= textPageThreshold && s.ImageAreaRatio < 0.2:
		pt = PageText
	case s.ImageAreaRatio > 0.7 && s.TextLen < scanTextThreshold:
		pt = PageScan
	case s.ImageCount > 0 && s.TextLen > scanTextThreshold:
		pt = PageMixed
	case s.ImageCount > 0:
		pt = PageImage
	default:
		pt = PageText
	}

	density := float64(s.TextLen) / textDensityBase
	if density > 1.0 {
		density = 1.0
	}

	return PageAnalysis{
		PageNum:     pageNum,
		Type:        pt,
		TextDensity: density,
		ImageCount:  s.ImageCount,
		ImageRatio:  s.ImageAreaRatio,
		Confidence:  0.8,
	}
}
