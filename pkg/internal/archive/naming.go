// Package archive 生成语义化归档文件名并按 年/月/类别 目录树归档，
// 可选地将归档件镜像到对象存储.
package archive

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// projectRe 项目名：以 项目/系统/工程/平台/建设 结尾的连续片段
	projectRe = regexp.MustCompile(`[^_\-\s]{2,20}(?:项目|系统|工程|平台|建设)`)

	// dateRe 文件名或正文中的日期表述，兼容连字符与中文单位
	dateRe = regexp.MustCompile(`(\d{4})[-年](\d{1,2})[-月](\d{1,2})`)

	// versionRe 文件名中的版本号标记
	versionRe = regexp.MustCompile(`[vV](\d+\.?\d*)`)

	// illegalRe Windows 与对象存储都不接受的文件名字符
	illegalRe = regexp.MustCompile(`[<>:"/\\|?*]`)
)

const (
	defaultProject = "未命名项目"

	// contentSampleRunes 正文参与项目名识别的开头字符数.
	contentSampleRunes = 100
)

// ProjectName 从文件名识别项目名，失败时退回正文开头，再退回占位名.
func ProjectName(filename, content string) string {
	if m := projectRe.FindString(filename); m != "" {
		return m
	}

	runes := []rune(content)
	if len(runes) > contentSampleRunes {
		runes = runes[:contentSampleRunes]
	}

	if m := projectRe.FindString(string(runes)); m != "" {
		return m
	}

	return defaultProject
}

// DocDate 从文件名识别文档日期，未识别时使用当前日期.
func DocDate(filename string, now time.Time) string {
	if m := dateRe.FindStringSubmatch(filename); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], pad2(m[2]), pad2(m[3]))
	}

	return now.Format("2006-01-02")
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}

	return s
}

// Version 从文件名识别版本号标记，无标记返回空串.
func Version(filename string) string {
	if m := versionRe.FindStringSubmatch(filename); m != nil {
		return "v" + m[1]
	}

	return ""
}

// Sanitize 剔除文件系统非法字符并收敛空白.
func Sanitize(name string) string {
	name = illegalRe.ReplaceAllString(name, "")

	return strings.Join(strings.Fields(name), " ")
}

// SemanticFilename 组装语义化文件名：<日期>_<项目>_<类别>[_vN]<扩展名>.
func SemanticFilename(filename, content, categoryLabel, ext string, now time.Time) string {
	parts := []string{
		DocDate(filename, now),
		Sanitize(ProjectName(filename, content)),
		categoryLabel,
	}

	if v := Version(filename); v != "" {
		parts = append(parts, v)
	}

	return strings.Join(parts, "_") + strings.ToLower(ext)
}
