package chapter

import "strings"

// segment 按标题行位置切分正文：每章内容为 [标题行+1, 下一标题行) 的行，
// 过滤空行与页眉页脚后以换行拼接.
func segment(lines []string, titles []Title) []Section {
	sections := make([]Section, 0, len(titles))

	for i, t := range titles {
		end := len(lines)
		if i < len(titles)-1 {
			end = titles[i+1].Line
		}

		var body []string

		for idx := t.Line + 1; idx < end; idx++ {
			line := strings.TrimSpace(lines[idx])
			if line == "" || isHeaderFooter(line) {
				continue
			}

			body = append(body, lines[idx])
		}

		sections = append(sections, Section{
			Title:   t,
			Content: strings.TrimSpace(strings.Join(body, "\n")),
		})
	}

	return sections
}
