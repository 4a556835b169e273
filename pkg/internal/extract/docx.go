package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// DOCXParagraph 一个段落及其排版属性.
type DOCXParagraph struct {
	Text      string
	Style     string // pStyle 值，如 Heading1
	Font      string // 首个显式声明的字体
	Alignment string // jc 值，如 center
}

// DOCXMedia word/media 下的一个嵌入资源.
type DOCXMedia struct {
	Name string // 归档内文件名，如 image1.png
	Data []byte
}

// DOCXDocument 解析后的 Word 文档.
type DOCXDocument struct {
	Paragraphs []DOCXParagraph
	Media      []DOCXMedia
}

// OpenDOCX 读取 .docx：解析 word/document.xml 的段落与属性，
// 并收集 word/media 下的嵌入图片.
func OpenDOCX(filePath string) (*DOCXDocument, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	doc := &DOCXDocument{}

	var docFile *zip.File

	for _, f := range r.File {
		switch {
		case f.Name == "word/document.xml":
			docFile = f
		case strings.HasPrefix(f.Name, "word/media/"):
			data, err := readZipFile(f)
			if err != nil {
				continue
			}

			doc.Media = append(doc.Media, DOCXMedia{
				Name: path.Base(f.Name),
				Data: data,
			})
		}
	}

	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in %s", filePath)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	doc.Paragraphs, err = parseDocumentXML(rc)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Text 返回全文，每段一行.
func (d *DOCXDocument) Text() string {
	lines := make([]string, 0, len(d.Paragraphs))
	for _, p := range d.Paragraphs {
		lines = append(lines, p.Text)
	}

	return strings.Join(lines, "\n")
}

// DominantFont 返回出现次数最多的字体，未声明字体时为空.
func (d *DOCXDocument) DominantFont() string {
	counts := make(map[string]int)

	for _, p := range d.Paragraphs {
		if p.Font != "" {
			counts[p.Font]++
		}
	}

	var best string

	bestCount := 0

	for font, c := range counts {
		if c > bestCount || (c == bestCount && font < best) {
			best = font
			bestCount = c
		}
	}

	return best
}

// DominantAlignment 返回出现次数最多的对齐方式.
func (d *DOCXDocument) DominantAlignment() string {
	counts := make(map[string]int)

	for _, p := range d.Paragraphs {
		if p.Alignment != "" {
			counts[p.Alignment]++
		}
	}

	var best string

	bestCount := 0

	for al, c := range counts {
		if c > bestCount || (c == bestCount && al < best) {
			best = al
			bestCount = c
		}
	}

	return best
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// parseDocumentXML 流式解析 OOXML 段落：w:p 为段落边界，
// w:pStyle/w:jc/w:rFonts 提供排版属性，w:t 内的字符为正文.
func parseDocumentXML(r io.Reader) ([]DOCXParagraph, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []DOCXParagraph
		current    DOCXParagraph
		text       strings.Builder
		inPara     bool
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current = DOCXParagraph{}

				text.Reset()
			case "pStyle":
				if inPara {
					current.Style = attrVal(t, "val")
				}
			case "jc":
				if inPara && current.Alignment == "" {
					current.Alignment = attrVal(t, "val")
				}
			case "rFonts":
				if inPara && current.Font == "" {
					if v := attrVal(t, "eastAsia"); v != "" {
						current.Font = v
					} else {
						current.Font = attrVal(t, "ascii")
					}
				}
			case "t":
				inText = inPara
			case "br", "cr":
				if inPara {
					text.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText {
				text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara {
					inPara = false

					current.Text = strings.TrimSpace(text.String())
					if current.Text != "" {
						paragraphs = append(paragraphs, current)
					}
				}
			}
		}
	}

	return paragraphs, nil
}

func attrVal(el xml.StartElement, name string) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}

	return ""
}
