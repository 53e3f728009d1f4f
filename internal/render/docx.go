package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResume is returned when there is nothing to render.
var ErrEmptyResume = errors.New("resume text is empty")

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

const coreXMLFormat = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>%s</dc:title>
</cp:coreProperties>`

// Letter page and 0.6in margins, in twentieths of a point.
const (
	pageWidthTwips  = 12240
	pageHeightTwips = 15840
	marginTwips     = 864
)

// paragraph is the subset of WordprocessingML used by the resume layout.
type paragraph struct {
	text         string
	bold         bool
	halfPoints   int
	color        string
	center       bool
	spaceBefore  int
	spaceAfter   int
	bottomBorder bool
	bullet       bool
}

// DOCX renders text as an Office Open XML document.
func (r *ResumeRenderer) DOCX(text string) ([]byte, error) {
	sections := ParseSections(text)
	if len(sections) == 0 {
		return nil, ErrEmptyResume
	}

	var body strings.Builder
	for _, p := range docxParagraphs(sections) {
		writeParagraph(&body, p)
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		fmt.Sprintf(`<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="0" w:footer="0" w:gutter="0"/></w:sectPr>`,
			pageWidthTwips, pageHeightTwips, marginTwips, marginTwips, marginTwips, marginTwips) +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", fmt.Sprintf(coreXMLFormat, escape(r.Title))},
		{"word/document.xml", document},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

func docxParagraphs(sections []Section) []paragraph {
	var out []paragraph
	for _, s := range sections {
		switch s.Kind {
		case KindHeader:
			out = append(out, paragraph{text: s.Lines[0], bold: true, halfPoints: 36, center: true, spaceAfter: 100})
			for _, l := range s.Lines[1:] {
				out = append(out, paragraph{text: l, halfPoints: 22, center: true, spaceAfter: 100})
			}
		case KindHeadline:
			out = append(out, paragraph{text: s.Lines[0], bold: true, halfPoints: 24, color: accentHex, center: true, spaceAfter: 200})
		case KindExperience:
			out = append(out, headingParagraph(s.Kind))
			for _, l := range s.Lines {
				if item, ok := isBullet(l); ok {
					out = append(out, paragraph{text: item, halfPoints: 22, bullet: true, spaceAfter: 50})
				} else {
					out = append(out, paragraph{text: l, bold: true, halfPoints: 22, spaceBefore: 100, spaceAfter: 50})
				}
			}
		default:
			out = append(out, headingParagraph(s.Kind))
			for _, l := range s.Lines {
				item, ok := isBullet(l)
				out = append(out, paragraph{text: item, halfPoints: 22, bullet: ok, spaceAfter: 50})
			}
		}
	}
	return out
}

func headingParagraph(kind SectionKind) paragraph {
	return paragraph{
		text:         kind.Title(),
		bold:         true,
		halfPoints:   26,
		color:        accentHex,
		spaceBefore:  100,
		spaceAfter:   100,
		bottomBorder: true,
	}
}

func writeParagraph(sb *strings.Builder, p paragraph) {
	sb.WriteString("<w:p><w:pPr>")
	fmt.Fprintf(sb, `<w:spacing w:before="%d" w:after="%d"/>`, p.spaceBefore, p.spaceAfter)
	if p.bottomBorder {
		fmt.Fprintf(sb, `<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="%s"/></w:pBdr>`, accentHex)
	}
	if p.bullet {
		sb.WriteString(`<w:ind w:left="360" w:hanging="360"/>`)
	}
	if p.center {
		sb.WriteString(`<w:jc w:val="center"/>`)
	}
	sb.WriteString("</w:pPr><w:r><w:rPr>")
	if p.bold {
		sb.WriteString("<w:b/>")
	}
	if p.color != "" {
		fmt.Fprintf(sb, `<w:color w:val="%s"/>`, p.color)
	}
	fmt.Fprintf(sb, `<w:sz w:val="%d"/>`, p.halfPoints)
	sb.WriteString(`</w:rPr><w:t xml:space="preserve">`)
	text := p.text
	if p.bullet {
		text = "•\t" + text
	}
	sb.WriteString(escape(text))
	sb.WriteString("</w:t></w:r></w:p>")
}

func escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
