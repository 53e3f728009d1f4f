package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Layout in points.
const (
	pdfMargin     = 43.2
	pdfBodySize   = 11
	pdfLineHeight = 15
)

// PDF renders text as a one-column Letter PDF using the core Helvetica font.
// Characters outside cp1252 are dropped by the font translator.
func (r *ResumeRenderer) PDF(text string) ([]byte, error) {
	sections := ParseSections(text)
	if len(sections) == 0 {
		return nil, ErrEmptyResume
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("resumeq", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pdfMargin

	body := func(style, line string) {
		pdf.SetFont("Helvetica", style, pdfBodySize)
		pdf.SetTextColor(0x1a, 0x1a, 0x1a)
		pdf.MultiCell(0, pdfLineHeight, tr(line), "", "L", false)
	}
	bullet := func(item string) {
		pdf.SetFont("Helvetica", "", pdfBodySize)
		pdf.SetTextColor(0x1a, 0x1a, 0x1a)
		pdf.CellFormat(12, pdfLineHeight, tr("•"), "", 0, "L", false, 0, "")
		pdf.MultiCell(contentWidth-12, pdfLineHeight, tr(item), "", "L", false)
	}

	for _, s := range sections {
		switch s.Kind {
		case KindHeader:
			pdf.SetFont("Helvetica", "B", 18)
			pdf.SetTextColor(0x1a, 0x1a, 0x1a)
			pdf.MultiCell(0, 22, tr(s.Lines[0]), "", "C", false)
			pdf.SetFont("Helvetica", "", pdfBodySize)
			for _, l := range s.Lines[1:] {
				pdf.MultiCell(0, pdfLineHeight, tr(l), "", "C", false)
			}
			pdf.Ln(6)
		case KindHeadline:
			pdf.SetFont("Helvetica", "B", 12)
			pdf.SetTextColor(accent[0], accent[1], accent[2])
			pdf.MultiCell(0, 16, tr(s.Lines[0]), "", "C", false)
			pdf.Ln(6)
		default:
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", 13)
			pdf.SetTextColor(accent[0], accent[1], accent[2])
			pdf.CellFormat(0, 18, tr(s.Kind.Title()), "", 1, "L", false, 0, "")
			y := pdf.GetY()
			pdf.SetDrawColor(accent[0], accent[1], accent[2])
			pdf.SetLineWidth(0.75)
			pdf.Line(pdfMargin, y, pageWidth-pdfMargin, y)
			pdf.Ln(4)

			for _, l := range s.Lines {
				if item, ok := isBullet(l); ok {
					bullet(item)
				} else if s.Kind == KindExperience {
					body("B", l)
				} else {
					body("", l)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
