package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"inklessnews/internal/infrastructure/rss"
)

// pdfBackend renders the skeleton as paginated A4 PDF: cover page,
// linked table of contents, one page per article, footer on the last
// article page.
type pdfBackend struct{}

func (b *pdfBackend) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s - %s", doc.Title, doc.Date), true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Cover.
	pdf.AddPage()
	pdf.SetY(100)
	pdf.SetFont("Helvetica", "B", 36)
	pdf.CellFormat(0, 16, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, tr(doc.Date), "", 1, "C", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 14)
	pdf.CellFormat(0, 10, tr(doc.Subtitle), "", 1, "C", false, 0, "")

	// Table of contents. Links resolve once each article page exists.
	links := make([]int, len(doc.Sections))
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(tocHeading), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 12)
	for i, section := range doc.Sections {
		links[i] = pdf.AddLink()
		entry := fmt.Sprintf("%d. %s (%s)", i+1, section.Title, section.Category)
		pdf.CellFormat(0, 8, tr(entry), "", 1, "L", false, links[i], "")
	}

	// Articles, in curator order.
	for i, section := range doc.Sections {
		pdf.AddPage()
		pdf.SetLink(links[i], 0, -1)

		pdf.SetFont("Helvetica", "B", 20)
		pdf.MultiCell(0, 10, tr(section.Title), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  |  %s", section.Source, section.Category)), "", 1, "L", false, 0, "")
		pdf.SetTextColor(51, 51, 51)
		pdf.Ln(4)

		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 7, tr(rss.CleanText(section.Body, 0)), "", "L", false)
		pdf.Ln(4)

		pdf.SetFont("Helvetica", "U", 10)
		pdf.SetTextColor(74, 144, 226)
		pdf.CellFormat(0, 6, tr(readMoreLabel), "", 1, "L", false, 0, section.URL)
		pdf.SetTextColor(51, 51, 51)
	}

	// Footer.
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 6, tr(doc.Footer()), "T", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr("Generated on "+doc.Date), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return buf.Bytes(), nil
}
