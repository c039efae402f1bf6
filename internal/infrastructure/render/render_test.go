package render

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

func testRequest(format domain.Format) ports.RenderRequest {
	return ports.RenderRequest{
		Username: "ada",
		Date:     time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Format:   format,
		Articles: []domain.Curated{
			{
				Candidate: domain.Candidate{Title: "Alpha story", Source: "The Daily", URL: "https://example.com/alpha"},
				Category:  "Technology",
				Summary:   "Summary of alpha.",
			},
			{
				Candidate: domain.Candidate{Title: "Beta story", Source: "SportDay", URL: "https://example.com/beta"},
				Category:  "Sports",
				Summary:   "Summary of beta.",
			},
			{
				Candidate: domain.Candidate{Title: "Gamma story", Source: "FinanceNow", URL: "https://example.com/gamma"},
				Category:  "Finance",
				Summary:   "Summary of gamma.",
			},
		},
	}
}

func TestBuildDocumentPreservesOrder(t *testing.T) {
	t.Parallel()

	doc := buildDocument(testRequest(domain.FormatPDF))

	if doc.Title != "Inkless News" || doc.Date != "March 1, 2026" {
		t.Fatalf("unexpected skeleton header: %+v", doc)
	}

	want := []string{"Alpha story", "Beta story", "Gamma story"}
	if len(doc.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(doc.Sections))
	}
	for i, title := range want {
		if doc.Sections[i].Title != title {
			t.Fatalf("section %d = %q, want %q", i, doc.Sections[i].Title, title)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	data, err := engine.Render(context.Background(), testRequest(domain.FormatPDF))
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF (first bytes %q)", data[:min(8, len(data))])
	}
}

func TestRenderMOBIFallsBackToPDF(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	data, err := engine.Render(context.Background(), testRequest(domain.FormatMOBI))
	if err != nil {
		t.Fatalf("mobi request must not fail under the pdf fallback: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("mobi fallback must return pdf bytes")
	}
}

func TestRenderEPUB(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	data, err := engine.Render(context.Background(), testRequest(domain.FormatEPUB))
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("epub output is not a zip container: %v", err)
	}

	var tocBody string
	chapters := map[string]bool{}
	for _, f := range reader.File {
		name := f.Name
		if strings.Contains(name, "article-") {
			chapters[name] = true
		}
		if strings.Contains(name, "toc-page.xhtml") {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open toc chapter: %v", err)
			}
			raw, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("read toc chapter: %v", err)
			}
			tocBody = string(raw)
		}
	}

	for i := 1; i <= 3; i++ {
		want := fmt.Sprintf("article-%d.xhtml", i)
		found := false
		for name := range chapters {
			if strings.HasSuffix(name, want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing chapter file %s", want)
		}
		if !strings.Contains(tocBody, want) {
			t.Fatalf("toc does not link to %s", want)
		}
	}

	// Order preserved: 1=Alpha, 2=Beta, 3=Gamma.
	alpha := strings.Index(tocBody, "Alpha story")
	beta := strings.Index(tocBody, "Beta story")
	gamma := strings.Index(tocBody, "Gamma story")
	if alpha < 0 || beta < 0 || gamma < 0 || !(alpha < beta && beta < gamma) {
		t.Fatalf("toc order broken: alpha=%d beta=%d gamma=%d", alpha, beta, gamma)
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	_, err := engine.Render(context.Background(), testRequest(domain.Format("docx")))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
