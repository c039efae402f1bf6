package render

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmaupin/go-epub"
)

// epubBackend re-derives chapters from the skeleton: a cover chapter,
// a table-of-contents chapter with per-chapter links, and one chapter
// per article. The EPUB container is staged in a temporary directory
// that is removed even on failure.
type epubBackend struct{}

func (b *epubBackend) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	book := epub.NewEpub(fmt.Sprintf("%s - %s", doc.Title, doc.Date))
	book.SetAuthor(doc.Title)

	cover := fmt.Sprintf(`<h1>%s</h1>
<p class="metadata">%s</p>
<p><em>%s</em></p>`,
		html.EscapeString(doc.Title),
		html.EscapeString(doc.Date),
		html.EscapeString(doc.Subtitle))
	if _, err := book.AddSection(cover, "Cover", "cover.xhtml", ""); err != nil {
		return nil, fmt.Errorf("add cover: %w", err)
	}

	// Chapter filenames are fixed up front so the TOC can link to
	// chapters written after it.
	filenames := make([]string, len(doc.Sections))
	for i := range doc.Sections {
		filenames[i] = fmt.Sprintf("article-%d.xhtml", i+1)
	}

	var toc strings.Builder
	toc.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(tocHeading)))
	for i, section := range doc.Sections {
		toc.WriteString(fmt.Sprintf(`<p class="toc-item"><a href="%s">%d. %s</a> <span class="metadata">(%s)</span></p>`+"\n",
			filenames[i], i+1, html.EscapeString(section.Title), html.EscapeString(section.Category)))
	}
	if _, err := book.AddSection(toc.String(), "Table of Contents", "toc-page.xhtml", ""); err != nil {
		return nil, fmt.Errorf("add table of contents: %w", err)
	}

	for i, section := range doc.Sections {
		chapter := fmt.Sprintf(`<h1>%s</h1>
<p class="metadata">%s | %s</p>
<div>%s</div>
<p><a href="%s">%s</a></p>`,
			html.EscapeString(section.Title),
			html.EscapeString(section.Source),
			html.EscapeString(section.Category),
			section.Body,
			section.URL,
			html.EscapeString(readMoreLabel))
		if _, err := book.AddSection(chapter, section.Title, filenames[i], ""); err != nil {
			return nil, fmt.Errorf("add chapter %d: %w", i+1, err)
		}
	}

	footer := fmt.Sprintf(`<p class="metadata">%s</p><p class="metadata">Generated on %s</p>`,
		html.EscapeString(doc.Footer()), html.EscapeString(doc.Date))
	if _, err := book.AddSection(footer, "About", "footer.xhtml", ""); err != nil {
		return nil, fmt.Errorf("add footer: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "inkless-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "newspaper.epub")
	if err := book.Write(path); err != nil {
		return nil, fmt.Errorf("write epub: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read staged epub: %w", err)
	}

	return data, nil
}
