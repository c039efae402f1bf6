package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

const (
	documentTitle    = "Inkless News"
	documentSubtitle = "Your Personalized Newspaper"
	tocHeading       = "Today's Articles"
	readMoreLabel    = "Read the full article"

	dateLayout = "January 2, 2006"
)

// Document is the format-independent skeleton every backend renders:
// a cover, a table of contents, one section per article in curator
// order, and a footer.
type Document struct {
	Title    string
	Subtitle string
	Date     string
	Username string
	Sections []Section
}

// Section is one article's slot in the document.
type Section struct {
	Title    string
	Source   string
	Category string
	Body     string
	URL      string
}

// Footer returns the attribution line for the document.
func (d Document) Footer() string {
	return fmt.Sprintf("%s - Curated by AI for %s", d.Title, d.Username)
}

// backend renders the shared skeleton into one concrete format.
type backend interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// Engine dispatches render requests to format backends. There is no
// native MOBI encoder in the stack; mobi requests are served by the
// PDF backend as a documented fallback, never an error.
type Engine struct {
	backends map[domain.Format]backend
	logger   *slog.Logger
}

var _ ports.Renderer = (*Engine)(nil)

// NewEngine registers the available format backends.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		backends: map[domain.Format]backend{
			domain.FormatPDF:  &pdfBackend{},
			domain.FormatEPUB: &epubBackend{},
		},
		logger: logger,
	}
}

// Render builds the document skeleton and hands it to the backend for
// the requested format. Failures come back as *domain.RenderError.
func (e *Engine) Render(ctx context.Context, req ports.RenderRequest) ([]byte, error) {
	doc := buildDocument(req)

	format := req.Format
	if format == domain.FormatMOBI {
		// Known stop-gap carried over deliberately: the delivery keeps
		// mobi naming and content type while the bytes are PDF.
		e.warn("mobi requested, falling back to pdf bytes")
		format = domain.FormatPDF
	}

	b, ok := e.backends[format]
	if !ok {
		return nil, &domain.RenderError{Format: req.Format, Err: fmt.Errorf("unsupported format %q", req.Format)}
	}

	data, err := b.Render(ctx, doc)
	if err != nil {
		return nil, &domain.RenderError{Format: req.Format, Err: err}
	}

	return data, nil
}

func buildDocument(req ports.RenderRequest) Document {
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	doc := Document{
		Title:    documentTitle,
		Subtitle: documentSubtitle,
		Date:     date.Format(dateLayout),
		Username: req.Username,
		Sections: make([]Section, 0, len(req.Articles)),
	}

	for _, article := range req.Articles {
		doc.Sections = append(doc.Sections, Section{
			Title:    article.Title,
			Source:   article.Source,
			Category: article.Category,
			Body:     article.Summary,
			URL:      article.URL,
		})
	}

	return doc
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
