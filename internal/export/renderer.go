package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/SadLabib/Spendit/internal/core"
)

// Format is a supported export document format.
type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a user-supplied format name to a Format. Matching
// is case-insensitive; anything outside the supported set fails with
// core.ErrUnsupportedFormat.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html":
		return FormatHTML, nil
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%q: %w", s, core.ErrUnsupportedFormat)
	}
}

// Document is a rendered export ready to be served as a download.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Engine turns an HTML document into a PDF.
type Engine interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// Renderer renders snapshots into export documents.
type Renderer struct {
	engine Engine
}

func NewRenderer(engine Engine) *Renderer {
	return &Renderer{engine: engine}
}

// Render produces the document for a snapshot in the requested format.
func (r *Renderer) Render(ctx context.Context, snap *Snapshot, format Format) (*Document, error) {
	switch format {
	case FormatHTML:
		return &Document{
			Data:        []byte(renderHTML(snap, styleDisplay)),
			ContentType: "text/html",
			Filename:    "PersonalData.html",
		}, nil

	case FormatCSV:
		return &Document{
			Data:        []byte(renderCSV(snap)),
			ContentType: "text/csv",
			Filename:    "PersonalData.csv",
		}, nil

	case FormatPDF:
		if r.engine == nil {
			return nil, fmt.Errorf("no render engine configured: %w", core.ErrUnsupportedFormat)
		}
		pdf, err := r.engine.RenderPDF(ctx, renderHTML(snap, stylePrint))
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return &Document{
			Data:        pdf,
			ContentType: "application/pdf",
			Filename:    "PersonalData.pdf",
		}, nil

	default:
		return nil, fmt.Errorf("%q: %w", format, core.ErrUnsupportedFormat)
	}
}
