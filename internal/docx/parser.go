package docx

import (
	"context"
	"fmt"
	"log/slog"

	"docbind/internal/schema"
	"docbind/internal/store"
)

// Result is the outcome of parsing a stored template.
type Result struct {
	Placeholders []string  `json:"placeholders" yaml:"placeholders"`
	Structure    Structure `json:"structure" yaml:"structure"`
	FieldCount   int       `json:"field_count" yaml:"field_count"`
}

// Parser reads template payloads from a store and extracts placeholders.
type Parser struct {
	store  store.Store
	logger *slog.Logger
}

// NewParser returns a parser reading from s. A nil logger discards output.
func NewParser(s store.Store, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Parser{store: s, logger: logger}
}

// ParseTemplate loads the template's payload and analyzes it.
func (p *Parser) ParseTemplate(ctx context.Context, templateID string) (Result, error) {
	rec, err := p.store.Read(ctx, templateID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", schema.ErrParseFailure, err)
	}

	if len(rec.Payload) == 0 {
		return Result{}, fmt.Errorf("%w: template %s has no document", schema.ErrParseFailure, templateID)
	}

	doc, err := Open(rec.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: template %s: %w", schema.ErrParseFailure, templateID, err)
	}

	placeholders := doc.Placeholders()

	p.logger.DebugContext(ctx, "parsed template",
		slog.String("template", templateID),
		slog.String("filename", rec.Filename),
		slog.Int("placeholders", len(placeholders)))

	return Result{
		Placeholders: placeholders,
		Structure:    doc.Structure(),
		FieldCount:   len(placeholders),
	}, nil
}

// Placeholders returns only the placeholder paths of the stored template.
func (p *Parser) Placeholders(ctx context.Context, templateID string) ([]string, error) {
	res, err := p.ParseTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	return res.Placeholders, nil
}
