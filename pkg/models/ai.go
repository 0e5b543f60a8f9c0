// Package models contains shared data models used across the audimed codebase.
package models

import (
	"context"
	"errors"
)

// Sentinel errors shared by every Extractor implementation. They live here so
// provider packages never have to import their parent.
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// Extractor is the core interface every AI integration must implement.
// Never call a specific provider directly — always inject this interface.
type Extractor interface {
	// ExtractFromText structures the extracted text of one document.
	ExtractFromText(ctx context.Context, docName, text string) (DocumentData, error)
	// ExtractFromImage structures one rasterized page image.
	ExtractFromImage(ctx context.Context, imagePath string) (DocumentData, error)
	// GenerateReport produces the formal audit report for a consolidated case file.
	GenerateReport(ctx context.Context, caseFile CaseFile) (AuditReport, error)
	// Name returns the provider identifier (e.g., "openai").
	Name() string
}
