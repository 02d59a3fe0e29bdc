// Package extractor wraps external document-analysis services and decodes
// their responses into models.RawExtractionResult.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"go.uber.org/zap"
)

var (
	// ErrNotConfigured means the provider endpoint or credential is missing or rejected.
	ErrNotConfigured = errors.New("extraction service not configured")
	// ErrNoDataExtracted means the provider ran but found no usable document.
	ErrNoDataExtracted = errors.New("no data extracted from document")
)

// TransportError covers network failures, timeouts, provider 5xx and
// malformed provider payloads. Callers may resubmit; nothing here retries.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extractor %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extractor %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Extractor analyzes one document. Implementations hold no per-call state.
type Extractor interface {
	Analyze(ctx context.Context, data []byte, mimeType string, kind models.DocumentKind) (*models.RawExtractionResult, error)
}

// ModelSet maps a document kind to the provider model that handles it.
type ModelSet struct {
	Invoice string
	Receipt string
}

func (m ModelSet) For(kind models.DocumentKind) string {
	if kind == models.DocumentKindReceipt {
		return m.Receipt
	}
	return m.Invoice
}

// New builds the extractor selected by cfg.Extraction.Provider.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Extractor, error) {
	switch cfg.Extraction.Provider {
	case "", "azure":
		return NewAzureClient(cfg.Extraction, logger), nil
	case "gigachat":
		return NewGigaChatClient(ctx, cfg.GigaChat, logger), nil
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", cfg.Extraction.Provider)
	}
}
