package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invoice-scanner/internal/cache"
	"invoice-scanner/internal/dto"
	"invoice-scanner/internal/extractor"
	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentWriter persists one normalized extraction and returns the new document id.
type DocumentWriter interface {
	Save(ctx context.Context, ext models.NormalizedExtraction, fileName string) (int64, error)
}

type IngestErrorKind int

const (
	KindValidation IngestErrorKind = iota
	KindServiceUnavailable
	KindUnprocessable
	KindInternal
)

func (k IngestErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// IngestError is the only error Ingest returns. Message is safe to show to
// the caller; Err carries the detail for logs.
type IngestError struct {
	Kind    IngestErrorKind
	Message string
	Err     error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Status maps the failure kind to an HTTP status code.
func (e *IngestError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func validationError(format string, args ...any) *IngestError {
	return &IngestError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

type IngestService struct {
	extractor    extractor.Extractor
	writer       DocumentWriter
	cache        cache.Cache
	maxBytes     int64
	allowedTypes map[string]struct{}
	logger       *zap.Logger
}

func NewIngestService(
	ext extractor.Extractor,
	writer DocumentWriter,
	c cache.Cache,
	cfg config.UploadConfig,
	logger *zap.Logger,
) *IngestService {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = struct{}{}
	}

	return &IngestService{
		extractor:    ext,
		writer:       writer,
		cache:        c,
		maxBytes:     cfg.MaxBytes,
		allowedTypes: allowed,
		logger:       logger,
	}
}

// Ingest runs validate, extract, normalize and persist for one upload.
// Every failure is an *IngestError; nothing is retried.
func (s *IngestService) Ingest(ctx context.Context, file *models.UploadedFile, kind models.DocumentKind) (*dto.IngestResponse, error) {
	start := time.Now()
	log := s.logger.With(
		zap.String("ingestion_id", uuid.NewString()),
		zap.String("kind", string(kind)),
	)

	mimeType, verr := s.validate(file, kind)
	if verr != nil {
		log.Info("Upload rejected", zap.String("reason", verr.Message))
		return nil, verr
	}
	log = log.With(
		zap.String("file_name", file.Name),
		zap.Int64("size", file.Size()),
		zap.String("mime_type", mimeType),
	)
	log.Info("Upload accepted")

	raw, err := s.extractor.Analyze(ctx, file.Data, mimeType, kind)
	if err != nil {
		ierr := classifyExtractionError(err)
		log.Error("Extraction failed", zap.String("error_kind", ierr.Kind.String()), zap.Error(err))
		return nil, ierr
	}

	extracted := Normalize(raw, kind)
	log.Debug("Extraction normalized",
		zap.String("vendor", extracted.VendorName),
		zap.String("total", extracted.TotalAmount.String()),
		zap.Int("line_items", len(extracted.LineItems)),
	)

	documentID, err := s.writer.Save(ctx, extracted, file.Name)
	if err != nil {
		log.Error("Failed to persist document", zap.Error(err))
		return nil, &IngestError{Kind: KindInternal, Message: "Failed to save document", Err: err}
	}

	if err := s.cache.Delete(ctx, DashboardCacheKeys...); err != nil {
		log.Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}

	log.Info("Document ingested",
		zap.Int64("document_id", documentID),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &dto.IngestResponse{
		Success:    true,
		DocumentID: documentID,
		Extracted:  &extracted,
		Message:    successMessage(kind, file.Name),
	}, nil
}

// validate checks the upload before any external call and returns the
// effective MIME type.
func (s *IngestService) validate(file *models.UploadedFile, kind models.DocumentKind) (string, *IngestError) {
	if kind != models.DocumentKindInvoice && kind != models.DocumentKindReceipt {
		return "", validationError("Unknown document kind %q", kind)
	}
	if file == nil || len(file.Data) == 0 {
		return "", validationError("No file uploaded")
	}
	if file.Size() > s.maxBytes {
		return "", validationError("File too large: %d bytes exceeds the %d byte limit", file.Size(), s.maxBytes)
	}

	mimeType := resolveMIMEType(file)
	if _, ok := s.allowedTypes[mimeType]; !ok {
		return "", validationError("Unsupported file type %q. Upload a JPEG, PNG, BMP, TIFF or PDF", mimeType)
	}
	return mimeType, nil
}

// resolveMIMEType trusts a specific declared type and sniffs the content
// when the declared type is missing or generic.
func resolveMIMEType(file *models.UploadedFile) string {
	declared := mediaType(file.ContentType)
	if declared == "" || declared == "application/octet-stream" {
		declared = mediaType(mimetype.Detect(file.Data).String())
	}

	switch declared {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/x-ms-bmp":
		return "image/bmp"
	}
	return declared
}

func mediaType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func classifyExtractionError(err error) *IngestError {
	switch {
	case errors.Is(err, extractor.ErrNotConfigured):
		return &IngestError{Kind: KindServiceUnavailable, Message: "Document analysis service is not configured", Err: err}
	case errors.Is(err, extractor.ErrNoDataExtracted):
		return &IngestError{Kind: KindUnprocessable, Message: "No data could be extracted from the document", Err: err}
	default:
		return &IngestError{Kind: KindInternal, Message: "Failed to analyze document", Err: err}
	}
}

func successMessage(kind models.DocumentKind, fileName string) string {
	if kind == models.DocumentKindReceipt {
		return fmt.Sprintf("Receipt analyzed: %s", fileName)
	}
	return fmt.Sprintf("Successfully extracted data from %s", fileName)
}
