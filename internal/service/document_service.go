package service

import (
	"context"
	"fmt"
	"time"

	"invoice-scanner/internal/cache"
	"invoice-scanner/internal/dto"
	"invoice-scanner/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultListLimit uint64 = 50
	MaxListLimit     uint64 = 500
)

// DocumentLister lists stored documents newest first.
type DocumentLister interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]*models.DocumentSummary, error)
}

type DocumentStore interface {
	DocumentLister
	Get(ctx context.Context, id int64) (*models.Document, []*models.LineItem, error)
	UpdateCategory(ctx context.Context, id int64, categoryID *int64) error
	Delete(ctx context.Context, id int64) error
}

type CategoryLister interface {
	List(ctx context.Context) ([]*models.Category, error)
}

type DocumentService struct {
	docs       DocumentStore
	categories CategoryLister
	cache      cache.Cache
	logger     *zap.Logger
}

func NewDocumentService(docs DocumentStore, categories CategoryLister, c cache.Cache, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		docs:       docs,
		categories: categories,
		cache:      c,
		logger:     logger,
	}
}

// ListDocuments applies the default limit when none is given and caps it at MaxListLimit.
func (s *DocumentService) ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]dto.DocumentResponse, error) {
	switch {
	case filter.Limit == 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}

	docs, err := s.docs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return toSummaryResponses(docs), nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id int64) (*dto.DocumentDetailResponse, error) {
	doc, items, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}

	resp := &dto.DocumentDetailResponse{
		Document:  toDocumentResponse(doc),
		LineItems: make([]dto.LineItemResponse, len(items)),
	}
	resp.Document.RawText = doc.RawText
	for i, item := range items {
		resp.LineItems[i] = dto.LineItemResponse{
			ID:          item.ID,
			DocumentID:  item.DocumentID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}
	return resp, nil
}

// UpdateCategory assigns a category, or clears it when categoryID is nil.
func (s *DocumentService) UpdateCategory(ctx context.Context, id int64, categoryID *int64) error {
	if err := s.docs.UpdateCategory(ctx, id, categoryID); err != nil {
		return fmt.Errorf("failed to update category of document %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id int64) error {
	if err := s.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	s.logger.Info("Document deleted", zap.Int64("document_id", id))
	s.invalidate(ctx)
	return nil
}

func (s *DocumentService) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	resp := make([]dto.CategoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = dto.CategoryResponse{ID: c.ID, Name: c.Name, Icon: c.Icon}
	}
	return resp, nil
}

func (s *DocumentService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, DashboardCacheKeys...); err != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}
}

func toDocumentResponse(doc *models.Document) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:              doc.ID,
		FileName:        doc.FileName,
		VendorName:      doc.VendorName,
		TotalAmount:     doc.TotalAmount,
		Subtotal:        doc.Subtotal,
		TaxAmount:       doc.TaxAmount,
		Currency:        doc.Currency,
		ConfidenceScore: doc.ConfidenceScore,
		CategoryID:      doc.CategoryID,
		CategoryName:    doc.CategoryName,
		CategoryIcon:    doc.CategoryIcon,
		CreatedAt:       doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.InvoiceDate != nil {
		d := doc.InvoiceDate.Format(time.DateOnly)
		resp.InvoiceDate = &d
	}
	return resp
}

func toSummaryResponses(docs []*models.DocumentSummary) []dto.DocumentResponse {
	resp := make([]dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = toDocumentResponse(&doc.Document)
		count := doc.ItemCount
		resp[i].ItemCount = &count
	}
	return resp
}
