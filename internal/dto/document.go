package dto

import (
	"invoice-scanner/internal/models"

	"github.com/shopspring/decimal"
)

type IngestResponse struct {
	Success    bool                         `json:"success"`
	DocumentID int64                        `json:"documentId"`
	Extracted  *models.NormalizedExtraction `json:"extracted"`
	Message    string                       `json:"message"`
}

type DocumentResponse struct {
	ID              int64               `json:"id"`
	FileName        string              `json:"file_name"`
	VendorName      string              `json:"vendor_name"`
	InvoiceDate     *string             `json:"invoice_date"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Subtotal        decimal.NullDecimal `json:"subtotal"`
	TaxAmount       decimal.NullDecimal `json:"tax_amount"`
	Currency        string              `json:"currency"`
	ConfidenceScore decimal.Decimal     `json:"confidence_score"`
	CategoryID      *int64              `json:"category_id"`
	CategoryName    *string             `json:"category_name"`
	CategoryIcon    *string             `json:"category_icon"`
	ItemCount       *int64              `json:"item_count,omitempty"`
	RawText         string              `json:"raw_text,omitempty"`
	CreatedAt       string              `json:"created_at"`
}

type LineItemResponse struct {
	ID          int64               `json:"id"`
	DocumentID  int64               `json:"document_id"`
	Description string              `json:"description"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	Amount      decimal.Decimal     `json:"amount"`
}

type DocumentDetailResponse struct {
	Document  DocumentResponse   `json:"document"`
	LineItems []LineItemResponse `json:"lineItems"`
}

type UpdateCategoryRequest struct {
	// CategoryID null (or absent) clears the category.
	CategoryID *int64 `json:"category_id" validate:"omitempty,gt=0"`
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
