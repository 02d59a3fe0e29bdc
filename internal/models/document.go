package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind selects the extraction profile.
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindReceipt DocumentKind = "receipt"
)

// ParseDocumentKind accepts "invoice" or "receipt" (case-insensitive); empty means invoice.
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch DocumentKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", DocumentKindInvoice:
		return DocumentKindInvoice, nil
	case DocumentKindReceipt:
		return DocumentKindReceipt, nil
	default:
		return "", fmt.Errorf("unknown document kind %q", s)
	}
}

type Document struct {
	ID              int64               `db:"id"`
	FileName        string              `db:"file_name"`
	VendorName      string              `db:"vendor_name"`
	InvoiceDate     *time.Time          `db:"invoice_date"`
	TotalAmount     decimal.Decimal     `db:"total_amount"`
	Subtotal        decimal.NullDecimal `db:"subtotal"`
	TaxAmount       decimal.NullDecimal `db:"tax_amount"`
	Currency        string              `db:"currency"`
	ConfidenceScore decimal.Decimal     `db:"confidence_score"`
	RawText         string              `db:"raw_text"`
	CategoryID      *int64              `db:"category_id"`
	CategoryName    *string             `db:"category_name"`
	CategoryIcon    *string             `db:"category_icon"`
	CreatedAt       time.Time           `db:"created_at"`
}

type LineItem struct {
	ID          int64               `db:"id"`
	DocumentID  int64               `db:"document_id"`
	Description string              `db:"description"`
	Quantity    decimal.Decimal     `db:"quantity"`
	UnitPrice   decimal.NullDecimal `db:"unit_price"`
	Amount      decimal.Decimal     `db:"amount"`
}

type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Icon string `db:"icon"`
}

// DocumentSummary is a list row: a document without raw text plus its item count.
type DocumentSummary struct {
	Document
	ItemCount int64 `db:"item_count"`
}

// DocumentFilter narrows document listings. Zero values mean "no constraint".
type DocumentFilter struct {
	CategoryID *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
	Limit      uint64
}
