package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opt is a value that is either present or absent.
type Opt[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Valid: true}
}

func None[T any]() Opt[T] {
	return Opt[T]{}
}

func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// FieldKind is the provider-declared type of an extracted field.
type FieldKind string

const (
	FieldString   FieldKind = "string"
	FieldNumber   FieldKind = "number"
	FieldCurrency FieldKind = "currency"
	FieldDate     FieldKind = "date"
	FieldArray    FieldKind = "array"
	FieldObject   FieldKind = "object"
	FieldOther    FieldKind = "other"
)

// FieldValue is one extracted field, decoded once at the gateway boundary.
// Content is the text as it appears on the document; the typed values are
// present only when the provider resolved them.
type FieldValue struct {
	Kind         FieldKind
	Content      string
	String       Opt[string]
	Number       Opt[float64]
	CurrencyCode Opt[string]
	Date         Opt[time.Time]
	Array        []FieldValue
	Object       Fields
	Confidence   Opt[float64]
}

// Fields maps provider field names (VendorName, InvoiceTotal, ...) to values.
type Fields map[string]FieldValue

// Lookup returns the named field; a nil map yields absent.
func (f Fields) Lookup(name string) (FieldValue, bool) {
	if f == nil {
		return FieldValue{}, false
	}
	v, ok := f[name]
	return v, ok
}

// RawExtractionResult is what the extraction gateway hands to the normalizer.
// Every part is optional: an empty value is a valid result.
type RawExtractionResult struct {
	Fields     Fields
	Confidence Opt[float64]
	Content    Opt[string]
	// ModelID records which provider model produced the result.
	ModelID string
}

type NormalizedLineItem struct {
	Description string              `json:"description"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unitPrice"`
	Amount      decimal.Decimal     `json:"amount"`
}

// NormalizedExtraction is the fixed internal shape persisted for every ingestion.
type NormalizedExtraction struct {
	VendorName string `json:"vendorName"`
	// InvoiceDate is the date as printed, kept for display even when unparsable.
	InvoiceDate  string               `json:"invoiceDate,omitempty"`
	DocumentDate *time.Time           `json:"documentDate,omitempty"`
	TotalAmount  decimal.Decimal      `json:"totalAmount"`
	Subtotal     decimal.NullDecimal  `json:"subtotal"`
	TaxAmount    decimal.NullDecimal  `json:"taxAmount"`
	Currency     string               `json:"currency"`
	Confidence   decimal.Decimal      `json:"confidence"`
	RawText      string               `json:"-"`
	LineItems    []NormalizedLineItem `json:"lineItems"`
}

// UploadedFile is a caller-owned upload; it lives for one ingestion only.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *UploadedFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}
