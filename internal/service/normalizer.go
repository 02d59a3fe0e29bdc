package service

import (
	"math"
	"strings"
	"time"

	"invoice-scanner/internal/models"

	"github.com/shopspring/decimal"
)

// Column bounds of NUMERIC(12,2) amounts and NUMERIC(10,2) quantities.
var (
	maxAmount   = decimal.New(1, 10)
	maxQuantity = decimal.New(1, 8)
)

const (
	defaultCurrency        = "USD"
	defaultItemDescription = "Item"
	itemsField             = "Items"
)

// accessor reads one semantic value from a field set. The second result is
// false when the field is absent or its value is malformed.
type accessor[T any] func(models.Fields) (T, bool)

// first returns the value of the first accessor that yields one.
func first[T any](fields models.Fields, chain []accessor[T]) (T, bool) {
	for _, get := range chain {
		if v, ok := get(fields); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// printedDate keeps the text as printed next to the parsed date, which is
// absent when the text could not be parsed.
type printedDate struct {
	display string
	date    *time.Time
}

// profile is the fallback table for one document kind.
type profile struct {
	unknownVendor string
	vendor        []accessor[string]
	date          []accessor[printedDate]
	total         []accessor[decimal.Decimal]
	subtotal      []accessor[decimal.Decimal]
	tax           []accessor[decimal.Decimal]
	currency      []accessor[string]

	itemDescription []accessor[string]
	itemQuantity    []accessor[decimal.Decimal]
	itemUnitPrice   []accessor[decimal.Decimal]
	itemAmount      []accessor[decimal.Decimal]
}

var profiles = map[models.DocumentKind]profile{
	models.DocumentKindInvoice: {
		unknownVendor: "Unknown Vendor",
		vendor:        []accessor[string]{text("VendorName"), text("MerchantName")},
		date:          []accessor[printedDate]{date("InvoiceDate"), date("TransactionDate")},
		total:         []accessor[decimal.Decimal]{nonNegative(boundedAmount("InvoiceTotal")), nonNegative(boundedAmount("Total"))},
		subtotal:      []accessor[decimal.Decimal]{boundedAmount("SubTotal"), boundedAmount("Subtotal")},
		tax:           []accessor[decimal.Decimal]{boundedAmount("TotalTax"), boundedAmount("Tax")},
		currency:      []accessor[string]{currencyCode("InvoiceTotal"), currencyCode("Total")},

		itemDescription: []accessor[string]{text("Description"), text("Name")},
		itemQuantity:    []accessor[decimal.Decimal]{boundedQuantity("Quantity")},
		itemUnitPrice:   []accessor[decimal.Decimal]{boundedAmount("UnitPrice"), boundedAmount("Price")},
		itemAmount:      []accessor[decimal.Decimal]{boundedAmount("Amount"), boundedAmount("TotalPrice")},
	},
	models.DocumentKindReceipt: {
		unknownVendor: "Unknown",
		vendor:        []accessor[string]{text("MerchantName"), text("VendorName")},
		date:          []accessor[printedDate]{date("TransactionDate"), date("InvoiceDate")},
		total:         []accessor[decimal.Decimal]{nonNegative(boundedAmount("Total")), nonNegative(boundedAmount("InvoiceTotal"))},
		subtotal:      []accessor[decimal.Decimal]{boundedAmount("Subtotal"), boundedAmount("SubTotal")},
		tax:           []accessor[decimal.Decimal]{boundedAmount("TotalTax"), boundedAmount("Tax")},
		currency:      []accessor[string]{currencyCode("Total"), currencyCode("InvoiceTotal")},

		itemDescription: []accessor[string]{text("Description"), text("Name")},
		itemQuantity:    []accessor[decimal.Decimal]{boundedQuantity("Quantity")},
		itemUnitPrice:   []accessor[decimal.Decimal]{boundedAmount("Price"), boundedAmount("UnitPrice")},
		itemAmount:      []accessor[decimal.Decimal]{boundedAmount("TotalPrice"), boundedAmount("Amount")},
	},
}

// Normalize maps a provider result onto the fixed extraction shape. It never
// fails: every missing or malformed value falls back to its default.
func Normalize(raw *models.RawExtractionResult, kind models.DocumentKind) models.NormalizedExtraction {
	p, ok := profiles[kind]
	if !ok {
		p = profiles[models.DocumentKindInvoice]
	}
	if raw == nil {
		raw = &models.RawExtractionResult{}
	}
	fields := raw.Fields

	out := models.NormalizedExtraction{
		VendorName:  p.unknownVendor,
		TotalAmount: decimal.Zero,
		Currency:    defaultCurrency,
		Confidence:  normalizeConfidence(raw.Confidence),
		LineItems:   []models.NormalizedLineItem{},
	}

	if v, ok := first(fields, p.vendor); ok {
		out.VendorName = v
	}
	if d, ok := first(fields, p.date); ok {
		out.InvoiceDate = d.display
		out.DocumentDate = d.date
	}
	if v, ok := first(fields, p.total); ok {
		out.TotalAmount = v
	}
	if v, ok := first(fields, p.subtotal); ok {
		out.Subtotal = decimal.NewNullDecimal(v)
	}
	if v, ok := first(fields, p.tax); ok {
		out.TaxAmount = decimal.NewNullDecimal(v)
	}
	if v, ok := first(fields, p.currency); ok {
		out.Currency = v
	}
	if content, ok := raw.Content.Get(); ok {
		out.RawText = sanitizeUTF8(content)
	}

	if items, ok := fields.Lookup(itemsField); ok {
		for _, item := range items.Array {
			out.LineItems = append(out.LineItems, normalizeItem(p, item.Object))
		}
	}

	return out
}

// normalizeItem always yields a line item; non-object items arrive here as a
// nil field set and get every default.
func normalizeItem(p profile, props models.Fields) models.NormalizedLineItem {
	item := models.NormalizedLineItem{
		Description: defaultItemDescription,
		Quantity:    decimal.NewFromInt(1),
		Amount:      decimal.Zero,
	}
	if v, ok := first(props, p.itemDescription); ok {
		item.Description = v
	}
	if v, ok := first(props, p.itemQuantity); ok {
		item.Quantity = v
	}
	if v, ok := first(props, p.itemUnitPrice); ok {
		item.UnitPrice = decimal.NewNullDecimal(v)
	}
	if v, ok := first(props, p.itemAmount); ok {
		item.Amount = v
	}
	return item
}

func normalizeConfidence(c models.Opt[float64]) decimal.Decimal {
	f, ok := c.Get()
	if !ok || math.IsNaN(f) || f <= 0 {
		return decimal.Zero
	}
	if f >= 1 {
		return decimal.NewFromInt(1)
	}
	d, _ := decimalFromFloat(f)
	return d
}

func text(name string) accessor[string] {
	return func(fields models.Fields) (string, bool) {
		fv, ok := fields.Lookup(name)
		if !ok {
			return "", false
		}
		if s, ok := fv.String.Get(); ok {
			if s, ok := cleanText(s); ok {
				return s, true
			}
		}
		return cleanText(fv.Content)
	}
}

func amount(name string) accessor[decimal.Decimal] {
	return func(fields models.Fields) (decimal.Decimal, bool) {
		fv, ok := fields.Lookup(name)
		if !ok {
			return decimal.Zero, false
		}
		if n, ok := fv.Number.Get(); ok {
			if d, ok := decimalFromFloat(n); ok {
				return d, true
			}
		}
		if fv.Content == "" {
			return decimal.Zero, false
		}
		return parseAmount(fv.Content)
	}
}

func boundedAmount(name string) accessor[decimal.Decimal] {
	return bounded(amount(name), maxAmount)
}

func boundedQuantity(name string) accessor[decimal.Decimal] {
	return bounded(amount(name), maxQuantity)
}

// bounded treats values that would overflow their column as absent.
func bounded(get accessor[decimal.Decimal], limit decimal.Decimal) accessor[decimal.Decimal] {
	return func(fields models.Fields) (decimal.Decimal, bool) {
		d, ok := get(fields)
		if !ok || d.Round(2).Abs().GreaterThanOrEqual(limit) {
			return decimal.Zero, false
		}
		return d, true
	}
}

func nonNegative(get accessor[decimal.Decimal]) accessor[decimal.Decimal] {
	return func(fields models.Fields) (decimal.Decimal, bool) {
		d, ok := get(fields)
		if !ok || d.IsNegative() {
			return decimal.Zero, false
		}
		return d, true
	}
}

func currencyCode(name string) accessor[string] {
	return func(fields models.Fields) (string, bool) {
		fv, ok := fields.Lookup(name)
		if !ok {
			return "", false
		}
		code, ok := fv.CurrencyCode.Get()
		if !ok {
			return "", false
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 3 {
			return "", false
		}
		for _, r := range code {
			if r < 'A' || r > 'Z' {
				return "", false
			}
		}
		return code, true
	}
}

func date(name string) accessor[printedDate] {
	return func(fields models.Fields) (printedDate, bool) {
		fv, ok := fields.Lookup(name)
		if !ok {
			return printedDate{}, false
		}

		display, hasDisplay := cleanText(fv.Content)
		if d, ok := fv.Date.Get(); ok {
			d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			if !hasDisplay {
				display = d.Format("2006-01-02")
			}
			return printedDate{display: display, date: &d}, true
		}
		if !hasDisplay {
			return printedDate{}, false
		}
		if d, ok := parseDate(display); ok {
			return printedDate{display: display, date: &d}, true
		}
		return printedDate{display: display}, true
	}
}
