package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"invoice-scanner/internal/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const extractionInstruction = `You read scanned invoices and receipts and return their contents as one JSON object.
Return only JSON, no markdown and no commentary. Use null for anything that is not printed on the document.`

const answerFormat = `{
  "found": true,
  "vendor": "seller name or null",
  "date": "YYYY-MM-DD or null",
  "currency": "ISO 4217 code or null",
  "total": number or null,
  "subtotal": number or null,
  "tax": number or null,
  "confidence": number between 0 and 1,
  "items": [
    {"description": "string or null", "quantity": number or null, "unitPrice": number or null, "amount": number or null}
  ]
}
Set "found" to false when the input is not an invoice or receipt.`

var (
	textPromptTemplate   = "Extract the %s below into this JSON shape:\n" + answerFormat + "\n\nDocument text:\n%s"
	visionPromptTemplate = "Extract the attached %s into this JSON shape:\n" + answerFormat
)

var answerSchema = jsonschema.MustCompileString("answer.json", `{
  "type": "object",
  "required": ["found"],
  "properties": {
    "found":      {"type": "boolean"},
    "vendor":     {"type": ["string", "null"]},
    "date":       {"type": ["string", "null"]},
    "currency":   {"type": ["string", "null"]},
    "total":      {"type": ["number", "string", "null"]},
    "subtotal":   {"type": ["number", "string", "null"]},
    "tax":        {"type": ["number", "string", "null"]},
    "confidence": {"type": ["number", "string", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "description": {"type": ["string", "null"]},
          "quantity":    {"type": ["number", "string", "null"]},
          "unitPrice":   {"type": ["number", "string", "null"]},
          "amount":      {"type": ["number", "string", "null"]}
        }
      }
    }
  }
}`)

type modelAnswer struct {
	Found      bool          `json:"found"`
	Vendor     *string       `json:"vendor"`
	Date       *string       `json:"date"`
	Currency   *string       `json:"currency"`
	Total      lenientNumber `json:"total"`
	Subtotal   lenientNumber `json:"subtotal"`
	Tax        lenientNumber `json:"tax"`
	Confidence lenientNumber `json:"confidence"`
	Items      []answerItem  `json:"items"`
}

// Models sometimes quote numbers; unparsable ones decode as absent.
type answerItem struct {
	Description *string       `json:"description"`
	Quantity    lenientNumber `json:"quantity"`
	UnitPrice   lenientNumber `json:"unitPrice"`
	Amount      lenientNumber `json:"amount"`
}

// fieldNames are the provider field names a profile reads, so model answers
// decode into the same shape as the prebuilt invoice and receipt models.
type fieldNames struct {
	vendor, date, total, subtotal, tax, items string
	description, quantity, unitPrice, amount  string
}

var profileFieldNames = map[models.DocumentKind]fieldNames{
	models.DocumentKindInvoice: {
		vendor: "VendorName", date: "InvoiceDate", total: "InvoiceTotal",
		subtotal: "SubTotal", tax: "TotalTax", items: "Items",
		description: "Description", quantity: "Quantity", unitPrice: "UnitPrice", amount: "Amount",
	},
	models.DocumentKindReceipt: {
		vendor: "MerchantName", date: "TransactionDate", total: "Total",
		subtotal: "Subtotal", tax: "TotalTax", items: "Items",
		description: "Description", quantity: "Quantity", unitPrice: "Price", amount: "TotalPrice",
	},
}

// parseModelAnswer pulls the JSON object out of a model reply, checks it
// against answerSchema and maps it onto the profile's field names.
func parseModelAnswer(answer string, kind models.DocumentKind) (*models.RawExtractionResult, error) {
	answer = strings.TrimSpace(answer)
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start == -1 || end < start {
		return nil, fmt.Errorf("%w: model reply has no JSON object", ErrNoDataExtracted)
	}
	raw := []byte(answer[start : end+1])

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &TransportError{Op: "decode", Err: fmt.Errorf("model reply is not JSON: %w", err)}
	}
	if err := answerSchema.Validate(doc); err != nil {
		return nil, &TransportError{Op: "decode", Err: fmt.Errorf("model reply does not match schema: %w", err)}
	}

	var a modelAnswer
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, &TransportError{Op: "decode", Err: err}
	}
	if !a.Found {
		return nil, fmt.Errorf("%w: model found no invoice or receipt", ErrNoDataExtracted)
	}

	names, ok := profileFieldNames[kind]
	if !ok {
		names = profileFieldNames[models.DocumentKindInvoice]
	}

	fields := models.Fields{}
	if a.Vendor != nil {
		fields[names.vendor] = stringField(*a.Vendor)
	}
	if a.Date != nil {
		fields[names.date] = dateField(*a.Date)
	}
	var currency *string
	if a.Currency != nil && *a.Currency != "" {
		currency = a.Currency
	}
	if v, ok := a.Total.Get(); ok {
		fields[names.total] = currencyField(v, currency)
	}
	if v, ok := a.Subtotal.Get(); ok {
		fields[names.subtotal] = currencyField(v, currency)
	}
	if v, ok := a.Tax.Get(); ok {
		fields[names.tax] = currencyField(v, currency)
	}

	if len(a.Items) > 0 {
		items := make([]models.FieldValue, 0, len(a.Items))
		for _, it := range a.Items {
			obj := models.Fields{}
			if it.Description != nil {
				obj[names.description] = stringField(*it.Description)
			}
			if v, ok := it.Quantity.Get(); ok {
				obj[names.quantity] = numberField(v)
			}
			if v, ok := it.UnitPrice.Get(); ok {
				obj[names.unitPrice] = currencyField(v, currency)
			}
			if v, ok := it.Amount.Get(); ok {
				obj[names.amount] = currencyField(v, currency)
			}
			items = append(items, models.FieldValue{Kind: models.FieldObject, Object: obj})
		}
		fields[names.items] = models.FieldValue{Kind: models.FieldArray, Array: items}
	}

	result := &models.RawExtractionResult{Fields: fields}
	result.Confidence = a.Confidence.Opt
	return result, nil
}

func stringField(s string) models.FieldValue {
	return models.FieldValue{Kind: models.FieldString, Content: s, String: models.Some(s)}
}

func numberField(n float64) models.FieldValue {
	return models.FieldValue{Kind: models.FieldNumber, Number: models.Some(n)}
}

func currencyField(n float64, code *string) models.FieldValue {
	fv := models.FieldValue{Kind: models.FieldCurrency, Number: models.Some(n)}
	if code != nil {
		fv.CurrencyCode = models.Some(*code)
	}
	return fv
}

func dateField(s string) models.FieldValue {
	fv := models.FieldValue{Kind: models.FieldDate, Content: s}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		fv.Date = models.Some(d)
	}
	return fv
}
