package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"invoice-scanner/internal/models"
)

type analyzeOperation struct {
	Status        string         `json:"status"`
	Error         *providerError `json:"error,omitempty"`
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
}

type providerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *providerError) String() string {
	if e == nil {
		return "no error detail"
	}
	return e.Code + ": " + e.Message
}

type analyzeResult struct {
	ModelID   string             `json:"modelId"`
	Content   *string            `json:"content"`
	Documents []analyzedDocument `json:"documents"`
}

type analyzedDocument struct {
	DocType    string                   `json:"docType"`
	Fields     map[string]documentField `json:"fields"`
	Confidence lenientNumber            `json:"confidence"`
}

type documentField struct {
	Type          string                   `json:"type"`
	Content       string                   `json:"content"`
	ValueString   lenientString            `json:"valueString"`
	ValueNumber   lenientNumber            `json:"valueNumber"`
	ValueInteger  lenientNumber            `json:"valueInteger"`
	ValueDate     lenientString            `json:"valueDate"`
	ValueCurrency *currencyValue           `json:"valueCurrency"`
	ValueArray    []documentField          `json:"valueArray"`
	ValueObject   map[string]documentField `json:"valueObject"`
	Confidence    lenientNumber            `json:"confidence"`
}

type currencyValue struct {
	Amount         lenientNumber `json:"amount"`
	CurrencySymbol string        `json:"currencySymbol"`
	CurrencyCode   string        `json:"currencyCode"`
}

// lenientNumber decodes a JSON number, or a numeric string, and treats any
// other shape as absent instead of failing the whole payload.
type lenientNumber struct {
	models.Opt[float64]
}

func (n *lenientNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.Opt = models.None[float64]()
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			n.Opt = models.None[float64]()
			return nil
		}
		b = []byte(s)
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		n.Opt = models.Some(f)
	} else {
		n.Opt = models.None[float64]()
	}
	return nil
}

// lenientString is absent for anything other than a JSON string.
type lenientString struct {
	models.Opt[string]
}

func (s *lenientString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		s.Opt = models.None[string]()
		return nil
	}
	s.Opt = models.Some(v)
	return nil
}

// decodeAnalyzeResult keeps the first analyzed document only.
func decodeAnalyzeResult(ar *analyzeResult) (*models.RawExtractionResult, error) {
	if ar == nil {
		return nil, &TransportError{Op: "decode", Err: errors.New("succeeded operation without analyzeResult")}
	}
	if len(ar.Documents) == 0 {
		return nil, fmt.Errorf("%w: provider returned no documents", ErrNoDataExtracted)
	}

	doc := ar.Documents[0]
	result := &models.RawExtractionResult{
		Fields:     make(models.Fields, len(doc.Fields)),
		Confidence: doc.Confidence.Opt,
		ModelID:    ar.ModelID,
	}
	if ar.Content != nil {
		result.Content = models.Some(*ar.Content)
	}
	for name, f := range doc.Fields {
		result.Fields[name] = decodeField(f)
	}
	return result, nil
}

func decodeField(f documentField) models.FieldValue {
	fv := models.FieldValue{
		Kind:       fieldKind(f.Type),
		Content:    f.Content,
		Confidence: f.Confidence.Opt,
	}

	fv.String = f.ValueString.Opt

	switch {
	case f.ValueNumber.Valid:
		fv.Number = f.ValueNumber.Opt
	case f.ValueInteger.Valid:
		fv.Number = f.ValueInteger.Opt
	case f.ValueCurrency != nil && f.ValueCurrency.Amount.Valid:
		fv.Number = f.ValueCurrency.Amount.Opt
	}

	if f.ValueCurrency != nil && f.ValueCurrency.CurrencyCode != "" {
		fv.CurrencyCode = models.Some(f.ValueCurrency.CurrencyCode)
	}

	if raw, ok := f.ValueDate.Get(); ok {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			fv.Date = models.Some(d)
		}
	}

	if len(f.ValueArray) > 0 {
		fv.Array = make([]models.FieldValue, len(f.ValueArray))
		for i, item := range f.ValueArray {
			fv.Array[i] = decodeField(item)
		}
	}

	if f.ValueObject != nil {
		fv.Object = make(models.Fields, len(f.ValueObject))
		for name, prop := range f.ValueObject {
			fv.Object[name] = decodeField(prop)
		}
	}

	return fv
}

func fieldKind(t string) models.FieldKind {
	switch t {
	case "string", "phoneNumber", "address", "countryRegion", "selectionMark":
		return models.FieldString
	case "number", "integer":
		return models.FieldNumber
	case "currency":
		return models.FieldCurrency
	case "date":
		return models.FieldDate
	case "array":
		return models.FieldArray
	case "object":
		return models.FieldObject
	default:
		return models.FieldOther
	}
}
