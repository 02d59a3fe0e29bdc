package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const invoiceResult = `{
  "status": "succeeded",
  "analyzeResult": {
    "modelId": "prebuilt-invoice",
    "content": "ACME CO\nInvoice 2024-03-15\nTotal 110.00",
    "documents": [{
      "docType": "invoice",
      "confidence": 0.93,
      "fields": {
        "VendorName": {"type": "string", "valueString": "Acme Co", "content": "ACME CO", "confidence": 0.95},
        "InvoiceDate": {"type": "date", "valueDate": "2024-03-15", "content": "15/03/2024"},
        "InvoiceTotal": {"type": "currency", "valueCurrency": {"amount": 110, "currencyCode": "USD"}, "content": "$110.00"},
        "SubTotal": {"type": "currency", "valueCurrency": {"amount": "100.00"}},
        "Items": {"type": "array", "valueArray": [
          {"type": "object", "valueObject": {
            "Description": {"type": "string", "valueString": "Widget"},
            "Quantity": {"type": "number", "valueNumber": 2},
            "UnitPrice": {"type": "currency", "valueCurrency": {"amount": 50}},
            "Amount": {"type": "currency", "valueCurrency": {"amount": 100}}
          }}
        ]}
      }
    }]
  }
}`

func newTestAzureClient(serverURL string) *AzureClient {
	return NewAzureClient(config.ExtractionConfig{
		Provider:       "azure",
		Endpoint:       serverURL + "/",
		APIKey:         "test-key",
		APIVersion:     "2023-07-31",
		InvoiceModel:   "prebuilt-invoice",
		ReceiptModel:   "prebuilt-receipt",
		RequestTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
		PollTimeout:    time.Second,
	}, zap.NewNop())
}

// analyzeServer accepts one analyze call and then serves the given poll bodies in order.
func analyzeServer(t *testing.T, polls ...string) *httptest.Server {
	t.Helper()
	var served int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Header().Set("Operation-Location", srv.URL+"/results/1")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			i := int(atomic.AddInt32(&served, 1)) - 1
			if i >= len(polls) {
				i = len(polls) - 1
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, polls[i])
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAzureClient_Analyze_Succeeded(t *testing.T) {
	var analyzeReq *http.Request
	var analyzeBody []byte
	var srv *httptest.Server
	polls := int32(0)
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analyzeReq = r.Clone(context.Background())
			analyzeBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Operation-Location", srv.URL+"/results/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		if atomic.AddInt32(&polls, 1) == 1 {
			_, _ = io.WriteString(w, `{"status":"running"}`)
			return
		}
		_, _ = io.WriteString(w, invoiceResult)
	}))
	defer srv.Close()

	client := newTestAzureClient(srv.URL)
	result, err := client.Analyze(context.Background(), []byte("%PDF-1.7"), "application/pdf", models.DocumentKindInvoice)
	require.NoError(t, err)

	require.NotNil(t, analyzeReq)
	assert.Equal(t, "/formrecognizer/documentModels/prebuilt-invoice:analyze", analyzeReq.URL.Path)
	assert.Equal(t, "2023-07-31", analyzeReq.URL.Query().Get("api-version"))
	assert.Equal(t, "test-key", analyzeReq.Header.Get("Ocp-Apim-Subscription-Key"))
	assert.Equal(t, "application/pdf", analyzeReq.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF-1.7", string(analyzeBody))
	assert.EqualValues(t, 2, atomic.LoadInt32(&polls))

	assert.Equal(t, "prebuilt-invoice", result.ModelID)
	assert.Equal(t, models.Some(0.93), result.Confidence)
	content, ok := result.Content.Get()
	require.True(t, ok)
	assert.Contains(t, content, "ACME CO")

	vendor, ok := result.Fields.Lookup("VendorName")
	require.True(t, ok)
	assert.Equal(t, models.FieldString, vendor.Kind)
	assert.Equal(t, models.Some("Acme Co"), vendor.String)

	date, ok := result.Fields.Lookup("InvoiceDate")
	require.True(t, ok)
	assert.Equal(t, models.Some(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)), date.Date)
	assert.Equal(t, "15/03/2024", date.Content)

	total, ok := result.Fields.Lookup("InvoiceTotal")
	require.True(t, ok)
	assert.Equal(t, models.Some(110.0), total.Number)
	assert.Equal(t, models.Some("USD"), total.CurrencyCode)

	subtotal := result.Fields["SubTotal"]
	assert.Equal(t, models.Some(100.0), subtotal.Number)
	assert.False(t, subtotal.CurrencyCode.Valid)

	items := result.Fields["Items"]
	require.Len(t, items.Array, 1)
	item := items.Array[0].Object
	assert.Equal(t, models.Some("Widget"), item["Description"].String)
	assert.Equal(t, models.Some(2.0), item["Quantity"].Number)
	assert.Equal(t, models.Some(50.0), item["UnitPrice"].Number)
}

func TestAzureClient_Analyze_ReceiptUsesReceiptModel(t *testing.T) {
	var path string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			path = r.URL.Path
			w.Header().Set("Operation-Location", srv.URL+"/results/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = io.WriteString(w, `{"status":"succeeded","analyzeResult":{"documents":[{"fields":{}}]}}`)
	}))
	defer srv.Close()

	result, err := newTestAzureClient(srv.URL).Analyze(context.Background(), []byte{0xff, 0xd8}, "image/jpeg", models.DocumentKindReceipt)
	require.NoError(t, err)
	assert.Equal(t, "/formrecognizer/documentModels/prebuilt-receipt:analyze", path)
	assert.Equal(t, "prebuilt-receipt", result.ModelID)
	assert.Empty(t, result.Fields)
	assert.False(t, result.Confidence.Valid)
}

func TestAzureClient_Analyze_NotConfigured(t *testing.T) {
	client := NewAzureClient(config.ExtractionConfig{APIVersion: "2023-07-31", PollInterval: time.Millisecond}, zap.NewNop())

	_, err := client.Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAzureClient_Analyze_ProviderRejections(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"bad key", http.StatusUnauthorized, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotConfigured) }},
		{"unknown model", http.StatusNotFound, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotConfigured) }},
		{"unreadable document", http.StatusBadRequest, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoDataExtracted) }},
		{"unsupported media", http.StatusUnsupportedMediaType, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoDataExtracted) }},
		{"provider outage", http.StatusServiceUnavailable, func(t *testing.T, err error) {
			var te *TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
			assert.Equal(t, "analyze", te.Op)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "X", "message": "nope"}})
			}))
			defer srv.Close()

			_, err := newTestAzureClient(srv.URL).Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAzureClient_Analyze_OperationFailed(t *testing.T) {
	srv := analyzeServer(t, `{"status":"failed","error":{"code":"InvalidContent","message":"corrupt"}}`)

	_, err := newTestAzureClient(srv.URL).Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	assert.ErrorIs(t, err, ErrNoDataExtracted)
	assert.ErrorContains(t, err, "InvalidContent")
}

func TestAzureClient_Analyze_NoDocuments(t *testing.T) {
	srv := analyzeServer(t, `{"status":"succeeded","analyzeResult":{"modelId":"prebuilt-invoice","documents":[]}}`)

	_, err := newTestAzureClient(srv.URL).Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	assert.ErrorIs(t, err, ErrNoDataExtracted)
}

func TestAzureClient_Analyze_MalformedPollBody(t *testing.T) {
	srv := analyzeServer(t, `{"status":`)

	_, err := newTestAzureClient(srv.URL).Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "poll", te.Op)
}

func TestAzureClient_Analyze_PollTimeout(t *testing.T) {
	srv := analyzeServer(t, `{"status":"running"}`)

	client := newTestAzureClient(srv.URL)
	client.pollTimeout = 20 * time.Millisecond
	client.pollInterval = 5 * time.Millisecond

	_, err := client.Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.ErrorContains(t, err, "not finished")
}

func TestAzureClient_Analyze_MissingOperationLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	_, err := newTestAzureClient(srv.URL).Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.ErrorContains(t, err, "Operation-Location")
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Second, retryAfter(resp, time.Second))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(resp, time.Second))

	resp.Header.Set("Retry-After", "soon")
	assert.Equal(t, time.Second, retryAfter(resp, time.Second))
}
