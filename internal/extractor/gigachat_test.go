package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseModelAnswer_Invoice(t *testing.T) {
	answer := "Here is the result:\n```json\n" + `{
		"found": true,
		"vendor": "Acme Co",
		"date": "2024-03-15",
		"currency": "USD",
		"total": 110,
		"subtotal": 100,
		"tax": 10,
		"confidence": 0.8,
		"items": [{"description": "Widget", "quantity": 2, "unitPrice": 50, "amount": 100}]
	}` + "\n```"

	result, err := parseModelAnswer(answer, models.DocumentKindInvoice)
	require.NoError(t, err)

	assert.Equal(t, models.Some("Acme Co"), result.Fields["VendorName"].String)
	assert.Equal(t, models.Some(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)), result.Fields["InvoiceDate"].Date)
	assert.Equal(t, models.Some(110.0), result.Fields["InvoiceTotal"].Number)
	assert.Equal(t, models.Some("USD"), result.Fields["InvoiceTotal"].CurrencyCode)
	assert.Equal(t, models.Some(100.0), result.Fields["SubTotal"].Number)
	assert.Equal(t, models.Some(10.0), result.Fields["TotalTax"].Number)
	assert.Equal(t, models.Some(0.8), result.Confidence)

	items := result.Fields["Items"].Array
	require.Len(t, items, 1)
	assert.Equal(t, models.Some("Widget"), items[0].Object["Description"].String)
	assert.Equal(t, models.Some(50.0), items[0].Object["UnitPrice"].Number)
	assert.Equal(t, models.Some(100.0), items[0].Object["Amount"].Number)
}

func TestParseModelAnswer_ReceiptFieldNames(t *testing.T) {
	result, err := parseModelAnswer(`{"found": true, "vendor": "Corner Shop", "total": 4.5, "date": "yesterday",
		"items": [{"description": "Coffee", "unitPrice": 4.5, "amount": 4.5}]}`, models.DocumentKindReceipt)
	require.NoError(t, err)

	assert.Contains(t, result.Fields, "MerchantName")
	assert.Contains(t, result.Fields, "Total")
	assert.NotContains(t, result.Fields, "InvoiceTotal")

	date := result.Fields["TransactionDate"]
	assert.Equal(t, "yesterday", date.Content)
	assert.False(t, date.Date.Valid)

	item := result.Fields["Items"].Array[0].Object
	assert.Contains(t, item, "Price")
	assert.Contains(t, item, "TotalPrice")
	assert.NotContains(t, item, "Quantity")
	assert.False(t, result.Confidence.Valid)
}

func TestParseModelAnswer_QuotedNumbers(t *testing.T) {
	result, err := parseModelAnswer(`{"found": true, "total": "150.00", "tax": "a lot", "confidence": "0.9",
		"items": [{"description": "Widget", "quantity": "3", "amount": "n/a"}]}`, models.DocumentKindInvoice)
	require.NoError(t, err)

	assert.Equal(t, models.Some(150.0), result.Fields["InvoiceTotal"].Number)
	assert.NotContains(t, result.Fields, "TotalTax")
	assert.Equal(t, models.Some(0.9), result.Confidence)

	item := result.Fields["Items"].Array[0].Object
	assert.Equal(t, models.Some(3.0), item["Quantity"].Number)
	assert.NotContains(t, item, "Amount")
}

func TestParseModelAnswer_Errors(t *testing.T) {
	_, err := parseModelAnswer("I cannot read this document.", models.DocumentKindInvoice)
	assert.ErrorIs(t, err, ErrNoDataExtracted)

	_, err = parseModelAnswer(`{"found": false}`, models.DocumentKindInvoice)
	assert.ErrorIs(t, err, ErrNoDataExtracted)

	var te *TransportError
	_, err = parseModelAnswer(`{"found": true, "total": {"value": 1}}`, models.DocumentKindInvoice)
	assert.ErrorAs(t, err, &te)

	_, err = parseModelAnswer(`{"vendor": "missing found"}`, models.DocumentKindInvoice)
	assert.ErrorAs(t, err, &te)

	_, err = parseModelAnswer(`{"found": true,}`, models.DocumentKindInvoice)
	assert.ErrorAs(t, err, &te)
}

func TestGigaChatClient_NotConfigured(t *testing.T) {
	client := NewGigaChatClient(context.Background(), config.GigaChatConfig{Model: "GigaChat"}, zap.NewNop())

	_, err := client.Analyze(context.Background(), []byte("x"), "image/png", models.DocumentKindInvoice)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, client.Close())
}

func TestGigaChatClient_AnalyzeImage(t *testing.T) {
	var oauthCalls, uploads int32
	var visionBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth":
			atomic.AddInt32(&oauthCalls, 1)
			assert.Equal(t, "Basic secret", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("RqUID"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "token-1",
				"expires_at":   time.Now().Add(30 * time.Minute).UnixMilli(),
			})
		case "/files":
			atomic.AddInt32(&uploads, 1)
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "general", r.FormValue("purpose"))
			if _, header, err := r.FormFile("file"); assert.NoError(t, err) {
				assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-1"})
		case "/chat/completions":
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &visionBody))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"content": `{"found": true, "vendor": "Cafe", "total": 7.2, "currency": "EUR"}`}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := &GigaChatClient{
		cfg:        config.GigaChatConfig{APIKey: "secret", Scope: "GIGACHAT_API_PERS", Model: "GigaChat-Pro"},
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		oauthURL:   srv.URL + "/oauth",
		logger:     zap.NewNop(),
	}

	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, imaging.New(40, 20, color.White), imaging.PNG))

	for i := 0; i < 2; i++ {
		result, err := client.Analyze(context.Background(), png.Bytes(), "image/png", models.DocumentKindReceipt)
		require.NoError(t, err)
		assert.Equal(t, "GigaChat-Pro", result.ModelID)
		assert.Equal(t, models.Some("Cafe"), result.Fields["MerchantName"].String)
		assert.Equal(t, models.Some("EUR"), result.Fields["Total"].CurrencyCode)
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&oauthCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&uploads))
	assert.Equal(t, "GigaChat-Pro", visionBody["model"])
}

func TestGigaChatClient_OAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &GigaChatClient{
		cfg:        config.GigaChatConfig{APIKey: "bad"},
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		oauthURL:   srv.URL + "/oauth",
		logger:     zap.NewNop(),
	}

	_, err := client.Analyze(context.Background(), []byte("not an image"), "image/png", models.DocumentKindInvoice)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestPdfText_Invalid(t *testing.T) {
	_, err := pdfText([]byte("not a pdf"))
	assert.ErrorIs(t, err, ErrNoDataExtracted)
}

func TestEnhanceImage(t *testing.T) {
	_, ok := enhanceImage([]byte("garbage"))
	assert.False(t, ok)

	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, imaging.New(10, 10, color.Black), imaging.PNG))
	out, ok := enhanceImage(png.Bytes())
	require.True(t, ok)
	assert.Equal(t, []byte{0xff, 0xd8}, out[:2])
}
