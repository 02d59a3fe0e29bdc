package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"invoice-scanner/internal/extractor"
	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const maxUpload = 4 * 1024 * 1024

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

func pngBytes(size int) []byte {
	sig := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if size < len(sig) {
		size = len(sig)
	}
	return append(sig, bytes.Repeat([]byte{0}, size-len(sig))...)
}

func newIngest(ext *fakeExtractor, w *fakeWriter, c *memCache) *IngestService {
	return NewIngestService(ext, w, c, config.UploadConfig{
		MaxBytes:     maxUpload,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/bmp", "image/tiff", "application/pdf"},
	}, zap.NewNop())
}

func TestIngest_AcmeInvoice(t *testing.T) {
	ext := &fakeExtractor{result: acmeResult()}
	w := &fakeWriter{id: 42}
	c := newMemCache()
	svc := newIngest(ext, w, c)

	resp, err := svc.Ingest(context.Background(), &models.UploadedFile{
		Name:        "acme.pdf",
		ContentType: "application/pdf",
		Data:        pdfBytes,
	}, models.DocumentKindInvoice)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), resp.DocumentID)
	assert.Contains(t, resp.Message, "acme.pdf")
	require.NotNil(t, resp.Extracted)
	assert.Equal(t, "Acme Co", resp.Extracted.VendorName)
	assertDecimal(t, "150.00", resp.Extracted.TotalAmount)
	assert.Equal(t, "USD", resp.Extracted.Currency)
	require.Len(t, resp.Extracted.LineItems, 1)
	assert.Equal(t, "Widget", resp.Extracted.LineItems[0].Description)

	assert.Equal(t, "application/pdf", ext.gotMIME)
	assert.Equal(t, models.DocumentKindInvoice, ext.gotKind)
	require.Len(t, w.saved, 1)
	assert.Equal(t, "acme.pdf", w.names[0])
	assert.ElementsMatch(t, DashboardCacheKeys, c.deleted)
}

func TestIngest_EmptyResultIsStored(t *testing.T) {
	w := &fakeWriter{id: 7}
	svc := newIngest(&fakeExtractor{result: &models.RawExtractionResult{}}, w, newMemCache())

	resp, err := svc.Ingest(context.Background(), &models.UploadedFile{
		Name: "blank.png", ContentType: "image/png", Data: pngBytes(64),
	}, models.DocumentKindInvoice)
	require.NoError(t, err)

	assert.Equal(t, int64(7), resp.DocumentID)
	assert.Equal(t, "Unknown Vendor", resp.Extracted.VendorName)
	assertDecimal(t, "0", resp.Extracted.TotalAmount)
	assert.Empty(t, resp.Extracted.LineItems)
	require.Len(t, w.saved, 1)
	assert.Empty(t, w.saved[0].LineItems)
}

func TestIngest_ReceiptMessage(t *testing.T) {
	svc := newIngest(&fakeExtractor{result: &models.RawExtractionResult{}}, &fakeWriter{id: 1}, newMemCache())

	resp, err := svc.Ingest(context.Background(), &models.UploadedFile{
		Name: "coffee.jpg", ContentType: "image/jpeg", Data: []byte("\xff\xd8\xff\xe0 jpeg"),
	}, models.DocumentKindReceipt)
	require.NoError(t, err)
	assert.Equal(t, "Receipt analyzed: coffee.jpg", resp.Message)
	assert.Equal(t, "Unknown", resp.Extracted.VendorName)
}

func TestIngest_SizeBoundary(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"exactly the limit", maxUpload, false},
		{"one byte over", maxUpload + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{result: &models.RawExtractionResult{}}
			svc := newIngest(ext, &fakeWriter{id: 1}, newMemCache())

			_, err := svc.Ingest(context.Background(), &models.UploadedFile{
				Name: "scan.png", ContentType: "image/png", Data: pngBytes(tt.size),
			}, models.DocumentKindInvoice)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.size, ext.gotBytes)
				return
			}
			var ierr *IngestError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, KindValidation, ierr.Kind)
			assert.Equal(t, http.StatusBadRequest, ierr.Status())
			assert.Zero(t, ext.calls)
		})
	}
}

func TestIngest_ValidationHappensBeforeExtraction(t *testing.T) {
	tests := []struct {
		name string
		file *models.UploadedFile
		kind models.DocumentKind
	}{
		{"no file", nil, models.DocumentKindInvoice},
		{"empty file", &models.UploadedFile{Name: "a.pdf", ContentType: "application/pdf"}, models.DocumentKindInvoice},
		{"plain text", &models.UploadedFile{Name: "a.txt", ContentType: "text/plain", Data: []byte("hello")}, models.DocumentKindInvoice},
		{"sniffed text", &models.UploadedFile{Name: "a.bin", ContentType: "application/octet-stream", Data: []byte("just some text")}, models.DocumentKindInvoice},
		{"gif", &models.UploadedFile{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")}, models.DocumentKindInvoice},
		{"unknown kind", &models.UploadedFile{Name: "a.pdf", ContentType: "application/pdf", Data: pdfBytes}, models.DocumentKind("statement")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{}
			w := &fakeWriter{}
			svc := newIngest(ext, w, newMemCache())

			resp, err := svc.Ingest(context.Background(), tt.file, tt.kind)
			assert.Nil(t, resp)

			var ierr *IngestError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, KindValidation, ierr.Kind)
			assert.NotEmpty(t, ierr.Message)
			assert.Zero(t, ext.calls)
			assert.Empty(t, w.saved)
		})
	}
}

func TestIngest_ResolvesMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
	}{
		{"declared pdf", "application/pdf", pdfBytes, "application/pdf"},
		{"declared with params", "image/PNG; charset=binary", pngBytes(32), "image/png"},
		{"jpg alias", "image/jpg", []byte("\xff\xd8\xff\xe0"), "image/jpeg"},
		{"missing type sniffed", "", pngBytes(32), "image/png"},
		{"generic type sniffed", "application/octet-stream", pdfBytes, "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{result: &models.RawExtractionResult{}}
			svc := newIngest(ext, &fakeWriter{id: 1}, newMemCache())

			_, err := svc.Ingest(context.Background(), &models.UploadedFile{
				Name: "upload", ContentType: tt.declared, Data: tt.data,
			}, models.DocumentKindInvoice)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext.gotMIME)
		})
	}
}

func TestIngest_ExtractionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   IngestErrorKind
		wantStatus int
	}{
		{"not configured", fmt.Errorf("azure: %w", extractor.ErrNotConfigured), KindServiceUnavailable, http.StatusServiceUnavailable},
		{"no data", extractor.ErrNoDataExtracted, KindUnprocessable, http.StatusUnprocessableEntity},
		{"transport", &extractor.TransportError{Op: "poll", StatusCode: 502, Err: errors.New("bad gateway")}, KindInternal, http.StatusInternalServerError},
		{"context canceled", context.Canceled, KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{id: 1}
			c := newMemCache()
			svc := newIngest(&fakeExtractor{err: tt.err}, w, c)

			_, err := svc.Ingest(context.Background(), &models.UploadedFile{
				Name: "a.pdf", ContentType: "application/pdf", Data: pdfBytes,
			}, models.DocumentKindInvoice)

			var ierr *IngestError
			require.ErrorAs(t, err, &ierr)
			assert.Equal(t, tt.wantKind, ierr.Kind)
			assert.Equal(t, tt.wantStatus, ierr.Status())
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, w.saved)
			assert.Empty(t, c.deleted)
		})
	}
}

func TestIngest_PersistFailureIsGeneric(t *testing.T) {
	cause := errors.New(`duplicate key value violates unique constraint "documents_pkey"`)
	c := newMemCache()
	svc := newIngest(&fakeExtractor{result: acmeResult()}, &fakeWriter{err: cause}, c)

	resp, err := svc.Ingest(context.Background(), &models.UploadedFile{
		Name: "acme.pdf", ContentType: "application/pdf", Data: pdfBytes,
	}, models.DocumentKindInvoice)
	assert.Nil(t, resp)

	var ierr *IngestError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, KindInternal, ierr.Kind)
	assert.Equal(t, "Failed to save document", ierr.Message)
	assert.NotContains(t, ierr.Message, "duplicate")
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, c.deleted)
}
