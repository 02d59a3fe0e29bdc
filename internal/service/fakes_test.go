package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"invoice-scanner/internal/models"

	"github.com/shopspring/decimal"
)

type fakeExtractor struct {
	result   *models.RawExtractionResult
	err      error
	calls    int
	gotMIME  string
	gotKind  models.DocumentKind
	gotBytes int
}

func (f *fakeExtractor) Analyze(_ context.Context, data []byte, mimeType string, kind models.DocumentKind) (*models.RawExtractionResult, error) {
	f.calls++
	f.gotMIME = mimeType
	f.gotKind = kind
	f.gotBytes = len(data)
	return f.result, f.err
}

type fakeWriter struct {
	id    int64
	err   error
	saved []models.NormalizedExtraction
	names []string
}

func (f *fakeWriter) Save(_ context.Context, ext models.NormalizedExtraction, fileName string) (int64, error) {
	f.saved = append(f.saved, ext)
	f.names = append(f.names, fileName)
	if f.err != nil {
		return 0, f.err
	}
	return f.id, nil
}

// memCache is an in-memory cache.Cache that round-trips values through JSON.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *memCache) Close() error { return nil }

type fakeDocStore struct {
	docs      []*models.DocumentSummary
	doc       *models.Document
	items     []*models.LineItem
	err       error
	gotFilter models.DocumentFilter
	updated   map[int64]*int64
	deleted   []int64
}

func (f *fakeDocStore) List(_ context.Context, filter models.DocumentFilter) ([]*models.DocumentSummary, error) {
	f.gotFilter = filter
	return f.docs, f.err
}

func (f *fakeDocStore) Get(_ context.Context, _ int64) (*models.Document, []*models.LineItem, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.doc, f.items, nil
}

func (f *fakeDocStore) UpdateCategory(_ context.Context, id int64, categoryID *int64) error {
	if f.err != nil {
		return f.err
	}
	if f.updated == nil {
		f.updated = map[int64]*int64{}
	}
	f.updated[id] = categoryID
	return nil
}

func (f *fakeDocStore) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCategories []*models.Category

func (f fakeCategories) List(context.Context) ([]*models.Category, error) {
	return f, nil
}

type fakeDashboardStore struct {
	mu         sync.Mutex
	calls      map[string]int
	totals     *models.SpendTotals
	month      decimal.Decimal
	confidence decimal.Decimal
	categories []*models.CategorySpend
	months     []*models.MonthlySpend
	vendors    []*models.VendorSpend
	err        error
	gotNow     time.Time
	gotLimit   uint64
}

func (f *fakeDashboardStore) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeDashboardStore) Totals(context.Context) (*models.SpendTotals, error) {
	f.hit("totals")
	if f.err != nil {
		return nil, f.err
	}
	return f.totals, nil
}

func (f *fakeDashboardStore) MonthSpending(_ context.Context, now time.Time) (decimal.Decimal, error) {
	f.hit("month")
	return f.month, nil
}

func (f *fakeDashboardStore) AverageConfidence(context.Context) (decimal.Decimal, error) {
	f.hit("confidence")
	return f.confidence, nil
}

func (f *fakeDashboardStore) ByCategory(context.Context) ([]*models.CategorySpend, error) {
	f.hit("by-category")
	return f.categories, f.err
}

func (f *fakeDashboardStore) ByMonth(_ context.Context, now time.Time) ([]*models.MonthlySpend, error) {
	f.hit("by-month")
	f.gotNow = now
	return f.months, f.err
}

func (f *fakeDashboardStore) TopVendors(_ context.Context, limit uint64) ([]*models.VendorSpend, error) {
	f.hit("top-vendors")
	f.gotLimit = limit
	return f.vendors, f.err
}
