package service

import (
	"context"
	"fmt"
	"time"

	"invoice-scanner/internal/cache"
	"invoice-scanner/internal/dto"
	"invoice-scanner/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	cacheKeySummary    = "dashboard:summary"
	cacheKeyByCategory = "dashboard:by-category"
	cacheKeyByMonth    = "dashboard:by-month"
	cacheKeyTopVendors = "dashboard:top-vendors"
	cacheKeyRecent     = "dashboard:recent"

	topVendorsLimit = 10
	recentLimit     = 10
)

// DashboardCacheKeys are dropped whenever documents change.
var DashboardCacheKeys = []string{
	cacheKeySummary,
	cacheKeyByCategory,
	cacheKeyByMonth,
	cacheKeyTopVendors,
	cacheKeyRecent,
}

type DashboardStore interface {
	Totals(ctx context.Context) (*models.SpendTotals, error)
	MonthSpending(ctx context.Context, now time.Time) (decimal.Decimal, error)
	AverageConfidence(ctx context.Context) (decimal.Decimal, error)
	ByCategory(ctx context.Context) ([]*models.CategorySpend, error)
	ByMonth(ctx context.Context, now time.Time) ([]*models.MonthlySpend, error)
	TopVendors(ctx context.Context, limit uint64) ([]*models.VendorSpend, error)
}

type DashboardService struct {
	store  DashboardStore
	docs   DocumentLister
	cache  cache.Cache
	now    func() time.Time
	logger *zap.Logger
}

func NewDashboardService(store DashboardStore, docs DocumentLister, c cache.Cache, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		docs:   docs,
		cache:  c,
		now:    time.Now,
		logger: logger,
	}
}

// Summary runs its three aggregate queries concurrently.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	return cached(ctx, s, cacheKeySummary, func(ctx context.Context) (*models.DashboardSummary, error) {
		var (
			totals     *models.SpendTotals
			month      decimal.Decimal
			confidence decimal.Decimal
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			totals, err = s.store.Totals(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			month, err = s.store.MonthSpending(gctx, s.now().UTC())
			return err
		})
		g.Go(func() error {
			var err error
			confidence, err = s.store.AverageConfidence(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
		}

		return &models.DashboardSummary{
			TotalDocuments: totals.DocumentCount,
			TotalSpending:  totals.TotalSpending.Round(2),
			AverageAmount:  totals.AverageAmount.Round(2),
			MonthSpending:  month.Round(2),
			AvgConfidence:  confidence.Round(4),
		}, nil
	})
}

func (s *DashboardService) ByCategory(ctx context.Context) ([]*models.CategorySpend, error) {
	return cached(ctx, s, cacheKeyByCategory, s.store.ByCategory)
}

func (s *DashboardService) ByMonth(ctx context.Context) ([]*models.MonthlySpend, error) {
	return cached(ctx, s, cacheKeyByMonth, func(ctx context.Context) ([]*models.MonthlySpend, error) {
		return s.store.ByMonth(ctx, s.now().UTC())
	})
}

func (s *DashboardService) TopVendors(ctx context.Context) ([]*models.VendorSpend, error) {
	return cached(ctx, s, cacheKeyTopVendors, func(ctx context.Context) ([]*models.VendorSpend, error) {
		return s.store.TopVendors(ctx, topVendorsLimit)
	})
}

// Recent returns the latest scans.
func (s *DashboardService) Recent(ctx context.Context) ([]dto.DocumentResponse, error) {
	return cached(ctx, s, cacheKeyRecent, func(ctx context.Context) ([]dto.DocumentResponse, error) {
		docs, err := s.docs.List(ctx, models.DocumentFilter{Limit: recentLimit})
		if err != nil {
			return nil, err
		}
		return toSummaryResponses(docs), nil
	})
}

// cached serves key from the cache, loading and storing it on a miss. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *DashboardService, key string, load func(context.Context) (T, error)) (T, error) {
	var value T
	hit, err := s.cache.Get(ctx, key, &value)
	if err != nil {
		s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return value, nil
	}

	value, err = load(ctx)
	if err != nil {
		return value, err
	}

	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
