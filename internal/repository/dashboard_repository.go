package repository

import (
	"context"
	"time"

	"invoice-scanner/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Vendor names the normalizer writes when nothing was extracted.
var sentinelVendors = []string{"Unknown Vendor", "Unknown"}

type DashboardRepository struct {
	db     DB
	logger *zap.Logger
}

func NewDashboardRepository(db DB, logger *zap.Logger) *DashboardRepository {
	return &DashboardRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DashboardRepository) Totals(ctx context.Context) (*models.SpendTotals, error) {
	query := squirrel.Select(
		"COUNT(*)",
		"COALESCE(SUM(total_amount), 0)",
		"COALESCE(AVG(total_amount), 0)",
	).From("documents")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var t models.SpendTotals
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.DocumentCount, &t.TotalSpending, &t.AverageAmount); err != nil {
		return nil, err
	}
	return &t, nil
}

// MonthSpending sums totals of documents dated within the calendar month of now.
func (r *DashboardRepository) MonthSpending(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := squirrel.Select("COALESCE(SUM(total_amount), 0)").
		From("documents").
		Where(squirrel.GtOrEq{"invoice_date": start}).
		Where(squirrel.Lt{"invoice_date": end}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	err = r.db.QueryRow(ctx, sql, args...).Scan(&total)
	return total, err
}

func (r *DashboardRepository) AverageConfidence(ctx context.Context) (decimal.Decimal, error) {
	sql, args, err := squirrel.Select("COALESCE(AVG(confidence_score), 0)").From("documents").ToSql()
	if err != nil {
		return decimal.Zero, err
	}

	var avg decimal.Decimal
	err = r.db.QueryRow(ctx, sql, args...).Scan(&avg)
	return avg, err
}

// ByCategory groups spend by category; documents without one land in "Uncategorized".
func (r *DashboardRepository) ByCategory(ctx context.Context) ([]*models.CategorySpend, error) {
	query := squirrel.Select(
		"COALESCE(c.name, 'Uncategorized') AS category",
		"COALESCE(c.icon, '📋') AS icon",
		"COUNT(d.id) AS document_count",
		"COALESCE(SUM(d.total_amount), 0) AS total_amount",
	).
		From("documents d").
		LeftJoin("categories c ON d.category_id = c.id").
		GroupBy("c.name", "c.icon").
		OrderBy("total_amount DESC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*models.CategorySpend{}
	for rows.Next() {
		var c models.CategorySpend
		if err := rows.Scan(&c.Category, &c.Icon, &c.DocumentCount, &c.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

// ByMonth returns dated spend per month for the twelve months before now, oldest first.
func (r *DashboardRepository) ByMonth(ctx context.Context, now time.Time) ([]*models.MonthlySpend, error) {
	since := now.AddDate(0, -12, 0)

	query := squirrel.Select(
		"to_char(invoice_date, 'YYYY-MM') AS month",
		"COUNT(*) AS document_count",
		"COALESCE(SUM(total_amount), 0) AS total_amount",
	).
		From("documents").
		Where(squirrel.NotEq{"invoice_date": nil}).
		Where(squirrel.GtOrEq{"invoice_date": since}).
		GroupBy("month").
		OrderBy("month ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*models.MonthlySpend{}
	for rows.Next() {
		var m models.MonthlySpend
		if err := rows.Scan(&m.Month, &m.DocumentCount, &m.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}

func (r *DashboardRepository) TopVendors(ctx context.Context, limit uint64) ([]*models.VendorSpend, error) {
	query := squirrel.Select(
		"vendor_name",
		"COUNT(*) AS invoice_count",
		"COALESCE(SUM(total_amount), 0) AS total_spent",
	).
		From("documents").
		Where(squirrel.NotEq{"vendor_name": sentinelVendors}).
		GroupBy("vendor_name").
		OrderBy("total_spent DESC").
		Limit(limit).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*models.VendorSpend{}
	for rows.Next() {
		var v models.VendorSpend
		if err := rows.Scan(&v.VendorName, &v.InvoiceCount, &v.TotalSpent); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}
	return result, rows.Err()
}
