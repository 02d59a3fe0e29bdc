package service

import (
	"context"
	"fmt"
	"time"

	"invoice-scanner/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Documents"

var exportHeaders = []string{
	"ID", "Invoice Date", "Vendor", "File", "Category", "Currency",
	"Subtotal", "Tax", "Total", "Confidence", "Line Items", "Scanned At",
}

type ExportService struct {
	docs   DocumentLister
	logger *zap.Logger
}

func NewExportService(docs DocumentLister, logger *zap.Logger) *ExportService {
	return &ExportService{
		docs:   docs,
		logger: logger,
	}
}

// ExportXLSX writes every document dated within [from, to] to a workbook.
// Either bound may be nil.
func (s *ExportService) ExportXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.List(ctx, models.DocumentFilter{StartDate: from, EndDate: to})
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for i, doc := range docs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}

		write(1, doc.ID)
		if doc.InvoiceDate != nil {
			write(2, doc.InvoiceDate.Format(time.DateOnly))
		}
		write(3, doc.VendorName)
		write(4, doc.FileName)
		if doc.CategoryName != nil {
			write(5, *doc.CategoryName)
		}
		write(6, doc.Currency)
		writeNullAmount(write, 7, doc.Subtotal)
		writeNullAmount(write, 8, doc.TaxAmount)
		write(9, doc.TotalAmount.InexactFloat64())
		write(10, doc.ConfidenceScore.InexactFloat64())
		write(11, doc.ItemCount)
		write(12, doc.CreatedAt.UTC().Format(time.RFC3339))
	}

	_ = f.SetColWidth(exportSheet, "B", "B", 14)
	_ = f.SetColWidth(exportSheet, "C", "D", 32)
	_ = f.SetColWidth(exportSheet, "E", "E", 20)
	_ = f.SetColWidth(exportSheet, "L", "L", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("Documents exported",
		zap.Int("rows", len(docs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return buf.Bytes(), nil
}

func writeNullAmount(write func(int, any), col int, v decimal.NullDecimal) {
	if v.Valid {
		write(col, v.Decimal.InexactFloat64())
	}
}
