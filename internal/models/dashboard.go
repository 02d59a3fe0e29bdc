package models

import "github.com/shopspring/decimal"

type SpendTotals struct {
	DocumentCount int64
	TotalSpending decimal.Decimal
	AverageAmount decimal.Decimal
}

type DashboardSummary struct {
	TotalDocuments int64           `json:"totalDocuments"`
	TotalSpending  decimal.Decimal `json:"totalSpending"`
	AverageAmount  decimal.Decimal `json:"averageAmount"`
	MonthSpending  decimal.Decimal `json:"monthSpending"`
	AvgConfidence  decimal.Decimal `json:"avgConfidence"`
}

type CategorySpend struct {
	Category      string          `json:"category"`
	Icon          string          `json:"icon"`
	DocumentCount int64           `json:"document_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type MonthlySpend struct {
	Month         string          `json:"month"`
	DocumentCount int64           `json:"document_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type VendorSpend struct {
	VendorName   string          `json:"vendor_name"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}
