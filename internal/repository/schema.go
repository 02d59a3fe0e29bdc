package repository

import (
	"context"
	_ "embed"
	"fmt"

	"invoice-scanner/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// DefaultCategories are seeded when no category file is given.
var DefaultCategories = []models.Category{
	{Name: "Office Supplies", Icon: "🖇️"},
	{Name: "Software", Icon: "💻"},
	{Name: "Travel", Icon: "✈️"},
	{Name: "Meals", Icon: "🍽️"},
	{Name: "Groceries", Icon: "🛒"},
	{Name: "Utilities", Icon: "💡"},
	{Name: "Healthcare", Icon: "🩺"},
	{Name: "Other", Icon: "📋"},
}

// ApplySchema creates missing tables and indexes. It is safe to run repeatedly.
func ApplySchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
