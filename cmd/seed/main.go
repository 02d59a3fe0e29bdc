package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"invoice-scanner/internal/models"
	"invoice-scanner/internal/repository"
	"invoice-scanner/pkg/config"
	"invoice-scanner/pkg/logger"
	"invoice-scanner/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	categoriesFile := flag.String("categories", "", "JSON file with [{\"name\": ..., \"icon\": ...}]; built-in list when empty")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding categories")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Applying schema...")
	if err := repository.ApplySchema(ctx, db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	if *schemaOnly {
		logger.Info("Schema applied, skipping category seed")
		return
	}

	categories := repository.DefaultCategories
	if *categoriesFile != "" {
		categories, err = loadCategories(*categoriesFile)
		if err != nil {
			logger.Fatal("Failed to load categories", zap.String("file", *categoriesFile), zap.Error(err))
		}
		logger.Debug("Loaded categories file", zap.String("file", *categoriesFile), zap.Int("count", len(categories)))
	}

	inserted, err := repository.NewCategoryRepository(db, appLogger).Upsert(ctx, categories)
	if err != nil {
		logger.Fatal("Failed to seed categories", zap.Error(err))
	}

	logger.Info("Database seeding completed",
		zap.Int("categories", len(categories)),
		zap.Int64("inserted", inserted),
	)
}

// loadCategories reads a category list; entries without a name are rejected.
func loadCategories(path string) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var categories []models.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", err)
	}

	for i, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if c.Icon == "" {
			categories[i].Icon = "📋"
		}
	}
	return categories, nil
}
