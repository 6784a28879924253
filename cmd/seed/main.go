// Seeds the inventory with listed sample items. Resale prices are derived
// from the original price through the pricing engine; intended for local
// development against a freshly migrated database.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"resale-market/internal/domain/inventory"
	"resale-market/internal/domain/pricing"
	"resale-market/internal/infra/db"
	"resale-market/internal/pkg/config"

	"github.com/joho/godotenv"
)

type seedItem struct {
	title         string
	brand         string
	category      string
	condition     inventory.Condition
	originalPrice int64
	quantity      int32
}

var seedItems = []seedItem{
	{title: "Leather Biker Jacket", brand: "Aviatrix", category: "Outerwear", condition: inventory.ConditionGood, originalPrice: 450000, quantity: 3},
	{title: "Wool Trench Coat", brand: "Meridian", category: "Outerwear", condition: inventory.ConditionLikeNew, originalPrice: 380000, quantity: 2},
	{title: "Silk Slip Dress", brand: "Lunaire", category: "Dresses", condition: inventory.ConditionNew, originalPrice: 220000, quantity: 5},
	{title: "Suede Chelsea Boots", brand: "Harrow & Kent", category: "Shoes", condition: inventory.ConditionGood, originalPrice: 180000, quantity: 4},
	{title: "Cashmere Crewneck", brand: "Meridian", category: "Knitwear", condition: inventory.ConditionFair, originalPrice: 160000, quantity: 6},
	{title: "Canvas Tote", brand: "Lunaire", category: "Accessories", condition: inventory.ConditionLikeNew, originalPrice: 90000, quantity: 10},
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	for _, item := range seedItems {
		resale := pricing.ResalePrice(item.originalPrice, item.condition, item.category)
		_, err := pool.Exec(ctx, `
			INSERT INTO inventory_items
				(title, brand, category, condition, original_price, resale_price, currency, quantity, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'ZAR', $7, 'LISTED')`,
			item.title, item.brand, item.category, string(item.condition),
			item.originalPrice, resale, item.quantity,
		)
		if err != nil {
			logger.Error("failed to seed item", "title", item.title, "error", err)
			os.Exit(1)
		}
		logger.Info("seeded item",
			"title", item.title,
			"condition", string(item.condition),
			"original_price", item.originalPrice,
			"resale_price", resale,
		)
	}

	logger.Info("seed complete", "items", len(seedItems))
}
