// Package main seeds the catalog with sample products.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aislecart-ai/shopping-assistant/internal/config"
	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/store"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
)

var sampleProducts = []model.Product{
	{
		Name:        "Nike Air Max 270",
		Description: "Comfortable running shoes with excellent cushioning perfect for daily runs and marathon training. Features breathable mesh upper and durable rubber outsole.",
		Price:       "129.99",
		ImageURL:    "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=300&q=80",
		Stock:       50,
	},
	{
		Name:        "Sony WH-1000XM4 Wireless Headphones",
		Description: "Premium noise-canceling wireless headphones with exceptional sound quality, 30-hour battery life, and comfortable over-ear design.",
		Price:       "349.99",
		ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=300&q=80",
		Stock:       25,
	},
	{
		Name:        "Eco-Friendly Bamboo Kitchen Set",
		Description: "Sustainable kitchen utensil set made from organic bamboo. Includes spatulas, spoons, and cutting boards. Perfect for eco-conscious cooking.",
		Price:       "45.99",
		ImageURL:    "https://images.unsplash.com/photo-1556909114-f6e7ad7d3136?w=300&q=80",
		Stock:       100,
	},
	{
		Name:        "Apple Watch Series 8",
		Description: "Advanced smartwatch with health monitoring, fitness tracking, and seamless integration with iOS devices. Water-resistant with all-day battery life.",
		Price:       "399.99",
		ImageURL:    "https://images.unsplash.com/photo-1546868871-7041f2a55e12?w=300&q=80",
		Stock:       30,
	},
	{
		Name:        "Yoga Mat Premium",
		Description: "Extra-thick, non-slip yoga mat with alignment markers. Perfect for yoga, pilates, and floor exercises. Includes carrying strap.",
		Price:       "35.99",
		ImageURL:    "https://images.unsplash.com/photo-1506629905687-662f5b5fbe2c?w=300&q=80",
		Stock:       75,
	},
	{
		Name:        "Leather Handbag Collection",
		Description: "Elegant genuine leather handbag with multiple compartments and adjustable strap. Perfect gift for special occasions.",
		Price:       "189.99",
		ImageURL:    "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=300&q=80",
		Stock:       20,
	},
	{
		Name:        "Bluetooth Portable Speaker",
		Description: "Waterproof wireless speaker with 360-degree sound, 12-hour battery life, and built-in microphone for hands-free calls.",
		Price:       "79.99",
		ImageURL:    "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=300&q=80",
		Stock:       60,
	},
	{
		Name:        "Organic Skincare Set",
		Description: "Complete facial skincare routine with natural ingredients. Includes cleanser, toner, moisturizer, and serum for all skin types.",
		Price:       "89.99",
		ImageURL:    "https://images.unsplash.com/photo-1556228720-195a672e8a03?w=300&q=80",
		Stock:       40,
	},
	{
		Name:        "Fitness Resistance Bands Set",
		Description: "Complete workout set with 5 resistance levels, handles, ankle straps, and door anchor. Perfect for home strength training.",
		Price:       "29.99",
		ImageURL:    "https://images.unsplash.com/photo-1518611012118-696072aa579a?w=300&q=80",
		Stock:       80,
	},
	{
		Name:        "Stainless Steel Water Bottle",
		Description: "Insulated 32oz water bottle keeps drinks cold for 24 hours or hot for 12 hours. BPA-free with leak-proof design.",
		Price:       "24.99",
		ImageURL:    "https://images.unsplash.com/photo-1602143407151-7112425d35e5?w=300&q=80",
		Stock:       120,
	},
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	existing, err := repo.ListProducts(ctx)
	if err != nil {
		log.Error("failed to check existing products", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		log.Info("catalog already seeded", "products", len(existing))
		return
	}

	for i := range sampleProducts {
		if err := repo.CreateProduct(ctx, &sampleProducts[i]); err != nil {
			log.Error("failed to insert product", "name", sampleProducts[i].Name, "error", err)
			os.Exit(1)
		}
	}

	log.Info("catalog seeded", "products", len(sampleProducts))
}
