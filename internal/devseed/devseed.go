// Package devseed fills the store with fake stockroom data for development
// and demos.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/brioso/stockroom/internal/inventory"
	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

// Corpus generation constants.
const (
	minProducts      = 15
	maxExtraProducts = 10 // 15-25 products total
	minBatches       = 1
	maxExtraBatches  = 3 // 1-4 batches per product
	expiryChance     = 0.7
)

var unitMeasures = []string{"kg", "g", "L", "mL", "pcs"}

// Seed returns the corpus seed from the DEV_SEED environment variable, or a
// random value if not set.
func Seed() uint64 {
	if env := os.Getenv("DEV_SEED"); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for test data
}

// Populate inserts a seeded random set of products and batches. Barcodes are
// derived from the faker so the same seed yields the same corpus.
func Populate(ctx context.Context, store storage.Store, svc *inventory.Service, seed uint64) error {
	faker := gofakeit.New(seed)

	total := minProducts + faker.IntN(maxExtraProducts+1)
	for range total {
		info := faker.Product()
		product, err := svc.CreateProduct(ctx, db.Product{
			Barcode:     faker.Numerify("80###########"),
			Name:        info.Name,
			Brand:       faker.Company(),
			Supplier:    faker.Company(),
			UnitMeasure: unitMeasures[faker.IntN(len(unitMeasures))],
			UnitPrice:   info.Price,
		}, "seed")
		if err != nil {
			return fmt.Errorf("failed to seed product: %w", err)
		}

		batches := minBatches + faker.IntN(maxExtraBatches+1)
		for range batches {
			var expiry sql.NullTime
			if faker.Float64Range(0, 1) < expiryChance {
				expiry = sql.NullTime{Valid: true, Time: faker.FutureDate()}
			}
			qty := faker.Float64Range(1, 50)
			if _, err := svc.AddBatch(ctx, product.ID, qty, expiry, "seed"); err != nil {
				return fmt.Errorf("failed to seed batch: %w", err)
			}
		}
	}
	return nil
}
