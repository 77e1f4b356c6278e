// Package inventory implements the stock operations on top of the storage
// layer: scan resolution, product registration, batch arrival and FIFO
// consumption, and the movement audit log.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

// Movement log actions.
const (
	ActionCreate = "CREATE"
	ActionIn     = "IN"
	ActionOut    = "OUT"
)

// ScanMode selects what a scanned barcode should do.
type ScanMode string

// Scan modes: ScanIn receives stock, ScanOut consumes it.
const (
	ScanIn  ScanMode = "in"
	ScanOut ScanMode = "out"
)

// Valid reports whether the mode is one of the known scan modes.
func (m ScanMode) Valid() bool {
	return m == ScanIn || m == ScanOut
}

// ErrInvalidQuantity is returned when an operation is given a non-positive
// quantity.
const ErrInvalidQuantity storage.Error = "quantity must be greater than zero"

// ErrInvalidScanMode is returned when a scan request carries a mode other
// than ScanIn or ScanOut. Client input, not a server fault.
const ErrInvalidScanMode storage.Error = "unknown scan mode"

// ScanResult is the outcome of resolving a scanned barcode.
type ScanResult struct {
	// Product is valid only when Found is set.
	Product db.Product
	// Found reports whether the barcode is already registered. A not-found
	// result in ScanIn mode is not an error: it means the caller should
	// register the product.
	Found bool
}

// Service exposes the inventory operations. All mutations record a movement
// log entry attributed to the acting user.
type Service struct {
	store  storage.Store
	logger *slog.Logger
}

// New creates a Service on top of store.
func New(store storage.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ResolveScan decides what a scanned barcode maps to. In ScanIn mode an
// unknown barcode resolves to Found=false so the caller can register it; in
// ScanOut mode an unknown barcode is a [storage.ErrNotFound] since stock that
// was never received cannot be consumed.
func (s *Service) ResolveScan(ctx context.Context, barcode string, mode ScanMode) (ScanResult, error) {
	if !mode.Valid() {
		return ScanResult{}, fmt.Errorf("scan mode %q: %w", mode, ErrInvalidScanMode)
	}

	product, err := s.store.GetProductByBarcode(ctx, barcode)
	switch {
	case err == nil:
		return ScanResult{Product: product, Found: true}, nil
	case errors.Is(err, storage.ErrNotFound) && mode == ScanIn:
		return ScanResult{}, nil
	case errors.Is(err, storage.ErrNotFound):
		return ScanResult{}, fmt.Errorf("barcode %q: %w", barcode, err)
	default:
		return ScanResult{}, err
	}
}

// CreateProduct registers a new product and records a CREATE movement.
func (s *Service) CreateProduct(ctx context.Context, product db.Product, actor string) (db.Product, error) {
	product, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		return product, err
	}

	s.record(ctx, db.Movement{
		UserName:    actor,
		ProductName: product.Name,
		Action:      ActionCreate,
	})
	return product, nil
}

// AddBatch records an arrival of stock for a product and an IN movement. The
// batch starts with its current quantity equal to the initial quantity.
func (s *Service) AddBatch(
	ctx context.Context,
	productID uint64,
	quantity float64,
	expiry sql.NullTime,
	actor string,
) (db.Batch, error) {
	if quantity <= 0 {
		return db.Batch{}, ErrInvalidQuantity
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return db.Batch{}, err
	}

	batch, err := s.store.AddBatch(ctx, db.Batch{
		ProductID:       productID,
		QuantityInitial: quantity,
		QuantityCurrent: quantity,
		ExpiryDate:      expiry,
		CreatedBy:       actor,
	})
	if err != nil {
		return batch, err
	}

	s.record(ctx, db.Movement{
		UserName:       actor,
		ProductName:    product.Name,
		Action:         ActionIn,
		QuantityChange: quantity,
	})
	return batch, nil
}

// ConsumeBatch draws stock from a batch and records an OUT movement. Returns
// the quantity remaining in the batch.
func (s *Service) ConsumeBatch(
	ctx context.Context,
	batchID uint64,
	quantity float64,
	actor string,
) (float64, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	product, err := s.store.GetProduct(ctx, batch.ProductID)
	if err != nil {
		return 0, err
	}

	remaining, err := s.store.ConsumeBatch(ctx, batchID, quantity)
	if err != nil {
		return 0, err
	}

	s.record(ctx, db.Movement{
		UserName:       actor,
		ProductName:    product.Name,
		Action:         ActionOut,
		QuantityChange: quantity,
	})
	return remaining, nil
}

// Detail is a product together with its active batches and stock total.
type Detail struct {
	Product db.Product
	Batches []db.Batch
	Total   float64
}

// ProductDetail loads a product with its FIFO-ordered active batches.
func (s *Service) ProductDetail(ctx context.Context, productID uint64) (Detail, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return Detail{}, err
	}
	batches, err := s.store.ActiveBatches(ctx, productID)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Product: product, Batches: batches}
	for _, b := range batches {
		detail.Total += b.QuantityCurrent
	}
	return detail, nil
}

// The movement log is best-effort: a failed append must not roll back the
// stock operation it describes.
func (s *Service) record(ctx context.Context, movement db.Movement) {
	if err := s.store.RecordMovement(ctx, movement); err != nil {
		s.logger.WarnContext(ctx, "failed to record movement",
			slog.String("action", movement.Action),
			slog.String("product", movement.ProductName),
			slog.Any("error", err),
		)
	}
}
