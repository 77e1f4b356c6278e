package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"regexp"
	"time"
	"unicode"

	"github.com/influxdata/influxdb/pkg/snowflake"

	"github.com/brioso/stockroom/internal/storage/db"
)

// Username validation constraints.
const (
	minUsernameLen = 3
	maxUsernameLen = 64
	maxBarcodeLen  = 64
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validateUsername validates that a username meets the requirements:
// 3-64 characters, alphanumeric and underscores only.
func validateUsername(name string) bool {
	return len(name) >= minUsernameLen &&
		len(name) <= maxUsernameLen &&
		usernameRegex.MatchString(name)
}

// validateBarcode validates that a barcode is 1-64 characters with no
// whitespace. Scanners hand back all sorts of symbologies, so anything
// printable is accepted.
func validateBarcode(code string) bool {
	if code == "" || len(code) > maxBarcodeLen {
		return false
	}
	for _, r := range code {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// DB is a [Store] backed by a SQLite database.
type DB struct {
	ids     *snowflake.Generator
	db      *sql.DB
	queries *db.Queries
}

// NewDB initializes a DB at the given filepath.
func NewDB(ctx context.Context, logger *slog.Logger, dbPath string) (*DB, error) {
	handle, err := db.Open(ctx, logger, dbPath)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids:     snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:      handle,
		queries: db.New(handle),
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// ListUsers satisfies the [Users] interface.
func (d *DB) ListUsers(ctx context.Context, afterName string, limit int32) ([]db.User, error) {
	return d.queries.GetUsers(ctx, db.GetUsersParams{
		AfterName:  afterName,
		MaxResults: int64(limit),
	})
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, userID uint64) (db.User, error) {
	user, err := d.queries.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// GetUserByName satisfies the [Users] interface.
func (d *DB) GetUserByName(ctx context.Context, name string) (db.User, error) {
	user, err := d.queries.GetUserByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ErrNotFound
	}
	return user, err
}

// CountUsers satisfies the [Users] interface.
func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	return d.queries.CountUsers(ctx)
}

// UpsertUser satisfies the [Users] interface.
func (d *DB) UpsertUser(ctx context.Context, user db.User) error {
	if !validateUsername(user.Name) {
		return ErrInvalidUsername
	}
	if user.ID == 0 {
		user.ID = d.ids.Next()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	switch _, err := d.queries.UpsertUser(ctx, db.UpsertUserParams(user)); {
	case errors.Is(err, sql.ErrNoRows):
		return ErrAlreadyExists
	default:
		return err
	}
}

// DeleteUser satisfies the [Users] interface.
func (d *DB) DeleteUser(ctx context.Context, userID uint64) error {
	return d.queries.DeleteUser(ctx, userID)
}

// ListProducts satisfies the [Products] interface.
func (d *DB) ListProducts(ctx context.Context, afterName string, limit int32) ([]db.Product, error) {
	return d.queries.GetProducts(ctx, db.GetProductsParams{
		AfterName:  afterName,
		MaxResults: int64(limit),
	})
}

// GetProduct satisfies the [Products] interface.
func (d *DB) GetProduct(ctx context.Context, productID uint64) (db.Product, error) {
	product, err := d.queries.GetProduct(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return product, ErrNotFound
	}
	return product, err
}

// GetProductByBarcode satisfies the [Products] interface.
func (d *DB) GetProductByBarcode(ctx context.Context, barcode string) (db.Product, error) {
	product, err := d.queries.GetProductByBarcode(ctx, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return product, ErrNotFound
	}
	return product, err
}

// CreateProduct satisfies the [Products] interface.
func (d *DB) CreateProduct(ctx context.Context, product db.Product) (db.Product, error) {
	if !validateBarcode(product.Barcode) {
		return product, ErrInvalidBarcode
	}
	if product.ID == 0 {
		product.ID = d.ids.Next()
	}
	switch _, err := d.queries.InsertProduct(ctx, db.InsertProductParams(product)); {
	case errors.Is(err, sql.ErrNoRows):
		return product, ErrAlreadyExists
	default:
		return product, err
	}
}

// StockLevels satisfies the [Products] interface.
func (d *DB) StockLevels(ctx context.Context) ([]db.GetStockLevelsRow, error) {
	return d.queries.GetStockLevels(ctx)
}

// ProductStock satisfies the [Products] interface.
func (d *DB) ProductStock(ctx context.Context, productID uint64) (float64, error) {
	return d.queries.GetProductStock(ctx, productID)
}

// AddBatch satisfies the [Batches] interface.
func (d *DB) AddBatch(ctx context.Context, batch db.Batch) (db.Batch, error) {
	if batch.ID == 0 {
		batch.ID = d.ids.Next()
	}
	if batch.EntryDate.IsZero() {
		batch.EntryDate = time.Now().UTC()
	}
	_, err := d.queries.InsertBatch(ctx, db.InsertBatchParams(batch))
	return batch, err
}

// GetBatch satisfies the [Batches] interface.
func (d *DB) GetBatch(ctx context.Context, batchID uint64) (db.Batch, error) {
	batch, err := d.queries.GetBatch(ctx, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return batch, ErrNotFound
	}
	return batch, err
}

// ActiveBatches satisfies the [Batches] interface.
func (d *DB) ActiveBatches(ctx context.Context, productID uint64) ([]db.Batch, error) {
	return d.queries.GetActiveBatches(ctx, productID)
}

// ConsumeBatch satisfies the [Batches] interface. The decrement and the
// remaining-quantity guard run in one statement, so concurrent draws cannot
// take a batch below zero.
func (d *DB) ConsumeBatch(ctx context.Context, batchID uint64, quantity float64) (float64, error) {
	remaining, err := d.queries.ConsumeBatch(ctx, db.ConsumeBatchParams{
		ID:       batchID,
		Quantity: quantity,
	})
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := d.queries.GetBatch(ctx, batchID); errors.Is(getErr, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficient
	}
	return remaining, err
}

// RecordMovement satisfies the [Movements] interface.
func (d *DB) RecordMovement(ctx context.Context, movement db.Movement) error {
	if movement.ID == 0 {
		movement.ID = d.ids.Next()
	}
	if movement.RecordedAt.IsZero() {
		movement.RecordedAt = time.Now().UTC()
	}
	return d.queries.InsertMovement(ctx, db.InsertMovementParams(movement))
}

// ListMovements satisfies the [Movements] interface.
func (d *DB) ListMovements(ctx context.Context, beforeID uint64, limit int32) ([]db.Movement, error) {
	if beforeID == 0 {
		beforeID = math.MaxInt64
	}
	return d.queries.GetMovements(ctx, db.GetMovementsParams{
		BeforeID:   beforeID,
		MaxResults: int64(limit),
	})
}

var _ Store = (*DB)(nil)
