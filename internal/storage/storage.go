// Package storage provides the state management for users, products, batches,
// and the movement log.
package storage

import (
	"context"

	"github.com/brioso/stockroom/internal/storage/db"
)

const (
	// ErrNotFound is returned when a record cannot be found.
	ErrNotFound Error = "not found"
	// ErrAlreadyExists is returned if a unique user or barcode already exists.
	ErrAlreadyExists Error = "already exists"
	// ErrInvalidUsername is returned when a username fails validation.
	ErrInvalidUsername Error = "username must be 3-64 characters, alphanumeric and underscores only"
	// ErrInvalidBarcode is returned when a barcode fails validation.
	ErrInvalidBarcode Error = "barcode must be 1-64 characters with no whitespace"
	// ErrInsufficient is returned when a batch holds less stock than requested.
	ErrInsufficient Error = "insufficient quantity in batch"
	// ErrInternal is returned for any other type of error.
	ErrInternal Error = "internal error"
)

// Error is an error type returned by the storage implementation.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Users are the methods on a storage implementation that are responsible for
// accessing and modifying users.
type Users interface {
	// ListUsers returns the users in a list, paginated by the given name (if
	// provided) up to the given limit of records.
	ListUsers(ctx context.Context, afterName string, limit int32) ([]db.User, error)
	// GetUser returns a single user with the specified ID. An [ErrNotFound] is
	// returned if the user ID does not exist.
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	// GetUserByName returns a single user with the specified name. An
	// [ErrNotFound] is returned if the user name does not exist.
	GetUserByName(ctx context.Context, name string) (db.User, error)
	// CountUsers returns the total number of users.
	CountUsers(ctx context.Context) (int64, error)
	// UpsertUser creates or updates the user. This is a full PUT-style upsert.
	// An [ErrAlreadyExists] error is returned if the username is already in use.
	UpsertUser(ctx context.Context, user db.User) error
	// DeleteUser removes a user. Note that this is a hard delete; data is not
	// recoverable.
	DeleteUser(ctx context.Context, userID uint64) error
}

// Products are the methods responsible for the product catalog.
type Products interface {
	// ListProducts returns products ordered by name, paginated by the given
	// name (if provided) up to the given limit of records.
	ListProducts(ctx context.Context, afterName string, limit int32) ([]db.Product, error)
	// GetProduct returns a single product by ID. An [ErrNotFound] is returned
	// if the ID does not exist.
	GetProduct(ctx context.Context, productID uint64) (db.Product, error)
	// GetProductByBarcode returns the product registered under barcode. An
	// [ErrNotFound] is returned for unknown barcodes.
	GetProductByBarcode(ctx context.Context, barcode string) (db.Product, error)
	// CreateProduct registers a new product and returns it with its assigned
	// ID. An [ErrAlreadyExists] error is returned if the barcode is taken.
	CreateProduct(ctx context.Context, product db.Product) (db.Product, error)
	// StockLevels returns every product with its summed on-hand quantity.
	StockLevels(ctx context.Context) ([]db.GetStockLevelsRow, error)
	// ProductStock returns the summed on-hand quantity for one product.
	ProductStock(ctx context.Context, productID uint64) (float64, error)
}

// Batches are the methods responsible for stock batches.
type Batches interface {
	// AddBatch records an arrival of stock and returns the batch with its
	// assigned ID.
	AddBatch(ctx context.Context, batch db.Batch) (db.Batch, error)
	// GetBatch returns a single batch by ID. An [ErrNotFound] is returned if
	// the ID does not exist.
	GetBatch(ctx context.Context, batchID uint64) (db.Batch, error)
	// ActiveBatches returns the batches of a product that still hold stock,
	// ordered for FIFO consumption (earliest expiry first, then arrival).
	ActiveBatches(ctx context.Context, productID uint64) ([]db.Batch, error)
	// ConsumeBatch atomically draws quantity from a batch and returns the
	// remaining amount. [ErrInsufficient] is returned when the batch holds
	// less than requested; [ErrNotFound] when the batch does not exist.
	ConsumeBatch(ctx context.Context, batchID uint64, quantity float64) (float64, error)
}

// Movements are the methods responsible for the audit log of stock operations.
type Movements interface {
	// RecordMovement appends an entry to the movement log.
	RecordMovement(ctx context.Context, movement db.Movement) error
	// ListMovements returns log entries newest-first, paginated by the given
	// ID (zero for the first page) up to the given limit of records.
	ListMovements(ctx context.Context, beforeID uint64, limit int32) ([]db.Movement, error)
}

// Store is the combination interface for all storage concerns.
type Store interface {
	Users
	Products
	Batches
	Movements
	// Close releases any resources held by the store. An error is returned if
	// the store cannot be cleanly closed.
	Close() error
}
