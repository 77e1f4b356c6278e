package inventory

import (
	"bytes"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioso/stockroom/internal/storage"
	"github.com/brioso/stockroom/internal/storage/db"
)

func newTestService(t *testing.T) (*Service, storage.Store) {
	t.Helper()
	store, err := storage.NewDB(
		t.Context(),
		slog.New(slog.DiscardHandler),
		filepath.Join(t.TempDir(), "db.sqlite"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, slog.New(slog.DiscardHandler)), store
}

func TestResolveScan(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	product, err := svc.CreateProduct(t.Context(), db.Product{
		Barcode: "8001111111111",
		Name:    "Rye Flour",
	}, "baker")
	require.NoError(t, err)

	t.Run("known barcode resolves in both modes", func(t *testing.T) {
		t.Parallel()
		for _, mode := range []ScanMode{ScanIn, ScanOut} {
			res, err := svc.ResolveScan(t.Context(), product.Barcode, mode)
			require.NoError(t, err)
			assert.True(t, res.Found)
			assert.Equal(t, product.ID, res.Product.ID)
		}
	})

	t.Run("unknown barcode in receive mode prompts registration", func(t *testing.T) {
		t.Parallel()
		res, err := svc.ResolveScan(t.Context(), "0000000000000", ScanIn)
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("unknown barcode in consume mode is not found", func(t *testing.T) {
		t.Parallel()
		_, err := svc.ResolveScan(t.Context(), "0000000000000", ScanOut)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("unknown mode errors", func(t *testing.T) {
		t.Parallel()
		_, err := svc.ResolveScan(t.Context(), product.Barcode, ScanMode("sideways"))
		require.ErrorIs(t, err, ErrInvalidScanMode)
	})
}

func TestStockLifecycle(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)

	product, err := svc.CreateProduct(t.Context(), db.Product{
		Barcode:     "8002222222222",
		Name:        "Olive Oil",
		UnitMeasure: "L",
		UnitPrice:   6.0,
	}, "baker")
	require.NoError(t, err)

	_, err = svc.CreateProduct(t.Context(), db.Product{
		Barcode: product.Barcode,
		Name:    "Duplicate",
	}, "baker")
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	expiry := sql.NullTime{Valid: true, Time: time.Now().AddDate(0, 6, 0)}
	batch, err := svc.AddBatch(t.Context(), product.ID, 12, expiry, "baker")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, batch.QuantityCurrent, 0.001)
	assert.Equal(t, "baker", batch.CreatedBy)

	_, err = svc.AddBatch(t.Context(), product.ID, 0, sql.NullTime{}, "baker")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.AddBatch(t.Context(), 1, 5, sql.NullTime{}, "baker")
	require.ErrorIs(t, err, storage.ErrNotFound)

	remaining, err := svc.ConsumeBatch(t.Context(), batch.ID, 2, "apprentice")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, remaining, 0.001)

	_, err = svc.ConsumeBatch(t.Context(), batch.ID, 100, "apprentice")
	require.ErrorIs(t, err, storage.ErrInsufficient)
	_, err = svc.ConsumeBatch(t.Context(), batch.ID, -1, "apprentice")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.ConsumeBatch(t.Context(), 1, 1, "apprentice")
	require.ErrorIs(t, err, storage.ErrNotFound)

	detail, err := svc.ProductDetail(t.Context(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, detail.Product.ID)
	require.Len(t, detail.Batches, 1)
	assert.InDelta(t, 10.0, detail.Total, 0.001)

	// Every successful mutation left an audit trail entry, newest first.
	movements, err := store.ListMovements(t.Context(), 0, 10)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, ActionOut, movements[0].Action)
	assert.Equal(t, "apprentice", movements[0].UserName)
	assert.InDelta(t, 2.0, movements[0].QuantityChange, 0.001)
	assert.Equal(t, ActionIn, movements[1].Action)
	assert.Equal(t, ActionCreate, movements[2].Action)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	product, err := svc.CreateProduct(t.Context(), db.Product{
		Barcode:     "8003333333333",
		Name:        "Sugar",
		Brand:       "Dolce",
		Supplier:    "Cane & Co",
		UnitMeasure: "kg",
		UnitPrice:   2.5,
	}, "baker")
	require.NoError(t, err)

	_, err = svc.AddBatch(t.Context(), product.ID, 4, sql.NullTime{}, "baker")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(t.Context(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Equal(t, "8003333333333,Sugar,Dolce,Cane & Co,4,kg,2.5,10", lines[1])
}
