package inventory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader is the first row of the valuation export.
var csvHeader = []string{
	"barcode",
	"name",
	"brand",
	"supplier",
	"total_quantity",
	"unit_measure",
	"unit_price",
	"total_value",
}

// ExportCSV writes the inventory valuation as CSV: one row per product with
// its summed on-hand quantity and stock value.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stock levels: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, lvl := range levels {
		row := []string{
			lvl.Barcode,
			lvl.Name,
			lvl.Brand,
			lvl.Supplier,
			formatQuantity(lvl.TotalQuantity),
			lvl.UnitMeasure,
			formatQuantity(lvl.UnitPrice),
			formatQuantity(lvl.TotalValue()),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
