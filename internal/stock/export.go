package stock

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteLowStockCSV renders the low-stock report as CSV. Quantities are
// formatted with grouping separators for spreadsheet consumers.
func WriteLowStockCSV(w io.Writer, rows []LowStockRow) error {
	printer := message.NewPrinter(language.English)
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"store", "product", "quantity", "min_stock_level"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.StoreName,
			row.ProductName,
			printer.Sprintf("%.2f", row.Quantity),
			printer.Sprintf("%.2f", row.MinStockLevel),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
