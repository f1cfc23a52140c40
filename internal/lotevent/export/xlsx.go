// Package export renders lot event histories as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	lotevent "github.com/agrilink/agrilink/internal/lotevent/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Events"

var headers = []string{"ID", "Type", "At (UTC)", "Temperature (C)", "Humidity (%)", "Place", "Note"}

// WriteXLSX writes one row per event in the order given.
func WriteXLSX(w io.Writer, lotPublicID string, events []lotevent.Event) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Lot " + lotPublicID,
		Creator: "agrilink",
	}); err != nil {
		return err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, ev := range events {
		row := []any{
			ev.ID.String(),
			ev.Type,
			ev.At.UTC().Format(time.RFC3339),
			optional(ev.Temp),
			optional(ev.Hum),
			ev.Place,
			ev.Note,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
