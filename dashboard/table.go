package dashboard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	forecaster "github.com/aouyang1/go-inflation-forecaster"
	"github.com/xuri/excelize/v2"
)

const (
	CSVFilename  = "nigeria_inflation_forecast.csv"
	XLSXFilename = "nigeria_inflation_forecast.xlsx"

	CSVContentType  = "text/csv"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	xlsxSheet = "Forecast"
)

var (
	ErrMalformedCSV     = errors.New("malformed forecast csv")
	ErrUnexpectedHeader = errors.New("unexpected forecast csv header")
)

// Header is the column order of every table export
var Header = []string{"Date", "Forecast", "Lower Bound", "Upper Bound"}

// TableRow is one forecast month
type TableRow struct {
	Date     time.Time `json:"date"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// Table is the forecast window shown to the user and exported
type Table []TableRow

// NewTable returns the last n rows of the results
func NewTable(res *forecaster.Results, n int) Table {
	tail := res.Tail(n)
	if tail == nil {
		return nil
	}
	t := make(Table, 0, tail.Len())
	for i := range tail.T {
		t = append(t, TableRow{
			Date:     tail.T[i],
			Forecast: tail.Forecast[i],
			Lower:    tail.Lower[i],
			Upper:    tail.Upper[i],
		})
	}
	return t
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the header and one line per row with dates as YYYY-MM-DD and values in the
// shortest representation that parses back exactly
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("unable to write csv header, %w", err)
	}
	for _, row := range t {
		rec := []string{
			row.Date.Format(time.DateOnly),
			formatValue(row.Forecast),
			formatValue(row.Lower),
			formatValue(row.Upper),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("unable to write csv row, %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrMalformedCSV, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file, %w", ErrMalformedCSV)
	}
	for i, h := range Header {
		if records[0][i] != h {
			return nil, fmt.Errorf("column %d is %q, %w", i, records[0][i], ErrUnexpectedHeader)
		}
	}

	t := make(Table, 0, len(records)-1)
	for i, rec := range records[1:] {
		date, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d, %w, %w", i+2, ErrMalformedCSV, err)
		}
		var vals [3]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, %w, %w", i+2, ErrMalformedCSV, err)
			}
		}
		t = append(t, TableRow{Date: date, Forecast: vals[0], Lower: vals[1], Upper: vals[2]})
	}
	return t, nil
}

// WriteXLSX writes the table as a single sheet workbook with the same columns as the csv
func (t Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("unable to name sheet, %w", err)
	}
	for i, h := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(xlsxSheet, "A", "D", 16); err != nil {
		return err
	}

	for i, row := range t {
		r := i + 2
		vals := []any{row.Date.Format(time.DateOnly), row.Forecast, row.Lower, row.Upper}
		for j, v := range vals {
			cell, err := excelize.CoordinatesToCellName(j+1, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return fmt.Errorf("unable to set cell %s, %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write workbook, %w", err)
	}
	return nil
}

// TablePrint writes the table aligned for a terminal
func (t Table) TablePrint(w io.Writer) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s\t%s\t%s\t%s\t\n", Header[0], Header[1], Header[2], Header[3]); err != nil {
		return err
	}
	for _, row := range t {
		if _, err := fmt.Fprintf(tbl, "%s\t%.3f\t%.3f\t%.3f\t\n",
			row.Date.Format(time.DateOnly), row.Forecast, row.Lower, row.Upper); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
