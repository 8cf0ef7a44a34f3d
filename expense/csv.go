package expense

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// DateLayout is the on-disk date format for the date column.
const DateLayout = "2006-01-02"

// Header is the CSV column set, in order. Readers reject files whose header
// does not match exactly.
var Header = []string{
	"date", "product", "quantity", "unit_price",
	"supplier", "payment_method", "notes", "total_price",
}

// Write serializes records as CSV with the fixed header.
func Write(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Date.Format(DateLayout),
			r.Product,
			strconv.Itoa(r.Quantity),
			money(r.UnitPrice),
			r.Supplier,
			r.PaymentMethod,
			r.Notes,
			money(r.TotalPrice),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path, truncating any existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a CSV stream previously produced by Write.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range Header {
		if head[i] != col {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, head[i], col)
		}
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

func parseRow(row []string) (Record, error) {
	date, err := time.Parse(DateLayout, row[0])
	if err != nil {
		return Record{}, fmt.Errorf("parse date %q: %w", row[0], err)
	}
	qty, err := strconv.Atoi(row[2])
	if err != nil {
		return Record{}, fmt.Errorf("parse quantity %q: %w", row[2], err)
	}
	unit, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse unit_price %q: %w", row[3], err)
	}
	total, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse total_price %q: %w", row[7], err)
	}

	return Record{
		Date:          date,
		Product:       row[1],
		Quantity:      qty,
		UnitPrice:     unit,
		Supplier:      row[4],
		PaymentMethod: row[5],
		Notes:         row[6],
		TotalPrice:    total,
	}, nil
}

func money(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
