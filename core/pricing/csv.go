package pricing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/assetfin/core/model"
)

var (
	monthlyColumns = []string{"profile", "type", "region", "time", "price"}
	spreadColumns  = []string{"region", "year", "duration", "spread"}
)

// LoadMonthlyCSV reads rows of profile,type,REGION,time,price. Dates are
// DD/MM/YYYY or YYYY-MM-DD.
func LoadMonthlyCSV(r io.Reader) ([]MonthlyPoint, error) {
	rows, idx, err := readTable(r, monthlyColumns)
	if err != nil {
		return nil, err
	}
	out := make([]MonthlyPoint, 0, len(rows))
	for i, row := range rows {
		d, err := model.ParseDate(row[idx["time"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[idx["price"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: price: %w", i+2, err)
		}
		out = append(out, MonthlyPoint{
			Profile: strings.TrimSpace(row[idx["profile"]]),
			Type:    PriceType(strings.ToLower(strings.TrimSpace(row[idx["type"]]))),
			Region:  strings.TrimSpace(row[idx["region"]]),
			Month:   model.MonthStart(d.Time),
			Price:   price,
		})
	}
	return out, nil
}

// LoadSpreadsCSV reads rows of REGION,YEAR,DURATION,SPREAD.
func LoadSpreadsCSV(r io.Reader) ([]SpreadPoint, error) {
	rows, idx, err := readTable(r, spreadColumns)
	if err != nil {
		return nil, err
	}
	out := make([]SpreadPoint, 0, len(rows))
	for i, row := range rows {
		year, err := strconv.Atoi(strings.TrimSpace(row[idx["year"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: year: %w", i+2, err)
		}
		dur, err := strconv.ParseFloat(strings.TrimSpace(row[idx["duration"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: duration: %w", i+2, err)
		}
		spread, err := strconv.ParseFloat(strings.TrimSpace(row[idx["spread"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: spread: %w", i+2, err)
		}
		out = append(out, SpreadPoint{Region: strings.TrimSpace(row[idx["region"]]), Year: year, Duration: dur, Spread: spread})
	}
	return out, nil
}

// LoadCurveFiles builds a Curve from CSV files. Either path may be empty.
func LoadCurveFiles(monthlyPath, spreadsPath string, opts ...CurveOption) (*Curve, error) {
	var (
		monthly []MonthlyPoint
		spreads []SpreadPoint
	)
	if monthlyPath != "" {
		pts, err := loadFile(monthlyPath, LoadMonthlyCSV)
		if err != nil {
			return nil, err
		}
		monthly = pts
	}
	if spreadsPath != "" {
		pts, err := loadFile(spreadsPath, LoadSpreadsCSV)
		if err != nil {
			return nil, err
		}
		spreads = pts
	}
	return NewCurve(monthly, spreads, opts...), nil
}

func loadFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer func() { _ = f.Close() }()
	pts, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return pts, nil
}

func readTable(r io.Reader, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty price table")
		}
		return nil, nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, idx, nil
}
