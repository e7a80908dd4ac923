package pricecache

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/scot00671234/tradingjournal/market"
)

// CSV rows are
//
//	date,open,high,low,close[,volume]
//
// with an optional header row. A header may name the columns in any order
// and may add a symbol column; without one, every row belongs to the
// symbol passed to ReadCSV. Empty rows are skipped.
var csvColumns = []string{"date", "open", "high", "low", "close", "volume"}

// ReadCSVFile reads bars from a CSV file.
func ReadCSVFile(path, symbol string) ([]market.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f, symbol)
}

// ReadCSV parses bars from r. symbol is used when the data has no symbol
// column; it overrides nothing when the column is present.
func ReadCSV(r io.Reader, symbol string) ([]market.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols := map[string]int{}
	for i, name := range csvColumns {
		cols[name] = i
	}

	var out []market.PriceBar
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		// Allow a single header row
		if line == 1 && isHeader(row) {
			cols = headerColumns(row)
			if _, ok := cols["date"]; !ok {
				return nil, fmt.Errorf("csv header: missing date column")
			}
			continue
		}

		b, err := parseBarRow(row, cols, symbol)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, b)
	}

	sortBySymbolDate(out)
	return out, nil
}

func isHeader(row []string) bool {
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "date" || first == "symbol" || first == "time" || first == "timestamp"
}

func headerColumns(row []string) map[string]int {
	cols := map[string]int{}
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "time", "timestamp", "day":
			key = "date"
		case "ticker":
			key = "symbol"
		case "vol":
			key = "volume"
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func parseBarRow(row []string, cols map[string]int, symbol string) (market.PriceBar, error) {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var b market.PriceBar
	b.Symbol = normalize(symbol)
	if s, ok := field("symbol"); ok && s != "" {
		b.Symbol = normalize(s)
	}
	if b.Symbol == "" {
		return b, fmt.Errorf("no symbol")
	}

	ds, _ := field("date")
	d, err := market.ParseDate(ds)
	if err != nil {
		return b, err
	}
	b.Date = d

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close},
	} {
		s, ok := field(f.name)
		if !ok {
			return b, fmt.Errorf("missing %s", f.name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("bad %s %q", f.name, s)
		}
		*f.dst = v
	}

	if s, ok := field("volume"); ok && s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("bad volume %q", s)
		}
		b.Volume = int64(v)
	}
	return b, b.Validate()
}

// WriteCSV writes bars with a symbol,date,open,high,low,close,volume header.
func WriteCSV(w io.Writer, bars []market.PriceBar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"symbol"}, csvColumns...)); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			b.Symbol,
			b.Date.String(),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatInt(b.Volume, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
