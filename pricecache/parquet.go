package pricecache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/scot00671234/tradingjournal/market"
)

// BarRecord is the Parquet schema for daily bars.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, midnight UTC
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

func toRecord(b market.PriceBar) BarRecord {
	return BarRecord{
		Symbol:    b.Symbol,
		Timestamp: b.Date.UnixMilli(),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}

func fromRecord(r BarRecord) market.PriceBar {
	return market.PriceBar{
		Symbol: normalize(r.Symbol),
		Date:   market.DateOf(time.UnixMilli(r.Timestamp)),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

// WriteParquet writes bars to path, creating parent directories.
func WriteParquet(path string, bars []market.PriceBar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = toRecord(b)
	}
	return parquet.WriteFile(path, records)
}

// ReadParquet reads bars from a file written by WriteParquet, sorted by
// symbol then date.
func ReadParquet(path string) ([]market.PriceBar, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, err
	}
	out := make([]market.PriceBar, len(records))
	for i, r := range records {
		out[i] = fromRecord(r)
	}
	sortBySymbolDate(out)
	return out, nil
}
