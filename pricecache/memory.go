// Package pricecache stores daily price bars and serves them to backtests.
//
// Store keeps bars in SQLite; Memory is an in-process equivalent for tests
// and one-off CLI runs. Both return bars in ascending date order and treat
// symbols case-insensitively. CSV and Parquet helpers load and dump bars.
package pricecache

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/scot00671234/tradingjournal/market"
)

// Memory is an in-memory price cache, safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	bars map[string]map[market.Date]market.PriceBar
}

// NewMemory returns a cache seeded with bars.
func NewMemory(bars ...market.PriceBar) *Memory {
	m := &Memory{bars: map[string]map[market.Date]market.PriceBar{}}
	m.Add(bars...)
	return m
}

// Add inserts bars, replacing any bar with the same symbol and date.
func (m *Memory) Add(bars ...market.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range bars {
		b.Symbol = normalize(b.Symbol)
		byDate, ok := m.bars[b.Symbol]
		if !ok {
			byDate = map[market.Date]market.PriceBar{}
			m.bars[b.Symbol] = byDate
		}
		byDate[b.Date] = b
	}
}

func (m *Memory) Fetch(_ context.Context, symbol string, start, end market.Date) ([]market.PriceBar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDate := m.bars[normalize(symbol)]
	all := make([]market.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		all = append(all, b)
	}
	out := market.FilterRange(all, start, end)
	market.SortBars(out)
	return out, nil
}

func (m *Memory) Symbols(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.bars))
	for s, bars := range m.bars {
		if len(bars) > 0 {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func sortBySymbolDate(bars []market.PriceBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Symbol != bars[j].Symbol {
			return bars[i].Symbol < bars[j].Symbol
		}
		return bars[i].Date.Before(bars[j].Date)
	})
}
