package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/journal"
	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/market/markettest"
	"github.com/scot00671234/tradingjournal/pkg/sqlitedb"
	"github.com/scot00671234/tradingjournal/pricecache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func trendBars(symbol string) []market.PriceBar {
	closes := markettest.Concat(markettest.Flat(25, 100), markettest.Ramp(75, 100, 200))
	return markettest.Bars(symbol, closes...)
}

func newTestServer(t *testing.T, withJournal bool) (*Server, *gin.Engine) {
	t.Helper()
	log := zaptest.NewLogger(t)

	prices := pricecache.NewMemory(trendBars("AAPL")...)
	prices.Add(trendBars("MSFT")...)

	s := &Server{
		Backtests:    backtest.NewService(prices, log),
		Logger:       log,
		HistoryLimit: 5,
		Version:      "test",
	}
	if withJournal {
		ctx := context.Background()
		db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "trader.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		j, err := journal.NewSQLite(ctx, db, log)
		require.NoError(t, err)
		j.HistoryLimit = 5
		s.Journal = j
	}
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

const runBody = `{"symbol":"AAPL","strategy":"ma_cross","startDate":"2024-01-01","endDate":"2024-04-09","initialBalance":10000}`

func TestRunBacktest(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, true)
	w := do(t, h, http.MethodPost, "/api/backtest/run", runBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		ID         string          `json:"id"`
		Config     backtest.Config `json:"config"`
		DataPoints int             `json:"dataPoints"`
		Recorded   bool            `json:"recorded"`
		Result     struct {
			ID          string                   `json:"id"`
			Trades      []map[string]interface{} `json:"trades"`
			EquityCurve []map[string]interface{} `json:"equityCurve"`
			Performance backtest.Metrics         `json:"performance"`
		} `json:"result"`
	}
	decode(t, w, &body)

	assert.NotEmpty(t, body.ID)
	assert.Equal(t, body.ID, body.Result.ID)
	assert.Equal(t, 100, body.DataPoints)
	assert.True(t, body.Recorded)
	assert.Equal(t, "AAPL", body.Config.Symbol)
	assert.Equal(t, "long", body.Config.Direction)
	require.NotNil(t, body.Config.Commission)
	assert.Equal(t, 5.0, *body.Config.Commission)
	require.Len(t, body.Result.Trades, 1)
	assert.Equal(t, "SMA Crossover Bull | End of Data", body.Result.Trades[0]["reason"])
	assert.Len(t, body.Result.EquityCurve, 80)
	assert.Equal(t, 1, body.Result.Performance.TotalTrades)
	assert.Greater(t, body.Result.Performance.TotalReturn, 0.0)
}

func TestRunBacktestErrors(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)
	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{
			name:   "malformed json",
			body:   `{"symbol":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "bad date",
			body:   `{"symbol":"AAPL","strategy":"ma_cross","startDate":"01/02/2024"}`,
			status: http.StatusBadRequest,
			errMsg: "bad date",
		},
		{
			name:   "unknown strategy",
			body:   `{"symbol":"AAPL","strategy":"martingale"}`,
			status: http.StatusBadRequest,
			errMsg: "invalid strategy",
		},
		{
			name:   "negative balance",
			body:   `{"symbol":"AAPL","strategy":"breakout","initialBalance":-1}`,
			status: http.StatusBadRequest,
			errMsg: "initial balance must be positive",
		},
		{
			name:   "bad direction",
			body:   `{"symbol":"AAPL","strategy":"breakout","direction":"up"}`,
			status: http.StatusBadRequest,
			errMsg: "unknown direction",
		},
		{
			name:   "unknown symbol",
			body:   `{"symbol":"TSLA","strategy":"breakout"}`,
			status: http.StatusNotFound,
			errMsg: "no price data found",
		},
		{
			name:   "range without data",
			body:   `{"symbol":"AAPL","strategy":"breakout","startDate":"2025-01-01","endDate":"2025-02-01"}`,
			status: http.StatusNotFound,
			errMsg: "no price data found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/backtest/run", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var body errorResponse
			decode(t, w, &body)
			assert.NotEmpty(t, body.Error)
			if tt.errMsg != "" {
				assert.Contains(t, body.Error, tt.errMsg)
			}
		})
	}
}

func TestRunBacktestWithoutJournal(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)
	w := do(t, h, http.MethodPost, "/api/backtest/run", runBody)
	require.Equal(t, http.StatusOK, w.Code)

	var body RunResponse
	decode(t, w, &body)
	assert.False(t, body.Recorded)

	w = do(t, h, http.MethodGet, "/api/backtest/results", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrices(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)

	w := do(t, h, http.MethodGet, "/api/backtest/prices/aapl?startDate=2024-01-10&endDate=2024-01-19", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var bars []market.PriceBar
	decode(t, w, &bars)
	require.Len(t, bars, 10)
	assert.Equal(t, market.NewDate(2024, 1, 10), bars[0].Date)
	assert.Equal(t, market.NewDate(2024, 1, 19), bars[9].Date)
	assert.Equal(t, "AAPL", bars[0].Symbol)

	w = do(t, h, http.MethodGet, "/api/backtest/prices/TSLA?startDate=2024-01-10&endDate=2024-01-19", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPricesBadQuery(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)
	for _, target := range []string{
		"/api/backtest/prices/AAPL",
		"/api/backtest/prices/AAPL?startDate=2024-01-01",
		"/api/backtest/prices/AAPL?endDate=2024-01-01",
		"/api/backtest/prices/AAPL?startDate=yesterday&endDate=2024-01-01",
		"/api/backtest/prices/AAPL?startDate=2024-01-01&endDate=2024-13-01",
	} {
		w := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)
	w := do(t, h, http.MethodGet, "/api/backtest/symbols", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["AAPL","MSFT"]`, w.Body.String())
}

func TestResults(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, true)

	var ids []string
	for _, strategy := range []string{"ma_cross", "rsi_reversal", "breakout"} {
		body := `{"symbol":"MSFT","strategy":"` + strategy + `"}`
		w := do(t, h, http.MethodPost, "/api/backtest/run", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp RunResponse
		decode(t, w, &resp)
		ids = append(ids, resp.ID)
	}

	w := do(t, h, http.MethodGet, "/api/backtest/results", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []journal.RunSummary
	decode(t, w, &runs)
	require.Len(t, runs, 3)

	w = do(t, h, http.MethodGet, "/api/backtest/results?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &runs)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Contains(t, ids, r.ID)
		assert.Equal(t, "MSFT", r.Symbol)
	}

	w = do(t, h, http.MethodGet, "/api/backtest/results/"+ids[0], "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got struct {
		ID           string                   `json:"id"`
		StrategyName string                   `json:"strategyName"`
		Trades       []map[string]interface{} `json:"trades"`
		EquityCurve  []map[string]interface{} `json:"equityCurve"`
	}
	decode(t, w, &got)
	assert.Equal(t, ids[0], got.ID)
	assert.Equal(t, "SMA Crossover (10/20)", got.StrategyName)
	assert.Len(t, got.Trades, 1)
	assert.Len(t, got.EquityCurve, 80)

	w = do(t, h, http.MethodGet, "/api/backtest/results/01HZZZZZZZZZZZZZZZZZZZZZZZ", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/backtest/results?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type brokenJournal struct{ journal.Journal }

func (brokenJournal) RecordBacktest(context.Context, *backtest.Result) error {
	return errors.New("disk full")
}

func TestRunBacktestJournalFailureStillAnswers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, false)
	s.Journal = brokenJournal{}
	w := do(t, s.Handler(), http.MethodPost, "/api/backtest/run", runBody)
	require.Equal(t, http.StatusOK, w.Code)

	var body RunResponse
	decode(t, w, &body)
	assert.False(t, body.Recorded)
	assert.NotEmpty(t, body.ID)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)
	w := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{backtest.ErrNotFound, http.StatusNotFound},
		{journal.ErrNotFound, http.StatusNotFound},
		{backtest.ErrInvalidStrategy, http.StatusBadRequest},
		{backtest.ErrInvalidConfig, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}
