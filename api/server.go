// Package api exposes the backtest service over HTTP with gin.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scot00671234/tradingjournal/backtest"
	"github.com/scot00671234/tradingjournal/journal"
	"github.com/scot00671234/tradingjournal/market"
	"github.com/scot00671234/tradingjournal/pkg/logging"
)

// Server holds the handlers. Journal is optional; without one runs are not
// recorded and the results routes are not mounted.
type Server struct {
	Backtests    *backtest.Service
	Journal      journal.Journal
	Logger       *zap.Logger
	HistoryLimit int
	Version      string
}

// RunResponse is the body of a successful POST /api/backtest/run.
type RunResponse struct {
	ID         string           `json:"id"`
	Config     backtest.Config  `json:"config"`
	Result     *backtest.Result `json:"result"`
	DataPoints int              `json:"dataPoints"`
	// Recorded is false when the journal write failed or no journal is set.
	Recorded bool `json:"recorded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler builds the gin engine with every route mounted.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log()))
	s.Routes(r)
	return r
}

// Routes mounts the API on r.
func (s *Server) Routes(r gin.IRouter) {
	r.GET("/api/health", s.handleHealth)

	api := r.Group("/api/backtest")
	{
		api.POST("/run", s.handleRun)
		api.GET("/prices/:symbol", s.handlePrices)
		api.GET("/symbols", s.handleSymbols)
		if s.Journal != nil {
			api.GET("/results", s.handleListResults)
			api.GET("/results/:id", s.handleGetResult)
		}
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   s.Version,
	})
}

func (s *Server) handleRun(c *gin.Context) {
	var cfg backtest.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	res, err := s.Backtests.RunBacktest(ctx, cfg)
	if err != nil {
		s.fail(c, errorStatus(err), err)
		return
	}

	recorded := false
	if s.Journal != nil {
		if err := s.Journal.RecordBacktest(ctx, res); err != nil {
			s.log().Error("record backtest", zap.String("id", res.ID), zap.Error(err))
		} else {
			recorded = true
		}
	}

	c.JSON(http.StatusOK, RunResponse{
		ID:         res.ID,
		Config:     res.Config,
		Result:     res,
		DataPoints: res.DataPoints,
		Recorded:   recorded,
	})
}

func (s *Server) handlePrices(c *gin.Context) {
	startRaw, endRaw := c.Query("startDate"), c.Query("endDate")
	if startRaw == "" || endRaw == "" {
		s.fail(c, http.StatusBadRequest, errors.New("startDate and endDate are required"))
		return
	}
	start, err := market.ParseDate(startRaw)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	end, err := market.ParseDate(endRaw)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	bars, err := s.Backtests.PriceBars(c.Request.Context(), c.Param("symbol"), start, end)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, bars)
}

func (s *Server) handleSymbols(c *gin.Context) {
	symbols, err := s.Backtests.Symbols(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, symbols)
}

func (s *Server) handleListResults(c *gin.Context) {
	limit := s.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	runs, err := s.Journal.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetResult(c *gin.Context) {
	res, err := s.Journal.GetBacktestRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, errorStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.log().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, backtest.ErrNotFound), errors.Is(err, journal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backtest.ErrInvalidStrategy), errors.Is(err, backtest.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) log() *zap.Logger {
	return logging.OrNop(s.Logger)
}
