package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stratfolio/internal/engine"
	"stratfolio/internal/marketdata"
	"stratfolio/types"
)

const defaultInitialInvestment = 10000.0

// tickerPattern matches plain exchange symbols, including class shares
// like BRK.A and BF-B.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

type assetInput struct {
	Ticker string  `json:"ticker" binding:"required"`
	Weight float64 `json:"weight" binding:"required,gt=0,lte=1"`
}

type backtestRequest struct {
	Assets            []assetInput `json:"assets" binding:"required,min=1,dive"`
	InitialInvestment float64      `json:"initial_investment" binding:"omitempty,gt=0"`
	StartDate         string       `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate           string       `json:"end_date" binding:"required,datetime=2006-01-02"`
	BenchmarkTicker   string       `json:"benchmark_ticker"`
	Rebalance         string       `json:"rebalance" binding:"omitempty,oneof=Monthly Quarterly Annually"`
}

type backtestResponse struct {
	PortfolioPerformance types.PerformanceResult  `json:"portfolio_performance"`
	BenchmarkPerformance *types.PerformanceResult `json:"benchmark_performance"`
}

type thestratRequest struct {
	Ticker     string   `json:"ticker" binding:"required"`
	StartDate  string   `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string   `json:"end_date" binding:"required,datetime=2006-01-02"`
	Timeframes []string `json:"timeframes"`
}

type thestratResponse struct {
	Ticker     string                            `json:"ticker"`
	Timeframes map[string]engine.TimeframeSeries `json:"timeframes"`
}

// HandlePortfolioBacktest runs a buy-and-hold backtest for a weighted
// portfolio, with an optional benchmark computed from the same fetch.
func HandlePortfolioBacktest(provider marketdata.Provider, eng *engine.Engine, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req backtestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
		if req.InitialInvestment == 0 {
			req.InitialInvestment = defaultInitialInvestment
		}
		start, end, err := parseDateRange(req.StartDate, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": err.Error()})
			return
		}

		weights := make(map[string]float64, len(req.Assets))
		tickers := make([]string, 0, len(req.Assets)+1)
		for _, a := range req.Assets {
			ticker, err := sanitizeTicker(a.Ticker)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, dup := weights[ticker]; !dup {
				tickers = append(tickers, ticker)
			}
			weights[ticker] += a.Weight
		}
		benchmark := ""
		if req.BenchmarkTicker != "" {
			if benchmark, err = sanitizeTicker(req.BenchmarkTicker); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, held := weights[benchmark]; !held {
				tickers = append(tickers, benchmark)
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		table, err := provider.FetchCloses(ctx, tickers, start, end)
		if err != nil {
			respondProviderError(c, err)
			return
		}

		portfolioTickers := make([]string, 0, len(weights))
		for t := range weights {
			portfolioTickers = append(portfolioTickers, t)
		}
		portfolioTable, ok := table.Select(portfolioTickers...)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "portfolio tickers not found in price data",
			})
			return
		}

		initial := decimal.NewFromFloat(req.InitialInvestment)
		rebalance := types.ConvertRebalance[req.Rebalance]

		slog.Info("running portfolio backtest",
			"tickers", portfolioTickers,
			"start", req.StartDate,
			"end", req.EndDate,
			"rebalance", req.Rebalance)

		resp := backtestResponse{
			PortfolioPerformance: eng.ComputePerformance(portfolioTable, initial, weights, rebalance),
		}
		if benchmark != "" {
			if benchTable, ok := table.Select(benchmark); ok {
				result := eng.ComputePerformance(benchTable, initial, nil, types.RebalanceNone)
				resp.BenchmarkPerformance = &result
			} else {
				slog.Warn("benchmark missing from price data, skipping", "ticker", benchmark)
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleTheStrat resamples one ticker's daily series into the
// requested timeframes and labels every bar.
func HandleTheStrat(provider marketdata.Provider, eng *engine.Engine, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req thestratRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
		ticker, err := sanitizeTicker(req.Ticker)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start, end, err := parseDateRange(req.StartDate, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		bars, err := provider.FetchDailyBars(ctx, ticker, start, end)
		if err != nil {
			respondProviderError(c, err)
			return
		}

		slog.Info("running multi-timeframe analysis",
			"ticker", ticker,
			"days", len(bars),
			"timeframes", req.Timeframes)

		timeframes, err := eng.AnalyzeTimeframes(bars, req.Timeframes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, thestratResponse{Ticker: ticker, Timeframes: timeframes})
	}
}

func sanitizeTicker(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid ticker %q", ticker)
	}
	return normalized, nil
}

// respondProviderError maps provider failures: missing data is the
// client's problem (bad ticker or range), anything else is ours.
func respondProviderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, marketdata.ErrNoData) || errors.Is(err, marketdata.ErrSymbolMissing):
		slog.Warn("no data for request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("price provider timed out", "error", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "price data fetch timed out"})
	default:
		slog.Error("price provider failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch price data"})
	}
}
