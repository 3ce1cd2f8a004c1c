package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"stratfolio/internal/engine"
	"stratfolio/internal/marketdata"
	"stratfolio/types"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		tickersFlag   = flag.String("tickers", "", "portfolio legs as TICKER:WEIGHT pairs, e.g. AAPL:0.6,MSFT:0.4")
		investment    = flag.Float64("investment", 10000, "initial investment")
		startFlag     = flag.String("start", "", "start date (YYYY-MM-DD)")
		endFlag       = flag.String("end", "", "end date (YYYY-MM-DD)")
		benchmark     = flag.String("benchmark", "", "optional benchmark ticker")
		rebalanceFlag = flag.String("rebalance", "", "rebalance period: Monthly, Quarterly or Annually")
		csvDir        = flag.String("csv", "", "directory of per-ticker CSV files; Yahoo Finance is used when empty")
		timeout       = flag.Duration("timeout", 30*time.Second, "provider timeout")
	)
	flag.Parse()

	assets, err := parseAssets(*tickersFlag)
	if err != nil {
		log.Fatal(err)
	}
	start, end, err := parseDates(*startFlag, *endFlag)
	if err != nil {
		log.Fatal(err)
	}
	rebalance, ok := types.ConvertRebalance[*rebalanceFlag]
	if !ok {
		log.Fatalf("unknown rebalance period %q", *rebalanceFlag)
	}
	if *investment <= 0 {
		log.Fatal("investment must be positive")
	}

	var provider marketdata.Provider
	if *csvDir != "" {
		provider = marketdata.NewCSVProvider(*csvDir)
	} else {
		provider = marketdata.NewYahooProvider(*timeout)
	}

	tickers := make([]string, 0, len(assets)+1)
	weights := make(map[string]float64, len(assets))
	for _, a := range assets {
		tickers = append(tickers, a.Ticker)
		weights[a.Ticker] = a.Weight
	}
	if *benchmark != "" && !containsTicker(assets, *benchmark) {
		tickers = append(tickers, *benchmark)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	table, err := provider.FetchCloses(ctx, tickers, start, end)
	if err != nil {
		log.Fatal(err)
	}

	portfolioTable, ok := table.Select(assetTickers(assets)...)
	if !ok {
		log.Fatal("no price data for one or more portfolio tickers")
	}

	bar := initProgressBar(portfolioTable.Len())
	eng := engine.NewEngine(engine.Config{
		OnDay: func(time.Time) { _ = bar.Add(1) },
	})

	result := eng.ComputePerformance(portfolioTable, decimal.NewFromFloat(*investment), weights, rebalance)
	_ = bar.Finish()
	fmt.Println()
	printResult("Portfolio", result)

	if *benchmark != "" {
		benchTable, ok := table.Select(*benchmark)
		if !ok {
			log.Printf("no price data for benchmark %s, skipping", *benchmark)
			return
		}
		bench := engine.NewEngine(engine.Config{}).
			ComputePerformance(benchTable, decimal.NewFromFloat(*investment), nil, types.RebalanceNone)
		printResult("Benchmark "+*benchmark, bench)
	}
}

func parseAssets(s string) ([]types.Asset, error) {
	if s == "" {
		return nil, fmt.Errorf("-tickers is required")
	}
	var assets []types.Asset
	sum := 0.0
	for _, pair := range strings.Split(s, ",") {
		ticker, weightStr, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found {
			return nil, fmt.Errorf("malformed ticker pair %q, want TICKER:WEIGHT", pair)
		}
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil || weight <= 0 || weight > 1 {
			return nil, fmt.Errorf("invalid weight %q for %s", weightStr, ticker)
		}
		assets = append(assets, types.Asset{Ticker: strings.ToUpper(ticker), Weight: weight})
		sum += weight
	}
	if math.Abs(sum-1) > types.WeightSumTolerance {
		return nil, fmt.Errorf("weights sum to %.4f, want 1", sum)
	}
	return assets, nil
}

func parseDates(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-start and -end are required")
	}
	start, err := time.ParseInLocation(dateLayout, startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

func assetTickers(assets []types.Asset) []string {
	tickers := make([]string, len(assets))
	for i, a := range assets {
		tickers[i] = a.Ticker
	}
	return tickers
}

func containsTicker(assets []types.Asset, ticker string) bool {
	for _, a := range assets {
		if a.Ticker == ticker {
			return true
		}
	}
	return false
}

func printResult(name string, r types.PerformanceResult) {
	fmt.Printf("===== %s =====\n", name)
	if len(r.Dates) > 0 {
		fmt.Printf("Period:            %s to %s (%d trading days)\n", r.Dates[0], r.Dates[len(r.Dates)-1], len(r.Dates))
	}
	fmt.Printf("Final Value:       %.2f\n", r.FinalValue)
	fmt.Printf("Total Return:      %.2f%%\n", r.TotalReturn*100)
	fmt.Printf("Annualized Return: %.2f%%\n", r.AnnualizedReturn*100)
	fmt.Printf("Max Drawdown:      %.2f%%\n", r.MaxDrawdown*100)
	if r.SharpeRatio != nil {
		fmt.Printf("Sharpe Ratio:      %.2f\n", *r.SharpeRatio)
	} else {
		fmt.Println("Sharpe Ratio:      n/a")
	}
	fmt.Println()
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
