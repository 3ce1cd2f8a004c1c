package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stratfolio/types"
)

const yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

var yahooHosts = []string{"query1.finance.yahoo.com", "query2.finance.yahoo.com"}

var yahooBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second}

type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				Adjclose []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches daily bars from the Yahoo Finance v8 chart
// API. Requests rotate across both query hosts with a short backoff
// before giving up.
type YahooProvider struct {
	client *http.Client
}

func NewYahooProvider(timeout time.Duration) *YahooProvider {
	return &YahooProvider{client: &http.Client{Timeout: timeout}}
}

func (p *YahooProvider) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	yc, err := p.fetchChart(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	ts := yc.Chart.Result[0].Timestamp
	quote := yc.Chart.Result[0].Indicators.Quote[0]

	var bars []types.Bar
	for i := range ts {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		o, h, l, c := quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i]
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		bars = append(bars, types.Bar{
			Date:   dayOf(ts[i]),
			Open:   decimal.NewFromFloat(*o),
			High:   decimal.NewFromFloat(*h),
			Low:    decimal.NewFromFloat(*l),
			Close:  decimal.NewFromFloat(*c),
			Volume: decimal.NewFromInt(vol),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (p *YahooProvider) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (types.PriceTable, error) {
	type series map[string]decimal.Decimal // keyed by date string

	bySymbol := make(map[string]series, len(symbols))
	dateSet := make(map[string]time.Time)

	for _, symbol := range symbols {
		yc, err := p.fetchChart(ctx, symbol, start, end)
		if err != nil {
			return types.PriceTable{}, fmt.Errorf("%s: %w", symbol, err)
		}

		result := yc.Chart.Result[0]
		closes := result.Indicators.Quote[0].Close
		// Adjusted closes are the canonical price field when present.
		if adj := result.Indicators.Adjclose; len(adj) > 0 && len(adj[0].Adjclose) == len(result.Timestamp) {
			closes = adj[0].Adjclose
		}

		s := make(series, len(result.Timestamp))
		for i, ts := range result.Timestamp {
			if i >= len(closes) || closes[i] == nil {
				continue
			}
			day := dayOf(ts)
			key := day.Format("2006-01-02")
			s[key] = decimal.NewFromFloat(*closes[i])
			dateSet[key] = day
		}
		if len(s) == 0 {
			return types.PriceTable{}, fmt.Errorf("%s: %w", symbol, ErrSymbolMissing)
		}
		bySymbol[symbol] = s
	}

	if len(dateSet) == 0 {
		return types.PriceTable{}, ErrNoData
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := types.PriceTable{
		Dates:   dates,
		Columns: make(map[string][]decimal.NullDecimal, len(bySymbol)),
	}
	for symbol, s := range bySymbol {
		col := make([]decimal.NullDecimal, len(dates))
		for i, d := range dates {
			if price, ok := s[d.Format("2006-01-02")]; ok {
				col[i] = decimal.NullDecimal{Decimal: price, Valid: true}
			}
		}
		table.Columns[symbol] = col
	}
	return table, nil
}

// fetchChart retrieves a validated chart payload for one symbol,
// trying both hosts per attempt before backing off.
func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, start, end time.Time) (*yahooChartResp, error) {
	var lastErr error
	for attempt := 0; attempt < len(yahooBackoffs)+1; attempt++ {
		for _, host := range yahooHosts {
			yc, err := p.fetchChartFromHost(ctx, host, symbol, start, end)
			if err != nil {
				lastErr = err
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				continue
			}
			return yc, nil
		}
		if attempt < len(yahooBackoffs) {
			select {
			case <-time.After(yahooBackoffs[attempt]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func (p *YahooProvider) fetchChartFromHost(ctx context.Context, host, symbol string, start, end time.Time) (*yahooChartResp, error) {
	url := fmt.Sprintf("https://%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplits",
		host, symbol, start.Unix(), end.Unix())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read yahoo response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo %s returned 429", host)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolMissing)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, bodyPreview(body))
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", bodyPreview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		return nil, fmt.Errorf("parse yahoo json: %w", err)
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return &yc, nil
}

func bodyPreview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// dayOf collapses a bar timestamp to its UTC calendar day.
func dayOf(ts int64) time.Time {
	y, m, d := time.Unix(ts, 0).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
