package marketdata

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"stratfolio/types"
)

// CSVProvider reads daily bars from <dir>/<SYMBOL>.csv files with a
// date,open,high,low,close,volume layout. Exports from spreadsheet
// tools are sometimes UTF-16; a BOM is detected and decoded.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	bars, err := p.readFile(symbol)
	if err != nil {
		return nil, err
	}

	var out []types.Bar
	for _, b := range bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (p *CSVProvider) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (types.PriceTable, error) {
	bySymbol := make(map[string]map[string]decimal.Decimal, len(symbols))
	dateSet := make(map[string]time.Time)

	for _, symbol := range symbols {
		bars, err := p.FetchDailyBars(ctx, symbol, start, end)
		if err != nil {
			return types.PriceTable{}, err
		}
		s := make(map[string]decimal.Decimal, len(bars))
		for _, b := range bars {
			key := b.Date.Format("2006-01-02")
			s[key] = b.Close
			dateSet[key] = b.Date
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

func (p *CSVProvider) readFile(symbol string) ([]types.Bar, error) {
	path := filepath.Join(p.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolMissing)
		}
		return nil, err
	}
	defer f.Close()
	return parseBarCSV(f)
}

func parseBarCSV(f io.ReadSeeker) ([]types.Bar, error) {
	br := bufio.NewReader(f)
	// Detect a UTF-16 BOM; if present, decode to UTF-8.
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		tr := transform.NewReader(f, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		br = bufio.NewReader(tr)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var bars []types.Bar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 6 {
			continue
		}
		dateStr := strings.TrimSpace(strings.TrimPrefix(rec[0], "\uFEFF"))
		if strings.EqualFold(dateStr, "date") {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			continue
		}
		fields := make([]decimal.Decimal, 5)
		ok := true
		for i := 0; i < 5; i++ {
			d, err := decimal.NewFromString(strings.TrimSpace(rec[i+1]))
			if err != nil {
				ok = false
				break
			}
			fields[i] = d
		}
		if !ok {
			continue
		}
		bars = append(bars, types.Bar{
			Date:   date,
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}
