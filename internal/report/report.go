// Package report renders a per-symbol CSV summary of a session's fills.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type fillLine struct {
	Time, FillID, OrderID, Symbol, Side string
	Qty                                 int64
	Price                               float64
	Seq                                 int64
}

type aggRow struct {
	Symbol      string
	BuyQty      int64
	BuyValue    float64
	SellQty     int64
	SellValue   float64
	RealizedPnL float64
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func fillsFile(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "fills", d+".txt")
}

func reportCSVPath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(logDir(), "report", d+".csv")
}

// summarizer is the file-backed Summarizer over the daily fill logs.
type summarizer struct{}

// SummarizeDay aggregates the day's fills into a CSV and returns its path.
// No fills means no report and no error.
func (s *summarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := fillsFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var fl fillLine
		if err := json.Unmarshal(sc.Bytes(), &fl); err != nil {
			continue
		}
		row := aggs[fl.Symbol]
		if row == nil {
			row = &aggRow{Symbol: fl.Symbol}
			aggs[fl.Symbol] = row
		}
		switch fl.Side {
		case "BUY":
			row.BuyQty += fl.Qty
			row.BuyValue += float64(fl.Qty) * fl.Price
		case "SELL":
			row.SellQty += fl.Qty
			row.SellValue += float64(fl.Qty) * fl.Price
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := reportCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"symbol", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var totalBuy, totalSell, totalPnL float64
	for _, k := range keys {
		r := aggs[k]
		var buyAvg, sellAvg float64
		if r.BuyQty > 0 {
			buyAvg = r.BuyValue / float64(r.BuyQty)
		}
		if r.SellQty > 0 {
			sellAvg = r.SellValue / float64(r.SellQty)
		}
		matched := r.BuyQty
		if r.SellQty < matched {
			matched = r.SellQty
		}
		r.RealizedPnL = float64(matched) * (sellAvg - buyAvg)
		rec := []string{
			r.Symbol,
			strconv.FormatInt(r.BuyQty, 10),
			fmt.Sprintf("%.4f", buyAvg),
			strconv.FormatInt(r.SellQty, 10),
			fmt.Sprintf("%.4f", sellAvg),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", r.BuyValue),
			fmt.Sprintf("%.2f", r.SellValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyValue
		totalSell += r.SellValue
		totalPnL += r.RealizedPnL
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", totalBuy), fmt.Sprintf("%.2f", totalSell)})
	return outPath, nil
}

// SummarizeToday summarizes the current UTC day.
func (s *summarizer) SummarizeToday() (string, error) { return s.SummarizeDay(time.Now().UTC()) }
