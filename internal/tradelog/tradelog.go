// Package tradelog appends session activity to daily JSONL files so a run
// can be audited after the fact. Writes are best-effort; the engine never
// blocks trading on log I/O errors.
package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var mu sync.Mutex

// OrderEntry records a submitted order.
type OrderEntry struct {
	Time, Symbol, Side, OrderID, Reason string
	Qty                                 int64
	LimitPrice                          float64
	Confidence                          float64
	Extra                               map[string]any `json:"extra,omitempty"`
}

// SignalEntry records a decision-cycle signal, acted on or not.
type SignalEntry struct {
	Time, Symbol, Side, Reason string
	Confidence                 float64
	Acted                      bool
}

// FillEntry records an observed fill.
type FillEntry struct {
	Time, FillID, OrderID, Symbol, Side string
	Qty                                 int64
	Price                               float64
	Seq                                 int64
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time, sub string) string {
	d := t.UTC().Format("2006-01-02")
	if sub == "" {
		return filepath.Join(logDir(), d+".txt")
	}
	return filepath.Join(logDir(), sub, d+".txt")
}

func appendLine(sub string, v any) error {
	mu.Lock()
	defer mu.Unlock()
	p := dailyFilepath(time.Now(), sub)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func stamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

// AppendOrder writes an order record to the daily order log.
func AppendOrder(e OrderEntry) error {
	e.Time = stamp()
	return appendLine("", e)
}

// AppendSignal writes a signal record to the daily signal log.
func AppendSignal(e SignalEntry) error {
	e.Time = stamp()
	return appendLine("signals", e)
}

// AppendFill writes a fill record to the daily fill log.
func AppendFill(e FillEntry) error {
	e.Time = stamp()
	return appendLine("fills", e)
}

// CompressOlder gzips log files older than retentionDays and removes the
// originals. A non-positive retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original .txt
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
