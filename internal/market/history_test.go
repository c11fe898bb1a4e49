package market

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

func point(symbol string, mid float64, offset int) types.PricePoint {
	return types.PricePoint{
		Symbol: symbol,
		Ts:     time.Unix(1700000000+int64(offset)*30, 0),
		Mid:    mid,
	}
}

func TestRecordRejectsNonPositivePrice(t *testing.T) {
	h := NewHistory(10)

	if err := h.Record(point("🍌", 0, 0)); !errors.Is(err, ErrBadPrice) {
		t.Fatalf("expected ErrBadPrice for zero mid, got %v", err)
	}
	if err := h.Record(point("🍌", -4.2, 0)); !errors.Is(err, ErrBadPrice) {
		t.Fatalf("expected ErrBadPrice for negative mid, got %v", err)
	}
	if h.Len("🍌") != 0 {
		t.Errorf("rejected points must not be stored, got len %d", h.Len("🍌"))
	}
}

func TestSnapshotIsNewestFirst(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 4; i++ {
		if err := h.Record(point("💎", 100+float64(i), i)); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	snap := h.Snapshot("💎")
	if len(snap) != 4 {
		t.Fatalf("expected 4 points, got %d", len(snap))
	}
	if snap[0].Mid != 103 || snap[3].Mid != 100 {
		t.Errorf("expected newest-first order, got %.0f .. %.0f", snap[0].Mid, snap[3].Mid)
	}
}

func TestBufferKeepsOnlyNewestPoints(t *testing.T) {
	h := NewHistory(50)
	for i := 0; i < 57; i++ {
		if err := h.Record(point("🚀", float64(i+1), i)); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	if got := h.Len("🚀"); got != 50 {
		t.Fatalf("expected buffer capped at 50, got %d", got)
	}
	snap := h.Snapshot("🚀")
	if snap[0].Mid != 57 {
		t.Errorf("expected newest point 57, got %.0f", snap[0].Mid)
	}
	if snap[len(snap)-1].Mid != 8 {
		t.Errorf("expected oldest surviving point 8, got %.0f", snap[len(snap)-1].Mid)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	h := NewHistory(5)
	if err := h.Record(point("🍌", 10, 0)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	snap := h.Snapshot("🍌")
	snap[0].Mid = 999

	latest, ok := h.Latest("🍌")
	if !ok || latest.Mid != 10 {
		t.Errorf("mutating a snapshot must not touch the buffer, latest %.0f", latest.Mid)
	}
}

func TestAtIndexesFromNewest(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 5; i++ {
		_ = h.Record(point("🍌", 10+float64(i), i))
	}

	newest, ok := h.At("🍌", 0)
	if !ok || newest.Mid != 14 {
		t.Fatalf("expected At(0) = newest 14, got %.0f ok=%v", newest.Mid, ok)
	}
	oldest, ok := h.At("🍌", 4)
	if !ok || oldest.Mid != 10 {
		t.Fatalf("expected At(4) = oldest 10, got %.0f ok=%v", oldest.Mid, ok)
	}
	if _, ok := h.At("🍌", 5); ok {
		t.Error("expected no value past the oldest point")
	}
	if _, ok := h.At("🍌", -1); ok {
		t.Error("expected no value for negative index")
	}
	if _, ok := h.At("👻", 0); ok {
		t.Error("expected no value for unknown symbol")
	}
}

func TestLatestAndSymbols(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Latest("🍌"); ok {
		t.Fatal("expected no latest point for unknown symbol")
	}

	_ = h.Record(point("🍌", 10, 0))
	_ = h.Record(point("🍌", 11, 1))
	_ = h.Record(point("💎", 200, 0))

	latest, ok := h.Latest("🍌")
	if !ok || latest.Mid != 11 {
		t.Fatalf("expected latest 11, got %.0f ok=%v", latest.Mid, ok)
	}
	if got := len(h.Symbols()); got != 2 {
		t.Errorf("expected 2 symbols, got %d", got)
	}
}

func TestConcurrentRecordAndSnapshot(t *testing.T) {
	h := NewHistory(50)
	symbols := []string{"🍌", "💎", "🚀"}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				sym := symbols[i%len(symbols)]
				if err := h.Record(point(sym, float64(i+1), i)); err != nil {
					t.Errorf("writer %d: %v", w, err)
					return
				}
				_ = h.Snapshot(sym)
			}
		}(w)
	}
	wg.Wait()

	for _, sym := range symbols {
		if got := h.Len(sym); got > 50 {
			t.Errorf("%s buffer overflowed cap: %d", sym, got)
		}
		for i, p := range h.Snapshot(sym) {
			if p.Mid <= 0 {
				t.Fatalf("corrupt point %d slipped in: %v", i, p)
			}
		}
	}
}
