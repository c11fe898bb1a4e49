package ta

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

func TestMomentumExact(t *testing.T) {
	cases := []struct {
		current, old, want float64
	}{
		{103, 100, 0.03},
		{97, 100, -0.03},
		{100, 100, 0},
		{0, 50, -1},
		{205.5, 200, 0.0275},
	}
	for _, c := range cases {
		got, err := Momentum(c.current, c.old)
		if err != nil {
			t.Fatalf("Momentum(%v, %v) failed: %v", c.current, c.old, err)
		}
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Momentum(%v, %v) = %v, want %v", c.current, c.old, got, c.want)
		}
	}
}

func TestMomentumRejectsCorruptPrices(t *testing.T) {
	if _, err := Momentum(100, 0); err == nil {
		t.Error("expected error for zero reference price")
	}
	if _, err := Momentum(100, -5); err == nil {
		t.Error("expected error for negative reference price")
	}
	if _, err := Momentum(-1, 100); err == nil {
		t.Error("expected error for negative current price")
	}
}

// window builds a newest-first window whose oldest sample is old and newest
// is current, with the in-between samples interpolated.
func window(symbol string, n int, old, current float64) []types.PricePoint {
	points := make([]types.PricePoint, n)
	for i := 0; i < n; i++ {
		frac := float64(n-1-i) / float64(n-1)
		points[i] = types.PricePoint{
			Symbol: symbol,
			Ts:     time.Unix(1700000000-int64(i)*30, 0),
			Mid:    old + (current-old)*frac,
		}
	}
	return points
}

func defaultParams() Params {
	return Params{Threshold: 0.01, Lookback: 10, MinSamples: 2, Policy: PolicySkip}
}

func TestEvaluateBuySignal(t *testing.T) {
	points := window("🍌", 11, 100, 103)
	sig, err := Evaluate(points, defaultParams())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sig == nil {
		t.Fatal("expected a signal for a 3% rise")
	}
	if sig.Side != types.SideBuy {
		t.Errorf("expected BUY, got %s", sig.Side)
	}
	if math.Abs(sig.Confidence-0.03) > 1e-9 {
		t.Errorf("expected confidence ~0.03, got %v", sig.Confidence)
	}
	if sig.Symbol != "🍌" {
		t.Errorf("expected symbol carried through, got %q", sig.Symbol)
	}
}

func TestEvaluateSellSignal(t *testing.T) {
	points := window("💎", 11, 100, 97)
	sig, err := Evaluate(points, defaultParams())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sig == nil || sig.Side != types.SideSell {
		t.Fatalf("expected SELL signal for a 3%% drop, got %+v", sig)
	}
	if math.Abs(sig.Confidence-0.03) > 1e-9 {
		t.Errorf("expected confidence ~0.03, got %v", sig.Confidence)
	}
}

func TestEvaluateQuietBelowThreshold(t *testing.T) {
	points := window("🚀", 11, 100, 100.5)
	sig, err := Evaluate(points, defaultParams())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sig != nil {
		t.Fatalf("expected no signal for a 0.5%% move, got %+v", sig)
	}
}

func TestEvaluateSkipPolicyStaysQuietOnShortWindow(t *testing.T) {
	points := window("🍌", 5, 100, 110)
	sig, err := Evaluate(points, defaultParams())
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sig != nil {
		t.Fatalf("expected SKIP policy to suppress short-window signal, got %+v", sig)
	}
}

func TestEvaluateShrinkPolicyReducesConfidence(t *testing.T) {
	p := defaultParams()
	p.Policy = PolicyShrink

	points := window("🍌", 5, 100, 103)
	sig, err := Evaluate(points, p)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sig == nil || sig.Side != types.SideBuy {
		t.Fatalf("expected BUY from shrunk window, got %+v", sig)
	}
	want := 0.03 * 4.0 / 10.0
	if math.Abs(sig.Confidence-want) > 1e-9 {
		t.Errorf("expected scaled confidence %v, got %v", want, sig.Confidence)
	}
	if !strings.Contains(sig.Reason, "short window") {
		t.Errorf("expected reason to mark the short window, got %q", sig.Reason)
	}
}

func TestEvaluateShrinkPolicyNeedsMinSamples(t *testing.T) {
	p := defaultParams()
	p.Policy = PolicyShrink
	p.MinSamples = 3

	points := window("🍌", 2, 100, 110)
	sig, err := Evaluate(points, p)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if sig != nil {
		t.Fatalf("expected no signal below min samples, got %+v", sig)
	}
}

func TestEvaluateEmptyWindow(t *testing.T) {
	sig, err := Evaluate(nil, defaultParams())
	if err != nil || sig != nil {
		t.Fatalf("expected quiet nil result for empty window, got %+v %v", sig, err)
	}
}

func TestEvaluateCorruptReferencePrice(t *testing.T) {
	points := window("🍌", 11, 100, 103)
	points[10].Mid = 0
	if _, err := Evaluate(points, defaultParams()); err == nil {
		t.Fatal("expected data error for corrupt reference price")
	}
}
