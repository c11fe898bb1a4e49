// Package ta holds the pure signal math. Nothing here keeps state; the
// engine feeds it history snapshots and acts on what comes back.
package ta

import (
	"fmt"
	"math"

	"github.com/oysmal/emoji-stock-trader/internal/types"
)

// Degraded-data policies for windows shorter than the configured lookback.
const (
	PolicySkip   = "SKIP"   // produce no signal until the window is full
	PolicyShrink = "SHRINK" // compare against the oldest available sample at reduced confidence
)

// Params tunes signal generation. Threshold is the minimum absolute momentum
// that yields a signal, Lookback the number of samples between the reference
// and the newest point, MinSamples the floor below which even PolicyShrink
// stays quiet.
type Params struct {
	Threshold  float64
	Lookback   int
	MinSamples int
	Policy     string
}

// Momentum returns the fractional change from old to current. A non-positive
// reference or negative current price cannot come from real quotes, so it is
// reported as an error rather than silently turned into NaN or garbage.
func Momentum(current, old float64) (float64, error) {
	if old <= 0 {
		return 0, fmt.Errorf("ta: reference price %.4f is not positive", old)
	}
	if current < 0 {
		return 0, fmt.Errorf("ta: current price %.4f is negative", current)
	}
	return (current - old) / old, nil
}

// Evaluate derives a directional signal from a newest-first window of price
// points, or nil when the window gives no reason to act. Short windows follow
// the configured policy: PolicySkip stays quiet, PolicyShrink compares the
// newest point against the oldest available one and scales confidence by the
// fraction of the full lookback actually covered.
func Evaluate(points []types.PricePoint, p Params) (*types.TradingSignal, error) {
	if len(points) == 0 {
		return nil, nil
	}
	lookback := p.Lookback
	if lookback < 1 {
		lookback = 1
	}

	span := lookback
	scale := 1.0
	if len(points) <= lookback {
		if p.Policy != PolicyShrink {
			return nil, nil
		}
		if len(points) < p.MinSamples || len(points) < 2 {
			return nil, nil
		}
		span = len(points) - 1
		scale = float64(span) / float64(lookback)
	}

	newest := points[0]
	ref := points[span]
	m, err := Momentum(newest.Mid, ref.Mid)
	if err != nil {
		return nil, fmt.Errorf("ta: %s window corrupt: %w", newest.Symbol, err)
	}
	if math.Abs(m) < p.Threshold {
		return nil, nil
	}

	side := types.SideBuy
	if m < 0 {
		side = types.SideSell
	}
	reason := fmt.Sprintf("momentum %+.4f over %d samples", m, span)
	if scale < 1 {
		reason = fmt.Sprintf("momentum %+.4f over short window of %d samples", m, span)
	}
	return &types.TradingSignal{
		Symbol:     newest.Symbol,
		Side:       side,
		Confidence: math.Abs(m) * scale,
		Reason:     reason,
	}, nil
}
