// Package reportobs wraps a Summarizer with tracing and logging.
package reportobs

import (
	"context"
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
	"github.com/oysmal/emoji-stock-trader/internal/logger"
	"github.com/oysmal/emoji-stock-trader/internal/trace"
)

type observableSummarizer struct {
	summarizer interfaces.Summarizer
}

var _ interfaces.Summarizer = (*observableSummarizer)(nil)

func Wrap(s interfaces.Summarizer) interfaces.Summarizer {
	return &observableSummarizer{summarizer: s}
}

func (obs *observableSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "report.SummarizeDay")
	defer span.End()

	csvPath, err := obs.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Session report failed", err,
			"date", t.UTC().Format("2006-01-02"),
		)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No fills to report",
			"date", t.UTC().Format("2006-01-02"),
		)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "Session report written",
		"date", t.UTC().Format("2006-01-02"),
		"csv_path", csvPath,
	)
	return csvPath, nil
}

func (obs *observableSummarizer) SummarizeToday() (string, error) {
	return obs.SummarizeDay(time.Now().UTC())
}
