package report

import (
	"time"

	"github.com/oysmal/emoji-stock-trader/internal/interfaces"
)

var defaultSummarizer interfaces.Summarizer = &summarizer{}

// SetDefaultSummarizer swaps the package default, usually for one wrapped
// with observability.
func SetDefaultSummarizer(s interfaces.Summarizer) {
	defaultSummarizer = s
}

// NewSummarizer creates the plain file-backed summarizer.
func NewSummarizer() interfaces.Summarizer {
	return &summarizer{}
}

// SummarizeDay summarizes one day through the package default.
func SummarizeDay(t time.Time) (string, error) {
	return defaultSummarizer.SummarizeDay(t)
}

// SummarizeToday summarizes the current UTC day through the package default.
func SummarizeToday() (string, error) {
	return defaultSummarizer.SummarizeToday()
}
