package interfaces

import "time"

// Summarizer renders session activity into CSV reports.
type Summarizer interface {
	// SummarizeDay aggregates one UTC day's fills into a CSV.
	//
	// Returns:
	//   - csvPath: path to the generated CSV, empty when there were no fills
	//   - error: read or write failure
	SummarizeDay(t time.Time) (csvPath string, err error)

	// SummarizeToday summarizes the current UTC day.
	SummarizeToday() (csvPath string, err error)
}
