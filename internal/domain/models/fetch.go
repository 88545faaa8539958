package models

// FetchOutcome tells callers apart success, an empty-but-valid answer and a failure.
type FetchOutcome string

const (
	OutcomeSuccess FetchOutcome = "success"
	OutcomeNoData  FetchOutcome = "no-data"
	OutcomeError   FetchOutcome = "error"
)

// FailureReason classifies a terminal fetch failure.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonTimeout     FailureReason = "timeout"
	ReasonFetchFailed FailureReason = "fetch-failed"
)

// FetchResult is what the price fetcher hands back; it never escapes as a Go error.
type FetchResult struct {
	Outcome  FetchOutcome
	Series   Series
	Latest   *Sample
	Reason   FailureReason
	Attempts int
	Fallback bool
	Err      error
}

// PeriodFetch is the result of one period-scoped fetch in a refresh cycle.
type PeriodFetch struct {
	Period Period
	Result FetchResult
}

// FetchBatch is the joined result of all period fetches in one cycle.
type FetchBatch struct {
	Periods []PeriodFetch
	Merged  Series
	Outcome FetchOutcome
	Err     error
}
