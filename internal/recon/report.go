package recon

// Report statuses.
const (
	StatusSuccess = "success"
	StatusDryRun  = "dry-run"

	// StatusTruncated marks a run whose pagination stopped early on a
	// listing failure after retries had already been executed.
	StatusTruncated = "truncated"
)

// RetryResult records one attempted (or, in dry-run mode, would-be) retry.
type RetryResult struct {
	SubscriptionRef string `json:"subscriptionRef"`
	CustomerEmail   string `json:"customerEmail"`
	OrderRef        string `json:"orderRef"`
	Success         bool   `json:"success"`
	Message         string `json:"message"`
}

// Summary aggregates one reconciliation pass. Candidates counts orders a
// dry run would have retried; the retry counters stay zero in that mode so
// dashboards never mistake an evaluation pass for executed charges.
type Summary struct {
	UnpaidSubscriptions int `json:"unpaidSubscriptions"`
	TotalRetries        int `json:"totalRetries"`
	Successful          int `json:"successful"`
	Failed              int `json:"failed"`
	Candidates          int `json:"candidates,omitempty"`
}

// Report is the sole output artifact of a run. failed > 0 is an expected,
// non-exceptional outcome; repeated payment failures are normal operation
// in this domain. Error is set only on truncated runs and carries the
// listing failure that stopped pagination.
type Report struct {
	Status  string        `json:"status"`
	Summary Summary       `json:"summary"`
	Results []RetryResult `json:"results"`
	Error   string        `json:"error,omitempty"`
}
