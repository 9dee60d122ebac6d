package reports

import (
	"time"

	"github.com/uzmanim/payment-recon/internal/recon"
)

// RunRecord is the shape persisted in the reconciliation-runs DynamoDB
// table. One record per finished run; TTL'd so the audit trail does not
// grow without bound.
type RunRecord struct {
	RunID      string       `dynamodbav:"run_id"` // PK
	Status     string       `dynamodbav:"status"`
	Report     recon.Report `dynamodbav:"report"`
	StartedAt  time.Time    `dynamodbav:"started_at"`
	FinishedAt time.Time    `dynamodbav:"finished_at"`
	ExpiresAt  int64        `dynamodbav:"expires_at"` // TTL epoch seconds
}
