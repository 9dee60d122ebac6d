package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/uzmanim/payment-recon/internal/awsx"
	"github.com/uzmanim/payment-recon/internal/config"
	"github.com/uzmanim/payment-recon/internal/iyzico"
	"github.com/uzmanim/payment-recon/internal/policy"
	"github.com/uzmanim/payment-recon/internal/recon"
	"github.com/uzmanim/payment-recon/internal/reports"
)

// Processor runs one reconciliation pass per scheduler tick and fans the
// report out to the audit store, the notification queue and CloudWatch.
type Processor struct {
	cfg       *config.Config
	runner    *recon.Runner
	store     *reports.Store
	publisher *awsx.RunPublisher
	metrics   *awsx.MetricsEmitter
}

// NewProcessor wires a Processor from configuration and AWS clients.
func NewProcessor(cfg *config.Config, clients *awsx.Clients) *Processor {
	signer := iyzico.NewSigner(cfg.APIKey, cfg.SecretKey)
	client := iyzico.NewClient(cfg.BaseURL, signer, cfg.HTTPTimeout)

	p := &Processor{
		cfg: cfg,
		runner: recon.NewRunner(recon.RunnerConfig{
			Lister:    client,
			Retrier:   client,
			Evaluator: policy.NewEvaluator(cfg.RetryCooldown),
			PageSize:  cfg.PageSize,
			MaxPages:  cfg.MaxPages,
		}),
	}
	if cfg.ReportsTable != "" {
		p.store = reports.NewStore(clients.DynamoDB, cfg.ReportsTable, cfg.ReportTTL)
	}
	if cfg.QueueURL != "" {
		p.publisher = awsx.NewRunPublisher(clients.SQS, cfg.QueueURL)
	}
	p.metrics = awsx.NewMetricsEmitter(clients.CloudWatch)
	return p
}

// Handle receives a scheduled event and executes a reconciliation pass.
// A failed listing is returned as an error so the Lambda runtime records
// the invocation as failed; per-order failures are inside the report.
func (p *Processor) Handle(ctx context.Context, ev events.CloudWatchEvent) error {
	log.Printf("[scheduler] tick source=%s time=%s", ev.Source, ev.Time.Format(time.RFC3339))

	startedAt := time.Now().UTC()
	report, err := p.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation run failed: %w", err)
	}

	// only advertise a run ID that was actually persisted; consumers
	// would otherwise look up a record that does not exist
	runID := ""
	if p.store != nil {
		id := uuid.NewString()
		rec := reports.RunRecord{
			RunID:      id,
			Status:     report.Status,
			Report:     *report,
			StartedAt:  startedAt,
			FinishedAt: time.Now().UTC(),
		}
		if err := p.store.Save(ctx, rec); err != nil {
			// the run itself succeeded; log and keep going
			log.Printf("[scheduler] save run record failed: %v", err)
		} else {
			runID = id
		}
	}

	if p.publisher != nil {
		if err := p.publisher.NotifyRunCompleted(ctx, runID, report); err != nil {
			log.Printf("[scheduler] run notification failed: %v", err)
		}
	}
	if err := p.metrics.EmitRunSummary(ctx, report.Summary); err != nil {
		log.Printf("[scheduler] emit metrics failed: %v", err)
	}

	log.Printf("[scheduler] run=%s unpaid=%d retries=%d ok=%d failed=%d",
		runID, report.Summary.UnpaidSubscriptions, report.Summary.TotalRetries,
		report.Summary.Successful, report.Summary.Failed)
	return nil
}
