// Package recon orchestrates a reconciliation pass: list UNPAID
// subscriptions, evaluate the cooldown policy, trigger retries, and
// aggregate the outcome into a report.
package recon

import (
	"context"
	"log"
	"time"

	"github.com/uzmanim/payment-recon/internal/iyzico"
	"github.com/uzmanim/payment-recon/internal/policy"
)

// SubscriptionLister fetches pages of UNPAID subscriptions.
type SubscriptionLister interface {
	ListUnpaidSubscriptions(ctx context.Context, page, count int) (*iyzico.SubscriptionPage, error)
}

// OrderRetrier triggers the provider's retry operation for one order.
type OrderRetrier interface {
	RetryOrderPayment(ctx context.Context, orderReferenceCode string) iyzico.RetryOutcome
}

// RunnerConfig groups the Runner's collaborators and knobs.
type RunnerConfig struct {
	Lister    SubscriptionLister
	Retrier   OrderRetrier
	Evaluator policy.Evaluator
	PageSize  int
	MaxPages  int

	// DryRun evaluates eligibility but skips the retry calls.
	DryRun bool
}

// Runner executes reconciliation passes.
type Runner struct {
	cfg     RunnerConfig
	nowFunc func() time.Time
}

// NewRunner creates a Runner. Zero PageSize/MaxPages get sane bounds.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Runner{cfg: cfg, nowFunc: time.Now}
}

// Run performs one reconciliation pass. It fails only if the subscription
// listing itself cannot be obtained; once the list is in hand, per-order
// failures are captured in the report and the pass continues.
//
// Subscriptions are processed in provider order, orders within a
// subscription likewise, and retries run strictly sequentially, one
// round-trip at a time. The provider is a rate-limited third party,
// concurrent retries against the same merchant account are not worth the
// audit headache.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	now := r.nowFunc()
	report := &Report{
		Status:  StatusSuccess,
		Results: make([]RetryResult, 0),
	}
	if r.cfg.DryRun {
		report.Status = StatusDryRun
	}

	for page := 1; page <= r.cfg.MaxPages; page++ {
		pg, err := r.cfg.Lister.ListUnpaidSubscriptions(ctx, page, r.cfg.PageSize)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			// Retries already ran against earlier pages and this report
			// is their only audit record. Keep it, mark the run
			// truncated, and stop paginating.
			report.Status = StatusTruncated
			report.Error = err.Error()
			log.Printf("[runner] listing page %d failed, truncating run: %v", page, err)
			break
		}
		log.Printf("[runner] page=%d unpaid_subscriptions=%d", page, len(pg.Items))

		for _, sub := range pg.Items {
			report.Summary.UnpaidSubscriptions++
			for _, candidate := range r.cfg.Evaluator.Eligible(sub, now) {
				report.addResult(r.retryOne(ctx, candidate), r.cfg.DryRun)
			}
		}

		if len(pg.Items) < r.cfg.PageSize {
			break
		}
		if pg.PageCount > 0 && pg.CurrentPage >= pg.PageCount {
			break
		}
	}

	log.Printf("[runner] done unpaid=%d retries=%d ok=%d failed=%d",
		report.Summary.UnpaidSubscriptions, report.Summary.TotalRetries,
		report.Summary.Successful, report.Summary.Failed)
	return report, nil
}

func (r *Runner) retryOne(ctx context.Context, c policy.Candidate) RetryResult {
	result := RetryResult{
		SubscriptionRef: c.SubscriptionRef,
		CustomerEmail:   c.CustomerEmail,
		OrderRef:        c.OrderRef,
	}

	if r.cfg.DryRun {
		result.Success = true
		result.Message = "eligible for retry (dry run, not executed)"
		return result
	}

	outcome := r.cfg.Retrier.RetryOrderPayment(ctx, c.OrderRef)
	result.Success = outcome.Ok
	result.Message = outcome.Message
	log.Printf("[runner] retry subscription=%s order=%s ok=%v", c.SubscriptionRef, c.OrderRef, outcome.Ok)
	return result
}

func (rep *Report) addResult(res RetryResult, dryRun bool) {
	rep.Results = append(rep.Results, res)
	if dryRun {
		// nothing was charged; count the would-be retries separately
		rep.Summary.Candidates++
		return
	}
	rep.Summary.TotalRetries++
	if res.Success {
		rep.Summary.Successful++
	} else {
		rep.Summary.Failed++
	}
}
