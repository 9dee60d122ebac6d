// Package policy decides which failed orders are due for a retry attempt.
// The evaluator is a pure function of the provider-supplied history and
// the current time: there is no persisted "last retried" marker, the
// cooldown gate on the most recent failure is itself the de-duplication
// mechanism, so repeated runs over the same snapshot are safe.
package policy

import (
	"time"

	"github.com/uzmanim/payment-recon/internal/iyzico"
)

// DefaultCooldown is the minimum elapsed time since the last FAILED
// attempt before another retry may be triggered. Six hours caps retries
// at roughly four per day per order.
const DefaultCooldown = 6 * time.Hour

// Candidate identifies one order due for a retry attempt.
type Candidate struct {
	SubscriptionRef string
	CustomerEmail   string
	OrderRef        string
}

// Evaluator applies the cooldown policy to a subscription's order history.
type Evaluator struct {
	cooldown time.Duration
}

// NewEvaluator returns an Evaluator with the given cooldown window.
// A non-positive cooldown falls back to DefaultCooldown.
func NewEvaluator(cooldown time.Duration) Evaluator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return Evaluator{cooldown: cooldown}
}

// Cooldown returns the active cooldown window.
func (e Evaluator) Cooldown() time.Duration { return e.cooldown }

// Eligible returns the orders of sub that are due for a retry at now,
// in the order the provider returned them.
//
// An order qualifies iff its status is WAITING, it has at least one
// FAILED attempt, and the most recent FAILED attempt is at least the
// cooldown in the past. An order with no attempts at all is simply not
// eligible, never an error.
func (e Evaluator) Eligible(sub iyzico.Subscription, now time.Time) []Candidate {
	var out []Candidate
	for _, order := range sub.Orders {
		if order.OrderStatus != iyzico.OrderStatusWaiting {
			continue
		}
		last, ok := lastFailedAttempt(order)
		if !ok {
			continue
		}
		if now.Sub(last.CreatedAt()) >= e.cooldown {
			out = append(out, Candidate{
				SubscriptionRef: sub.ReferenceCode,
				CustomerEmail:   sub.CustomerEmail,
				OrderRef:        order.ReferenceCode,
			})
		}
	}
	return out
}

// lastFailedAttempt returns the FAILED attempt with the maximum
// CreatedDate, or ok=false when the order has no FAILED attempts.
func lastFailedAttempt(order iyzico.SubscriptionOrder) (iyzico.PaymentAttempt, bool) {
	var last iyzico.PaymentAttempt
	found := false
	for _, attempt := range order.PaymentAttempts {
		if attempt.PaymentStatus != iyzico.PaymentStatusFailed {
			continue
		}
		if !found || attempt.CreatedDate > last.CreatedDate {
			last = attempt
			found = true
		}
	}
	return last, found
}
