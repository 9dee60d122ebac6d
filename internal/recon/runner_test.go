package recon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzmanim/payment-recon/internal/iyzico"
	"github.com/uzmanim/payment-recon/internal/policy"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeLister serves canned pages keyed by page number. err applies to
// every call unless errOnPage pins it to a single page.
type fakeLister struct {
	pages     map[int]*iyzico.SubscriptionPage
	err       error
	errOnPage int
	calls     int
}

func (f *fakeLister) ListUnpaidSubscriptions(ctx context.Context, page, count int) (*iyzico.SubscriptionPage, error) {
	f.calls++
	if f.err != nil && (f.errOnPage == 0 || f.errOnPage == page) {
		return nil, f.err
	}
	if pg, ok := f.pages[page]; ok {
		return pg, nil
	}
	return &iyzico.SubscriptionPage{Items: []iyzico.Subscription{}}, nil
}

// fakeRetrier returns a scripted outcome per order and records call order.
type fakeRetrier struct {
	outcomes map[string]iyzico.RetryOutcome
	calls    []string
}

func (f *fakeRetrier) RetryOrderPayment(ctx context.Context, orderRef string) iyzico.RetryOutcome {
	f.calls = append(f.calls, orderRef)
	if o, ok := f.outcomes[orderRef]; ok {
		return o
	}
	return iyzico.RetryOutcome{Ok: true, Message: "retry accepted"}
}

func waitingOrder(ref string, failedAgo time.Duration) iyzico.SubscriptionOrder {
	return iyzico.SubscriptionOrder{
		ReferenceCode: ref,
		OrderStatus:   iyzico.OrderStatusWaiting,
		PaymentAttempts: []iyzico.PaymentAttempt{
			{PaymentStatus: iyzico.PaymentStatusFailed, CreatedDate: testNow.Add(-failedAgo).UnixMilli()},
		},
	}
}

func unpaidSubscription(ref string, orders ...iyzico.SubscriptionOrder) iyzico.Subscription {
	return iyzico.Subscription{
		ReferenceCode:      ref,
		CustomerEmail:      "patient@example.com",
		SubscriptionStatus: iyzico.SubscriptionStatusUnpaid,
		Orders:             orders,
	}
}

func newTestRunner(lister SubscriptionLister, retrier OrderRetrier, pageSize, maxPages int, dryRun bool) *Runner {
	r := NewRunner(RunnerConfig{
		Lister:    lister,
		Retrier:   retrier,
		Evaluator: policy.NewEvaluator(policy.DefaultCooldown),
		PageSize:  pageSize,
		MaxPages:  maxPages,
		DryRun:    dryRun,
	})
	r.nowFunc = func() time.Time { return testNow }
	return r
}

func TestRun_EndToEndSingleEligibleOrder(t *testing.T) {
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{
		1: {Items: []iyzico.Subscription{
			unpaidSubscription("SUB-1", waitingOrder("ORD-1", 7*time.Hour)),
		}, TotalCount: 1, CurrentPage: 1, PageCount: 1},
	}}
	retrier := &fakeRetrier{}

	report, err := newTestRunner(lister, retrier, 100, 10, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, Summary{UnpaidSubscriptions: 1, TotalRetries: 1, Successful: 1, Failed: 0}, report.Summary)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "SUB-1", report.Results[0].SubscriptionRef)
	assert.Equal(t, "ORD-1", report.Results[0].OrderRef)
	assert.True(t, report.Results[0].Success)
	assert.Equal(t, []string{"ORD-1"}, retrier.calls)
}

func TestRun_CooldownSkip(t *testing.T) {
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{
		1: {Items: []iyzico.Subscription{
			unpaidSubscription("SUB-1", waitingOrder("ORD-1", 2*time.Hour)),
		}},
	}}
	retrier := &fakeRetrier{}

	report, err := newTestRunner(lister, retrier, 100, 10, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{UnpaidSubscriptions: 1, TotalRetries: 0, Successful: 0, Failed: 0}, report.Summary)
	assert.Empty(t, report.Results)
	assert.Empty(t, retrier.calls)
}

// A failed retry in the middle must not stop the remaining orders.
func TestRun_PartialFailureIsolation(t *testing.T) {
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{
		1: {Items: []iyzico.Subscription{
			unpaidSubscription("SUB-1",
				waitingOrder("ORD-1", 7*time.Hour),
				waitingOrder("ORD-2", 8*time.Hour),
				waitingOrder("ORD-3", 9*time.Hour),
			),
		}},
	}}
	retrier := &fakeRetrier{outcomes: map[string]iyzico.RetryOutcome{
		"ORD-2": {Ok: false, Message: "retry call failed: connection reset"},
	}}

	report, err := newTestRunner(lister, retrier, 100, 10, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{UnpaidSubscriptions: 1, TotalRetries: 3, Successful: 2, Failed: 1}, report.Summary)
	require.Len(t, report.Results, 3)
	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "retry call failed: connection reset", report.Results[1].Message)
	assert.True(t, report.Results[2].Success)
	assert.Equal(t, []string{"ORD-1", "ORD-2", "ORD-3"}, retrier.calls)
}

func TestRun_ListingFailureIsFatal(t *testing.T) {
	lister := &fakeLister{err: &iyzico.ProviderQueryError{Op: "list", Message: "auth rejected"}}

	report, err := newTestRunner(lister, &fakeRetrier{}, 100, 10, false).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)

	var pqe *iyzico.ProviderQueryError
	require.ErrorAs(t, err, &pqe)
	assert.Equal(t, "auth rejected", pqe.Message)
}

// A listing failure on a later page must not throw away the audit record
// of retries the run already executed: the accumulated report comes back
// marked truncated instead of an error.
func TestRun_LaterPageFailureKeepsExecutedRetries(t *testing.T) {
	lister := &fakeLister{
		pages: map[int]*iyzico.SubscriptionPage{
			1: {Items: []iyzico.Subscription{
				unpaidSubscription("SUB-1", waitingOrder("ORD-1", 7*time.Hour)),
			}, CurrentPage: 1, PageCount: 3},
		},
		err:       &iyzico.ProviderQueryError{Op: "list", Message: "gateway timeout"},
		errOnPage: 2,
	}
	retrier := &fakeRetrier{}

	report, err := newTestRunner(lister, retrier, 1, 10, false).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, []string{"ORD-1"}, retrier.calls, "page-1 retry already happened")
	assert.Equal(t, StatusTruncated, report.Status)
	assert.Contains(t, report.Error, "gateway timeout")
	assert.Equal(t, Summary{UnpaidSubscriptions: 1, TotalRetries: 1, Successful: 1}, report.Summary)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "ORD-1", report.Results[0].OrderRef)
	assert.Equal(t, 2, lister.calls)
}

func TestRun_PaginatesUntilShortPage(t *testing.T) {
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{
		1: {Items: []iyzico.Subscription{
			unpaidSubscription("SUB-1", waitingOrder("ORD-1", 7*time.Hour)),
			unpaidSubscription("SUB-2"),
		}, CurrentPage: 1, PageCount: 2},
		2: {Items: []iyzico.Subscription{
			unpaidSubscription("SUB-3", waitingOrder("ORD-3", 10*time.Hour)),
		}, CurrentPage: 2, PageCount: 2},
	}}
	retrier := &fakeRetrier{}

	report, err := newTestRunner(lister, retrier, 2, 10, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, lister.calls)
	assert.Equal(t, Summary{UnpaidSubscriptions: 3, TotalRetries: 2, Successful: 2, Failed: 0}, report.Summary)
	assert.Equal(t, []string{"ORD-1", "ORD-3"}, retrier.calls)
}

func TestRun_MaxPagesCapsTheLoop(t *testing.T) {
	full := &iyzico.SubscriptionPage{Items: []iyzico.Subscription{
		unpaidSubscription("SUB-X"),
	}}
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{
		1: full, 2: full, 3: full, 4: full, 5: full,
	}}

	_, err := newTestRunner(lister, &fakeRetrier{}, 1, 3, false).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, lister.calls)
}

func TestRun_DryRunSkipsRetryCalls(t *testing.T) {
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{
		1: {Items: []iyzico.Subscription{
			unpaidSubscription("SUB-1", waitingOrder("ORD-1", 7*time.Hour)),
		}},
	}}
	retrier := &fakeRetrier{}

	report, err := newTestRunner(lister, retrier, 100, 10, true).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusDryRun, report.Status)
	assert.Empty(t, retrier.calls)
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Message, "dry run")
	// would-be retries are counted apart from executed ones
	assert.Equal(t, Summary{UnpaidSubscriptions: 1, Candidates: 1}, report.Summary)
}

func TestRun_EmptyListing(t *testing.T) {
	lister := &fakeLister{pages: map[int]*iyzico.SubscriptionPage{}}

	report, err := newTestRunner(lister, &fakeRetrier{}, 100, 10, false).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, report.Summary)
	assert.NotNil(t, report.Results, "results must serialize as [] not null")
	assert.Empty(t, report.Results)
}
