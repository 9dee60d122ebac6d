package iyzico

import "time"

// Provider status values
const (
	SubscriptionStatusUnpaid = "UNPAID"
	OrderStatusWaiting       = "WAITING"
	PaymentStatusFailed      = "FAILED"

	// statusSuccess is the provider's top-level response status for an accepted call.
	statusSuccess = "success"
)

// Subscription is a provider subscription record as returned by the
// subscriptions listing endpoint. Read-only from this engine's side.
type Subscription struct {
	ReferenceCode      string              `json:"referenceCode"`
	CustomerEmail      string              `json:"customerEmail"`
	CustomerGsmNumber  string              `json:"customerGsmNumber,omitempty"`
	PricingPlanName    string              `json:"pricingPlanName,omitempty"`
	SubscriptionStatus string              `json:"subscriptionStatus"`
	Orders             []SubscriptionOrder `json:"orders,omitempty"`
}

// SubscriptionOrder is a single billing-cycle order under a subscription.
type SubscriptionOrder struct {
	ReferenceCode   string           `json:"referenceCode"`
	Price           float64          `json:"price,omitempty"`
	OrderStatus     string           `json:"orderStatus"`
	PaymentAttempts []PaymentAttempt `json:"paymentAttempts,omitempty"`
}

// PaymentAttempt is one entry in an order's append-only attempt history.
// CreatedDate is epoch milliseconds on the provider's clock.
type PaymentAttempt struct {
	PaymentStatus string  `json:"paymentStatus"`
	ErrorMessage  *string `json:"errorMessage,omitempty"`
	CreatedDate   int64   `json:"createdDate"`
}

// CreatedAt converts the provider's millisecond timestamp to time.Time.
func (a PaymentAttempt) CreatedAt() time.Time {
	return time.UnixMilli(a.CreatedDate)
}

// SubscriptionPage is one page of the UNPAID subscriptions listing.
type SubscriptionPage struct {
	Items       []Subscription `json:"items"`
	TotalCount  int64          `json:"totalCount"`
	CurrentPage int            `json:"currentPage"`
	PageCount   int            `json:"pageCount"`
}

// RetryOutcome is the result of a single retry-payment call. A transport
// or provider-side failure is reported here, never as a Go error, so one
// bad order cannot abort a reconciliation pass.
type RetryOutcome struct {
	Ok      bool
	Message string
}

// listSubscriptionsResponse is the provider envelope for the listing endpoint.
type listSubscriptionsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	Data         *SubscriptionPage `json:"data,omitempty"`
}

// operationResponse is the provider envelope for subscription operations.
type operationResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Message      string `json:"message,omitempty"`
}

// retryRequest is the body of the retry-payment operation.
type retryRequest struct {
	ReferenceCode string `json:"referenceCode"`
}
