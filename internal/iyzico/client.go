package iyzico

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Provider endpoint paths. Signatures are computed over these exact
// strings, without any query parameters.
const (
	subscriptionsPath = "/v2/subscription/subscriptions"
	retryPath         = "/v2/subscription/operation/retry"
)

// DefaultTimeout bounds every outbound call; the provider or the network
// may hang and a stuck call must degrade to a per-order failure.
const DefaultTimeout = 30 * time.Second

// ProviderQueryError indicates the subscription listing could not be
// obtained: auth rejected, transport failure, or malformed response.
// Callers must be able to tell "no unpaid subscriptions" apart from
// "could not determine".
type ProviderQueryError struct {
	Op      string
	Message string
}

func (e *ProviderQueryError) Error() string {
	return fmt.Sprintf("provider query failed (%s): %s", e.Op, e.Message)
}

// Client talks to the provider's subscription API with signed requests.
type Client struct {
	baseURL    string
	signer     *Signer
	httpClient *http.Client
}

// NewClient returns a Client bound to baseURL. A zero timeout falls back
// to DefaultTimeout.
func NewClient(baseURL string, signer *Signer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		signer:     signer,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListUnpaidSubscriptions fetches one page of subscriptions in UNPAID
// status. Query parameters go on the request URL only; the signature is
// computed over the bare path with an empty body.
func (c *Client) ListUnpaidSubscriptions(ctx context.Context, page, count int) (*SubscriptionPage, error) {
	q := url.Values{}
	q.Set("subscriptionStatus", SubscriptionStatusUnpaid)
	q.Set("page", strconv.Itoa(page))
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+subscriptionsPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &ProviderQueryError{Op: "list", Message: err.Error()}
	}
	c.setHeaders(req, http.MethodGet, subscriptionsPath, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderQueryError{Op: "list", Message: err.Error()}
	}
	defer resp.Body.Close()

	var envelope listSubscriptionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ProviderQueryError{Op: "list", Message: fmt.Sprintf("decode response (http %d): %v", resp.StatusCode, err)}
	}
	if envelope.Status != statusSuccess {
		msg := envelope.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %q (http %d)", envelope.Status, resp.StatusCode)
		}
		return nil, &ProviderQueryError{Op: "list", Message: msg}
	}
	if envelope.Data == nil {
		return nil, &ProviderQueryError{Op: "list", Message: "provider returned success without data"}
	}
	return envelope.Data, nil
}

// RetryOrderPayment triggers the provider's retry operation for one order.
// Every failure mode, business rejection or transport error alike, comes
// back as RetryOutcome{Ok: false}.
func (c *Client) RetryOrderPayment(ctx context.Context, orderReferenceCode string) RetryOutcome {
	body, err := json.Marshal(retryRequest{ReferenceCode: orderReferenceCode})
	if err != nil {
		return RetryOutcome{Ok: false, Message: fmt.Sprintf("encode retry request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+retryPath, bytes.NewReader(body))
	if err != nil {
		return RetryOutcome{Ok: false, Message: fmt.Sprintf("build retry request: %v", err)}
	}
	// signed over the path plus this exact serialized body
	c.setHeaders(req, http.MethodPost, retryPath, string(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RetryOutcome{Ok: false, Message: fmt.Sprintf("retry call failed: %v", err)}
	}
	defer resp.Body.Close()

	var envelope operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return RetryOutcome{Ok: false, Message: fmt.Sprintf("retry response unreadable (http %d): %v", resp.StatusCode, err)}
	}
	if envelope.Status != statusSuccess {
		msg := envelope.ErrorMessage
		if msg == "" {
			msg = envelope.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("provider rejected retry (status %q)", envelope.Status)
		}
		return RetryOutcome{Ok: false, Message: msg}
	}

	msg := envelope.Message
	if msg == "" {
		msg = "retry accepted"
	}
	return RetryOutcome{Ok: true, Message: msg}
}

func (c *Client) setHeaders(req *http.Request, method, signedPath, body string) {
	authorization, nonce := c.signer.Sign(method, signedPath, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", authorization)
	req.Header.Set("x-iyzi-rnd", nonce)
}
