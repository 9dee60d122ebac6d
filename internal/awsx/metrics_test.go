package awsx

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/uzmanim/payment-recon/internal/recon"
)

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestEmitRunSummary(t *testing.T) {
	mock := &mockCloudWatch{}
	e := NewMetricsEmitter(mock)
	e.nowFunc = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }

	summary := recon.Summary{UnpaidSubscriptions: 5, TotalRetries: 3, Successful: 2, Failed: 1}
	if err := e.EmitRunSummary(context.Background(), summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.inputs) != 1 {
		t.Fatalf("expected one PutMetricData call, got %d", len(mock.inputs))
	}
	in := mock.inputs[0]
	if *in.Namespace != "PaymentRecon" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	if len(in.MetricData) != 4 {
		t.Fatalf("expected 4 datums, got %d", len(in.MetricData))
	}

	values := map[string]float64{}
	for _, d := range in.MetricData {
		values[*d.MetricName] = *d.Value
	}
	want := map[string]float64{
		"UnpaidSubscriptions": 5,
		"RetriesAttempted":    3,
		"RetriesSuccessful":   2,
		"RetriesFailed":       1,
	}
	for name, v := range want {
		if values[name] != v {
			t.Fatalf("metric %s = %v, want %v", name, values[name], v)
		}
	}
}
