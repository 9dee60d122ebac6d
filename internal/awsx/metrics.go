package awsx

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/uzmanim/payment-recon/internal/recon"
)

// metricNamespace groups all engine metrics in CloudWatch.
const metricNamespace = "PaymentRecon"

// MetricsEmitter publishes per-run counters to CloudWatch.
type MetricsEmitter struct {
	client  CloudWatchAPI
	nowFunc func() time.Time
}

// NewMetricsEmitter returns a MetricsEmitter.
func NewMetricsEmitter(client CloudWatchAPI) *MetricsEmitter {
	return &MetricsEmitter{client: client, nowFunc: time.Now}
}

// EmitRunSummary publishes the summary counters of one reconciliation run.
func (m *MetricsEmitter) EmitRunSummary(ctx context.Context, summary recon.Summary) error {
	now := m.nowFunc()
	data := []cwtypes.MetricDatum{
		datum("UnpaidSubscriptions", summary.UnpaidSubscriptions, now),
		datum("RetriesAttempted", summary.TotalRetries, now),
		datum("RetriesSuccessful", summary.Successful, now),
		datum("RetriesFailed", summary.Failed, now),
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(metricNamespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func datum(name string, value int, at time.Time) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(float64(value)),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  sdkaws.Time(at),
	}
}
