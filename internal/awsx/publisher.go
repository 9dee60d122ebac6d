package awsx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/uzmanim/payment-recon/internal/recon"
)

// RunPublisher notifies downstream consumers (admin dashboard feed,
// notification function) that a reconciliation run finished.
type RunPublisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewRunPublisher returns a publisher bound to a queue URL.
func NewRunPublisher(sqsClient SQSAPI, queueURL string) *RunPublisher {
	return &RunPublisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// runCompletedMessage is the queue payload. RunID is absent when no
// audit record was persisted for the run.
type runCompletedMessage struct {
	RunID   string        `json:"runId,omitempty"`
	Status  string        `json:"status"`
	Summary recon.Summary `json:"summary"`
}

// NotifyRunCompleted sends a run-completed message. Counts ride along as
// message attributes so consumers can filter without parsing the body.
// runID may be empty when the report was not persisted; consumers must
// not get an ID that a lookup would 404 on.
func (p *RunPublisher) NotifyRunCompleted(ctx context.Context, runID string, report *recon.Report) error {
	body, err := json.Marshal(runCompletedMessage{
		RunID:   runID,
		Status:  report.Status,
		Summary: report.Summary,
	})
	if err != nil {
		return fmt.Errorf("marshal run message: %w", err)
	}

	attrs := map[string]sqstypes.MessageAttributeValue{
		"status": stringAttr(report.Status),
		"failed": stringAttr(strconv.Itoa(report.Summary.Failed)),
	}
	// SQS rejects empty attribute values; leave the attribute off instead
	if runID != "" {
		attrs["runId"] = stringAttr(runID)
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:          &p.QueueURL,
		MessageBody:       &bodyStr,
		MessageAttributes: attrs,
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	return sqstypes.MessageAttributeValue{
		DataType:    awsString("String"),
		StringValue: &v,
	}
}

// awsString helper
func awsString(s string) *string { return &s }
