// Package queue hands worker jobs to the price worker over SQS.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"surfalert/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSDispatcher serializes a WorkerJob and sends it to the worker queue.
// FIFO queues are grouped by alert so one alert's jobs stay ordered, and
// deduplicated by job id.
type SQSDispatcher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewSQSDispatcher creates a dispatcher for queueURL.
func NewSQSDispatcher(client SQSSender, queueURL string, logger *slog.Logger) *SQSDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSDispatcher{client: client, queueURL: queueURL, logger: logger}
}

// Name identifies the dispatcher in metrics.
func (d *SQSDispatcher) Name() string { return string(types.DispatchModeSQS) }

// Dispatch enqueues job.
func (d *SQSDispatcher) Dispatch(ctx context.Context, job types.WorkerJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal WorkerJob: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"reason": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(job.Reason)),
			},
			"alert_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(job.AlertID),
			},
		},
	}
	if strings.HasSuffix(d.queueURL, ".fifo") {
		input.MessageGroupId = aws.String(job.AlertID)
		input.MessageDeduplicationId = aws.String(job.JobID)
	}

	out, err := d.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("queue: failed to send WorkerJob to %s: %w", d.queueURL, err)
	}

	d.logger.InfoContext(ctx, "worker job sent",
		"queue_url", d.queueURL,
		"job_id", job.JobID,
		"alert_id", job.AlertID,
		"reason", job.Reason,
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}
