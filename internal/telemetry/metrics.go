// Package telemetry publishes evaluation and trigger metrics to CloudWatch.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"surfalert/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Recorder is the set of metrics the service emits.
type Recorder interface {
	RecordQuickCheck(ctx context.Context, freshness types.Freshness)
	RecordTrigger(ctx context.Context, reason types.TriggerReason, outcome string)
	RecordDispatch(ctx context.Context, provider string, duration time.Duration, err error)
	RecordSweep(ctx context.Context, outcome string, count int)
}

var (
	_ Recorder = (*CloudWatchRecorder)(nil)
	_ Recorder = NopRecorder{}
)

// CloudWatchRecorder emits one datum per call. Publish failures are logged and
// never surface to the caller.
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchRecorder creates a recorder. An empty namespace falls back to
// types.MetricNamespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchRecorder{client: client, namespace: namespace, logger: logger}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (m *CloudWatchRecorder) put(ctx context.Context, datum cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record metric",
			"error", err.Error(),
			"metric", aws.ToString(datum.MetricName),
		)
	}
}

// RecordQuickCheck counts a quick check by price freshness.
func (m *CloudWatchRecorder) RecordQuickCheck(ctx context.Context, freshness types.Freshness) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricQuickCheck),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dim(types.DimFreshness, string(freshness))},
	})
}

// RecordTrigger counts a trigger decision.
//
//	Metric: TriggerDecision, Dims: {Reason: "scheduled", Outcome: "cooling"}
func (m *CloudWatchRecorder) RecordTrigger(ctx context.Context, reason types.TriggerReason, outcome string) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricTriggerDecision),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dim(types.DimReason, string(reason)),
			dim(types.DimOutcome, outcome),
		},
	})
}

// RecordDispatch records worker dispatch latency in milliseconds, and an
// ExternalAPIFailure count when err is non-nil.
func (m *CloudWatchRecorder) RecordDispatch(ctx context.Context, provider string, duration time.Duration, err error) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricWorkerDispatch),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{dim(types.DimProvider, provider)},
	})
	if err != nil {
		m.put(ctx, cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricExternalAPIError),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{dim(types.DimProvider, provider)},
		})
	}
}

// RecordSweep records how many alerts ended a sweep with outcome.
func (m *CloudWatchRecorder) RecordSweep(ctx context.Context, outcome string, count int) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricSweepAlerts),
		Value:      aws.Float64(float64(count)),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dim(types.DimOutcome, outcome)},
	})
}

// NopRecorder discards all metrics. Used when metrics are disabled and in
// local runs.
type NopRecorder struct{}

func (NopRecorder) RecordQuickCheck(context.Context, types.Freshness)            {}
func (NopRecorder) RecordTrigger(context.Context, types.TriggerReason, string)   {}
func (NopRecorder) RecordDispatch(context.Context, string, time.Duration, error) {}
func (NopRecorder) RecordSweep(context.Context, string, int)                     {}
