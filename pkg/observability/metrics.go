package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/ports"
)

// metricNamespace groups all job metrics in CloudWatch.
const metricNamespace = "Engram/Jobs"

// CloudWatchMetrics emits job summaries to CloudWatch. Emission is
// fire-and-forget: a metrics failure is logged and never propagated to
// the job it describes.
type CloudWatchMetrics struct {
	client  *cloudwatch.Client
	enabled bool
	logger  *zap.Logger
}

// NewCloudWatchMetrics creates a metrics sink. When disabled it is a
// no-op.
func NewCloudWatchMetrics(client *cloudwatch.Client, enabled bool, logger *zap.Logger) ports.MetricsSink {
	return &CloudWatchMetrics{
		client:  client,
		enabled: enabled,
		logger:  logger,
	}
}

// RecordJobSummary publishes one job run's counters and duration.
func (m *CloudWatchMetrics) RecordJobSummary(ctx context.Context, summary ports.JobSummary) {
	if !m.enabled || m.client == nil {
		return
	}

	now := time.Now()
	dimensions := []types.Dimension{
		{Name: aws.String("Job"), Value: aws.String(summary.Job)},
	}
	datum := func(name string, value float64, unit types.StandardUnit) types.MetricDatum {
		return types.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  aws.Time(now),
			Dimensions: dimensions,
		}
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricNamespace),
		MetricData: []types.MetricDatum{
			datum("Evaluated", float64(summary.Evaluated), types.StandardUnitCount),
			datum("Mutated", float64(summary.Mutated), types.StandardUnitCount),
			datum("Skipped", float64(summary.Skipped), types.StandardUnitCount),
			datum("Duration", summary.Elapsed.Seconds(), types.StandardUnitSeconds),
		},
	})
	if err != nil {
		m.logger.Warn("Failed to publish job metrics",
			zap.Error(err),
			zap.String("job", summary.Job),
		)
	}
}
