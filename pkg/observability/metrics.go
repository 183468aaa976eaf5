package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// cloudWatchAPI is the slice of the CloudWatch client the recorder needs
type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes counters and latencies to CloudWatch. A nil *Metrics is
// valid and records nothing, so callers never guard their call sites.
type Metrics struct {
	client    cloudWatchAPI
	namespace string
	logger    *zap.Logger
}

// NewMetrics creates a recorder publishing under the given namespace
func NewMetrics(client *cloudwatch.Client, namespace string, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{client: client, namespace: namespace, logger: logger}
}

// Count publishes a counter increment
func (m *Metrics) Count(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.put(ctx, name, value, types.StandardUnitCount, dimensions)
}

// Duration publishes a latency measurement in milliseconds
func (m *Metrics) Duration(ctx context.Context, name string, elapsed time.Duration, dimensions map[string]string) {
	m.put(ctx, name, float64(elapsed.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit types.StandardUnit, dimensions map[string]string) {
	if m == nil || m.client == nil {
		return
	}

	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
	for key, val := range dimensions {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(key),
			Value: aws.String(val),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		m.logger.Warn("metric publish failed", zap.String("metric", name), zap.Error(err))
	}
}

// Metric names published by the service
const (
	MetricAttemptsCreated   = "AttemptsCreated"
	MetricCycleLimitHits    = "CycleLimitHits"
	MetricModelCalls        = "ModelCalls"
	MetricModelCallFailures = "ModelCallFailures"
	MetricModelCallLatency  = "ModelCallLatency"
	MetricExercisesCreated  = "ExercisesCreated"
)
