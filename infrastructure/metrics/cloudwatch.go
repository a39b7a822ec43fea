// Package metrics publishes request metrics to CloudWatch. Publication
// is buffered and asynchronous; a failing metrics backend costs dropped
// data points, never request latency.
package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the slice of the CloudWatch client the publisher
// depends on
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

const (
	queueSize     = 1000
	batchSize     = 20 // PutMetricData caps at 1000 but small batches flush promptly
	flushInterval = 10 * time.Second
)

// observation is one request's pair of data points. The pair moves
// through the queue as a unit so overflow never splits a count from its
// duration.
type observation [2]types.MetricDatum

// Publisher records per-request observations and ships them to
// CloudWatch in the background
type Publisher struct {
	client    CloudWatchAPI
	namespace string
	logger    *zap.Logger

	queue chan observation
	done  chan struct{}
	stop  sync.Once
	wg    sync.WaitGroup
}

// NewPublisher creates a publisher and starts its flush loop
func NewPublisher(client CloudWatchAPI, namespace string, logger *zap.Logger) *Publisher {
	p := &Publisher{
		client:    client,
		namespace: namespace,
		logger:    logger,
		queue:     make(chan observation, queueSize),
		done:      make(chan struct{}),
	}

	p.wg.Add(1)
	go p.run()
	return p
}

// Record implements the request recorder contract used by the metrics
// middleware. Never blocks: full buffers drop the observation.
func (p *Publisher) Record(method, path string, status int, duration time.Duration) {
	now := time.Now()
	dimensions := []types.Dimension{
		{Name: aws.String("Method"), Value: aws.String(method)},
		{Name: aws.String("Path"), Value: aws.String(path)},
		{Name: aws.String("StatusCode"), Value: aws.String(strconv.Itoa(status))},
	}

	obs := observation{
		{
			MetricName: aws.String("RequestCount"),
			Dimensions: dimensions,
			Timestamp:  aws.Time(now),
			Unit:       types.StandardUnitCount,
			Value:      aws.Float64(1),
		},
		{
			MetricName: aws.String("RequestDuration"),
			Dimensions: dimensions,
			Timestamp:  aws.Time(now),
			Unit:       types.StandardUnitMilliseconds,
			Value:      aws.Float64(float64(duration.Milliseconds())),
		},
	}

	select {
	case p.queue <- obs:
	default:
		p.logger.Warn("metric queue full, dropping observation")
	}
}

// Close flushes pending metrics and stops the publisher
func (p *Publisher) Close() {
	p.stop.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var batch []types.MetricDatum

	send := func() {
		if len(batch) == 0 {
			return
		}
		_, err := p.client.PutMetricData(context.Background(), &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: batch,
		})
		if err != nil {
			p.logger.Warn("failed to publish metrics", zap.Error(err))
		}
		batch = nil
	}

	for {
		select {
		case obs := <-p.queue:
			batch = append(batch, obs[:]...)
			if len(batch) >= batchSize {
				send()
			}
		case <-ticker.C:
			send()
		case <-p.done:
			for {
				select {
				case obs := <-p.queue:
					batch = append(batch, obs[:]...)
				default:
					send()
					return
				}
			}
		}
	}
}
