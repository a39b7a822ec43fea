package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type stubCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
}

func (s *stubCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (s *stubCloudWatch) data() []types.MetricDatum {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []types.MetricDatum
	for _, in := range s.inputs {
		all = append(all, in.MetricData...)
	}
	return all
}

func TestPublisherRecordAndFlush(t *testing.T) {
	stub := &stubCloudWatch{}
	p := NewPublisher(stub, "Pulse", zaptest.NewLogger(t))

	p.Record("GET", "/resources/42", 200, 125*time.Millisecond)
	p.Close()

	data := stub.data()
	require.Len(t, data, 2)

	byName := map[string]types.MetricDatum{}
	for _, d := range data {
		byName[*d.MetricName] = d
	}

	count, ok := byName["RequestCount"]
	require.True(t, ok)
	assert.Equal(t, float64(1), *count.Value)
	assert.Equal(t, types.StandardUnitCount, count.Unit)

	duration, ok := byName["RequestDuration"]
	require.True(t, ok)
	assert.Equal(t, float64(125), *duration.Value)
	assert.Equal(t, types.StandardUnitMilliseconds, duration.Unit)

	require.Len(t, count.Dimensions, 3)
	dims := map[string]string{}
	for _, d := range count.Dimensions {
		dims[*d.Name] = *d.Value
	}
	assert.Equal(t, "GET", dims["Method"])
	assert.Equal(t, "/resources/42", dims["Path"])
	assert.Equal(t, "200", dims["StatusCode"])

	for _, in := range stub.inputs {
		assert.Equal(t, "Pulse", *in.Namespace)
	}
}

func TestPublisherBatchesBeforeClose(t *testing.T) {
	stub := &stubCloudWatch{}
	p := NewPublisher(stub, "Pulse", zaptest.NewLogger(t))

	// 2 data points per observation, so this exceeds one batch
	for i := 0; i < 15; i++ {
		p.Record("GET", "/health", 200, time.Millisecond)
	}
	p.Close()

	assert.Len(t, stub.data(), 30)
	require.NotEmpty(t, stub.inputs)
	for _, in := range stub.inputs {
		assert.LessOrEqual(t, len(in.MetricData), batchSize)
	}
}

func TestPublisherCloseIsIdempotent(t *testing.T) {
	p := NewPublisher(&stubCloudWatch{}, "Pulse", zaptest.NewLogger(t))
	p.Close()
	p.Close()
}

// blockingCloudWatch stalls on the first delivery until released, so a
// test can back the queue up deterministically.
type blockingCloudWatch struct {
	stubCloudWatch
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.stubCloudWatch.PutMetricData(ctx, params, optFns...)
}

func TestPublisherOverflowDropsWholeObservations(t *testing.T) {
	stub := &blockingCloudWatch{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	observed, logs := observer.New(zapcore.DebugLevel)
	p := NewPublisher(stub, "Pulse", zap.New(observed))

	// Enough observations to trigger one delivery, which then stalls
	// with the queue fully drained.
	for i := 0; i < batchSize/2; i++ {
		p.Record("GET", "/health", 200, time.Millisecond)
	}
	<-stub.entered

	// Fill the queue to capacity, then one more to force a drop.
	for i := 0; i < queueSize; i++ {
		p.Record("GET", "/health", 200, time.Millisecond)
	}
	p.Record("GET", "/health", 200, time.Millisecond)

	close(stub.release)
	p.Close()

	// The dropped observation vanished whole: counts and durations
	// stay paired one to one.
	var counts, durations int
	for _, d := range stub.data() {
		switch *d.MetricName {
		case "RequestCount":
			counts++
		case "RequestDuration":
			durations++
		}
	}
	assert.Equal(t, batchSize/2+queueSize, counts)
	assert.Equal(t, counts, durations)

	assert.Equal(t, 1, logs.FilterMessage("metric queue full, dropping observation").Len())
}
