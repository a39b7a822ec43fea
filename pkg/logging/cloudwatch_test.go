package logging

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type stubLogsClient struct {
	mu      sync.Mutex
	streams []string
	events  []types.InputLogEvent
}

func (s *stubLogsClient) CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = append(s.streams, *params.LogStreamName)
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (s *stubLogsClient) PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, params.LogEvents...)
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (s *stubLogsClient) received() []types.InputLogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.InputLogEvent(nil), s.events...)
}

func TestCloudWatchCore(t *testing.T) {
	t.Run("Should deliver records with the canonical schema", func(t *testing.T) {
		client := &stubLogsClient{}
		core := NewCloudWatchCore(client, "/pulse/api", "test-stream", zapcore.InfoLevel)
		defer core.Close()

		logger := zap.New(core).With(
			zap.String(KeyAppName, "pulse-api"),
			zap.String(KeyStage, "development"),
		)
		logger.Info("Request completed",
			zap.String(KeyRequestID, "abc-123"),
			zap.Int("status_code", 200),
		)

		require.NoError(t, core.Sync())

		events := client.received()
		require.Len(t, events, 1)

		var record map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(*events[0].Message), &record))
		assert.Equal(t, "info", record["level"])
		assert.Equal(t, "Request completed", record["message"])
		assert.Equal(t, "pulse-api", record["app_name"])
		assert.Equal(t, "development", record["stage"])
		assert.Equal(t, "abc-123", record["request_id"])
		assert.Equal(t, float64(200), record["status_code"])
		assert.NotEmpty(t, record["timestamp"])
	})

	t.Run("Should honor the level threshold", func(t *testing.T) {
		client := &stubLogsClient{}
		core := NewCloudWatchCore(client, "/pulse/api", "test-stream", zapcore.WarnLevel)
		defer core.Close()

		logger := zap.New(core)
		logger.Info("dropped")
		logger.Warn("kept")

		require.NoError(t, core.Sync())

		events := client.received()
		require.Len(t, events, 1)
		assert.Contains(t, *events[0].Message, "kept")
	})

	t.Run("Should create the log stream once at startup", func(t *testing.T) {
		client := &stubLogsClient{}
		core := NewCloudWatchCore(client, "/pulse/api", "test-stream", zapcore.InfoLevel)

		require.NoError(t, core.Sync())
		core.Close()

		client.mu.Lock()
		defer client.mu.Unlock()
		assert.Equal(t, []string{"test-stream"}, client.streams)
	})

	t.Run("Should drop records when the queue is full", func(t *testing.T) {
		client := &blockingLogsClient{
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		core := NewCloudWatchCore(client, "/pulse/api", "test-stream", zapcore.InfoLevel)
		logger := zap.New(core)

		// One full batch triggers a delivery, which then stalls with
		// the queue fully drained.
		for i := 0; i < batchSize; i++ {
			logger.Info("queued")
		}
		<-client.entered

		// Fill the queue to capacity, then one more record that has
		// nowhere to go.
		for i := 0; i < queueSize; i++ {
			logger.Info("queued")
		}
		logger.Info("dropped")

		close(client.release)
		core.Close()

		events := client.received()
		assert.Len(t, events, batchSize+queueSize)
		for _, event := range events {
			assert.NotContains(t, *event.Message, "dropped")
		}
	})
}

// blockingLogsClient stalls on the first delivery until released, so a
// test can back the queue up deterministically.
type blockingLogsClient struct {
	stubLogsClient
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingLogsClient) PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.stubLogsClient.PutLogEvents(ctx, params, optFns...)
}
