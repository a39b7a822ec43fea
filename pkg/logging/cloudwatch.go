package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"go.uber.org/zap/zapcore"
)

// CloudWatchLogsAPI is the slice of the CloudWatch Logs client the sink
// depends on
type CloudWatchLogsAPI interface {
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

const (
	queueSize     = 10000
	batchSize     = 100
	flushInterval = time.Second
)

// CloudWatchCore is a zapcore.Core that ships encoded records to a
// CloudWatch Logs stream. Records are queued and batched off the request
// path; when the queue is full records are dropped with a local stderr
// note, and transport failures are reported the same way. The sink must
// degrade, never block logging or request handling.
type CloudWatchCore struct {
	zapcore.LevelEnabler

	enc zapcore.Encoder
	b   *batcher
}

// batcher is the shared delivery pipeline behind every clone of the core
type batcher struct {
	client CloudWatchLogsAPI
	group  string
	stream string

	queue chan types.InputLogEvent
	done  chan struct{}
	flush chan chan struct{}
	stop  sync.Once
}

// NewCloudWatchCore creates the remote sink core and starts its batcher
func NewCloudWatchCore(client CloudWatchLogsAPI, group, stream string, level zapcore.LevelEnabler) *CloudWatchCore {
	if stream == "" {
		host, _ := os.Hostname()
		stream = fmt.Sprintf("%s/%d", host, time.Now().Unix())
	}

	b := &batcher{
		client: client,
		group:  group,
		stream: stream,
		queue:  make(chan types.InputLogEvent, queueSize),
		done:   make(chan struct{}),
		flush:  make(chan chan struct{}),
	}

	go b.run()

	return &CloudWatchCore{
		LevelEnabler: level,
		enc:          zapcore.NewJSONEncoder(encoderConfig()),
		b:            b,
	}
}

// With implements zapcore.Core
func (c *CloudWatchCore) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return &CloudWatchCore{LevelEnabler: c.LevelEnabler, enc: enc, b: c.b}
}

// Check implements zapcore.Core
func (c *CloudWatchCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write implements zapcore.Core. The record is fully encoded here, so
// each log line reaches the stream as one unit regardless of concurrent
// writers.
func (c *CloudWatchCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}

	event := types.InputLogEvent{
		Message:   aws.String(buf.String()),
		Timestamp: aws.Int64(entry.Time.UnixMilli()),
	}
	buf.Free()

	select {
	case c.b.queue <- event:
	default:
		fmt.Fprintln(os.Stderr, "cloudwatch log queue full: dropping record")
	}
	return nil
}

// Sync implements zapcore.Core, forcing a flush of the pending batch
func (c *CloudWatchCore) Sync() error {
	ack := make(chan struct{})
	select {
	case c.b.flush <- ack:
		<-ack
	case <-c.b.done:
	}
	return nil
}

// Close stops the batcher after draining the queue
func (c *CloudWatchCore) Close() error {
	err := c.Sync()
	c.b.stop.Do(func() { close(c.b.done) })
	return err
}

func (c *batcher) run() {
	ctx := context.Background()

	// Stream creation is idempotent from our point of view: an
	// already-exists failure means a previous run created it.
	if _, err := c.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(c.stream),
	}); err != nil {
		var exists *types.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			fmt.Fprintf(os.Stderr, "cloudwatch log stream setup failed: %v\n", err)
		}
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var batch []types.InputLogEvent

	send := func() {
		if len(batch) == 0 {
			return
		}
		_, err := c.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(c.group),
			LogStreamName: aws.String(c.stream),
			LogEvents:     batch,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "cloudwatch log delivery failed: %v\n", err)
		}
		batch = nil
	}

	drain := func() {
		for {
			select {
			case event := <-c.queue:
				batch = append(batch, event)
				if len(batch) >= batchSize {
					send()
				}
			default:
				send()
				return
			}
		}
	}

	for {
		select {
		case event := <-c.queue:
			batch = append(batch, event)
			if len(batch) >= batchSize {
				send()
			}
		case <-ticker.C:
			send()
		case ack := <-c.flush:
			drain()
			close(ack)
		case <-c.done:
			drain()
			return
		}
	}
}
