package di

import (
	"context"

	"pulse-backend/application/simulation"
	"pulse-backend/infrastructure/config"
	"pulse-backend/infrastructure/metrics"
	"pulse-backend/pkg/logging"
	"pulse-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awscloudwatchlogs "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"go.uber.org/zap"
)

// recentTraceCapacity bounds the in-memory buffer behind /debug/traces
const recentTraceCapacity = 100

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideCloudWatchLogsClient creates a CloudWatch Logs client
func ProvideCloudWatchLogsClient(awsCfg aws.Config) *awscloudwatchlogs.Client {
	return awscloudwatchlogs.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideRemoteLogCore creates the remote log sink, nil when disabled
func ProvideRemoteLogCore(cfg *config.Config, client *awscloudwatchlogs.Client) *logging.CloudWatchCore {
	if !cfg.EnableRemoteLogs {
		return nil
	}
	return logging.NewCloudWatchCore(client, cfg.LogGroupName, cfg.LogStreamName, logging.ParseLevel(cfg.LogLevel))
}

// ProvideLogger creates the application logger, teeing in the remote
// sink when one is configured
func ProvideLogger(cfg *config.Config, remote *logging.CloudWatchCore) *zap.Logger {
	if remote != nil {
		return logging.NewLogger(cfg.AppName, cfg.Stage, cfg.LogLevel, remote)
	}
	return logging.NewLogger(cfg.AppName, cfg.Stage, cfg.LogLevel)
}

// ProvideMemoryCollector creates the recent-segment buffer
func ProvideMemoryCollector() *observability.MemoryCollector {
	return observability.NewMemoryCollector(recentTraceCapacity)
}

// ProvideDaemonCollector dials the trace daemon, nil when tracing is
// disabled. A dial failure degrades to in-memory traces only rather than
// failing startup.
func ProvideDaemonCollector(cfg *config.Config, logger *zap.Logger) *observability.DaemonCollector {
	if !cfg.EnableTracing {
		return nil
	}
	daemon, err := observability.NewDaemonCollector(cfg.DaemonAddress, logger)
	if err != nil {
		logger.Warn("trace daemon unreachable, keeping traces in memory only",
			zap.String("address", cfg.DaemonAddress),
			zap.Error(err),
		)
		return nil
	}
	return daemon
}

// ProvideCollector assembles the export pipeline for closed segments
func ProvideCollector(cfg *config.Config, recent *observability.MemoryCollector, daemon *observability.DaemonCollector) observability.Collector {
	if !cfg.EnableTracing {
		return observability.NopCollector{}
	}
	if daemon == nil {
		return observability.MultiCollector{recent}
	}
	return observability.MultiCollector{recent, daemon}
}

// ProvideRecorder creates the trace recorder. Stack violations are
// strict in development and corrected in production.
func ProvideRecorder(cfg *config.Config, collector observability.Collector, logger *zap.Logger) *observability.Recorder {
	return observability.NewRecorder(collector, logger, cfg.EnableTracing, cfg.IsDevelopment())
}

// ProvideSimulator creates the downstream-operation simulator
func ProvideSimulator(cfg *config.Config, recorder *observability.Recorder) *simulation.Simulator {
	return simulation.NewSimulator(
		recorder,
		simulation.LatencyRange{Min: cfg.DatabaseLatencyMin, Max: cfg.DatabaseLatencyMax},
		simulation.LatencyRange{Min: cfg.ExternalLatencyMin, Max: cfg.ExternalLatencyMax},
	)
}

// ProvideMetricsPublisher creates the metrics publisher, nil when disabled
func ProvideMetricsPublisher(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *metrics.Publisher {
	if !cfg.EnableMetrics {
		return nil
	}
	return metrics.NewPublisher(client, cfg.MetricNamespace, logger)
}

// Shutdown flushes and releases everything the container owns
func (c *Container) Shutdown() {
	if c.Metrics != nil {
		c.Metrics.Close()
	}
	if c.DaemonCollector != nil {
		c.DaemonCollector.Close()
	}
	// Sync also drains the remote core through the tee
	c.Logger.Sync()
	if c.RemoteLogs != nil {
		c.RemoteLogs.Close()
	}
}
