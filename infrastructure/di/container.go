package di

import (
	"pulse-backend/application/simulation"
	"pulse-backend/infrastructure/config"
	"pulse-backend/infrastructure/metrics"
	"pulse-backend/pkg/logging"
	"pulse-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	RemoteLogs      *logging.CloudWatchCore
	RecentTraces    *observability.MemoryCollector
	DaemonCollector *observability.DaemonCollector
	Collector       observability.Collector
	Recorder        *observability.Recorder
	Simulator       *simulation.Simulator
	Metrics         *metrics.Publisher
}
