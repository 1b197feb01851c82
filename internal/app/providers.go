package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	generationhttp "github.com/tvnz/video-generator/internal/adapter/inbound/http/generation"
	"github.com/tvnz/video-generator/internal/adapter/outbound/runway"
	"github.com/tvnz/video-generator/internal/adapter/outbound/scratch"
	"github.com/tvnz/video-generator/internal/domain/generation"
	"github.com/tvnz/video-generator/internal/infra/config"
	"github.com/tvnz/video-generator/internal/infra/httpclient"
	"github.com/tvnz/video-generator/internal/port/inbound"
	"github.com/tvnz/video-generator/internal/port/outbound"
	"github.com/tvnz/video-generator/internal/shared/logger"
	"github.com/tvnz/video-generator/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideZapLogger,
	ProvideHTTPClient,
	ProvideRegistry,
	ProvideMetrics,
)

// ProvideLogger creates a logger instance.
func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideZapLogger creates a zap logger instance. The cleanup flushes
// buffered entries.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return zapLog, func() { _ = zapLog.Sync() }, nil
}

// ProvideHTTPClient creates a shared HTTP client with connection pooling.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewWithRegistry(cfg.Metrics.Namespace, reg)
}

// ===== Generation Providers =====

// GenerationSet provides the generation domain and its adapters.
var GenerationSet = wire.NewSet(
	ProvideMediaPolicy,
	ProvideScratchStore,
	wire.Bind(new(outbound.ScratchStorePort), new(*scratch.Store)),
	ProvideRunwayClient,
	wire.Bind(new(outbound.GenerationAPIPort), new(*runway.Client)),
	ProvideGenerationDomain,
)

// ProvideMediaPolicy creates the upload extension policy.
func ProvideMediaPolicy(cfg *config.Config) (*generation.MediaPolicy, error) {
	return generation.NewMediaPolicy(cfg.Upload.AllowedExtensions)
}

// ProvideScratchStore creates the scratch store and its directory.
func ProvideScratchStore(cfg *config.Config) (*scratch.Store, error) {
	store := scratch.NewOS(cfg.Upload.Dir)
	if err := store.EnsureDir(); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideRunwayClient creates the generation API client.
func ProvideRunwayClient(client *http.Client, cfg *config.Config, m *metrics.Metrics, zapLog *zap.Logger) *runway.Client {
	return runway.NewClient(client, cfg.Runway, m, zapLog)
}

// ProvideGenerationDomain creates the generation domain.
func ProvideGenerationDomain(
	policy *generation.MediaPolicy,
	store outbound.ScratchStorePort,
	api outbound.GenerationAPIPort,
	cfg *config.Config,
	m *metrics.Metrics,
	zapLog *zap.Logger,
) inbound.GenerationDomain {
	return generation.NewDomain(policy, store, api, cfg.Runway.Parameters(), m, zapLog)
}

// ===== HTTP Handler Providers =====

// HandlerSet provides HTTP handlers.
var HandlerSet = wire.NewSet(
	ProvideGenerationHandler,
)

// ProvideGenerationHandler creates the gateway HTTP handler.
func ProvideGenerationHandler(domain inbound.GenerationDomain, policy *generation.MediaPolicy, cfg *config.Config) *generationhttp.Handler {
	return generationhttp.NewHandler(domain, policy.Extensions(), cfg.Runway.DefaultPrompt)
}

// AppSet is the complete provider set for the application.
var AppSet = wire.NewSet(
	InfraSet,
	GenerationSet,
	HandlerSet,
)
