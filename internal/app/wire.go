//go:build wireinject
// +build wireinject

package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	generationhttp "github.com/tvnz/video-generator/internal/adapter/inbound/http/generation"
	"github.com/tvnz/video-generator/internal/infra/config"
	"github.com/tvnz/video-generator/internal/port/inbound"
	"github.com/tvnz/video-generator/internal/shared/logger"
	"github.com/tvnz/video-generator/internal/utils/metrics"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config     *config.Config
	HTTPClient *http.Client
	Logger     *logger.Logger
	ZapLogger  *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics

	// Domains
	GenerationDomain inbound.GenerationDomain

	// HTTP Handlers
	GenerationHandler *generationhttp.Handler
}

// InitializeDependencies creates all dependencies using Wire.
func InitializeDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	wire.Build(
		AppSet,
		wire.Struct(new(Dependencies), "*"),
	)
	return nil, nil, nil
}
