package observability

import (
	"strings"

	"github.com/smallbiznis/storagedesk/internal/config"
)

// Config is the slice of application config the logger, tracer and meter
// need.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string
	// Debug turns on stack traces and verbose request logs.
	Debug bool

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	service := strings.TrimSpace(cfg.AppName)
	if service == "" {
		service = "storagedesk"
	}
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	ratio := cfg.OtelSamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return Config{
		ServiceName:          service,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             level,
		LogFormat:            cfg.LogFormat,
		Debug:                level == "debug" || cfg.IsDevelopment(),
		OtelEnabled:          cfg.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: cfg.OTLPProtocol,
		OtelSamplingRatio:    ratio,
	}
}
