package bwsiterun

import (
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all runtime environments must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	serviceName() string
	logLevel() zapcore.Level
	otelExporter() string
}

// BaseEnvironment holds the process settings that are not part of bwsite.toml.
// Variables carry the BWSITE_ prefix, e.g. BWSITE_LOG_LEVEL.
type BaseEnvironment struct {
	ServiceName  string        `env:"SERVICE_NAME" envDefault:"bwsite"`
	LogLevel     zapcore.Level `env:"LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"OTEL_EXPORTER" envDefault:"none"`
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}
func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}
func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.ParseWithOptions(&e, env.Options{Prefix: bwsitecfg.EnvPrefix}); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
