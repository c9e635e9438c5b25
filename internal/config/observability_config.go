package config

import (
	"strconv"

	apperrors "github.com/jrsteele09/setlist-gate/internal/errors"
)

const (
	otlpEndpointEnvVar   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	otlpInsecureEnvVar   = "OTEL_EXPORTER_OTLP_INSECURE"
	serviceVersionEnvVar = "SERVICE_VERSION"
)

// ObservabilityConfig controls trace export. An empty endpoint disables it.
type ObservabilityConfig interface {
	GetOTLPEndpoint() string
	GetOTLPInsecure() bool
	GetServiceVersion() string
}

type Observability struct {
	otlpEndpoint   string
	otlpInsecure   bool
	serviceVersion string
}

var _ ObservabilityConfig = Observability{}

func loadObservability() (Observability, error) {
	insecure := false
	if raw := GetEnv(otlpInsecureEnvVar, ""); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return Observability{}, apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s %q", otlpInsecureEnvVar, raw)
		}
		insecure = parsed
	}
	return Observability{
		otlpEndpoint:   GetEnv(otlpEndpointEnvVar, ""),
		otlpInsecure:   insecure,
		serviceVersion: GetEnv(serviceVersionEnvVar, "dev"),
	}, nil
}

// GetOTLPEndpoint returns host:port of the OTLP/HTTP collector.
func (o Observability) GetOTLPEndpoint() string {
	return o.otlpEndpoint
}

func (o Observability) GetOTLPInsecure() bool {
	return o.otlpInsecure
}

func (o Observability) GetServiceVersion() string {
	return o.serviceVersion
}
