package config

type TelemetryConfig interface {
	GetOTLPEndpoint() string
	GetOTLPInsecure() bool
	GetServiceName() string
}

type Telemetry struct {
	v values
}

var _ TelemetryConfig = Telemetry{}

// GetOTLPEndpoint is the host:port of an OTLP/HTTP collector. Tracing is
// disabled when empty.
func (t Telemetry) GetOTLPEndpoint() string {
	return t.v.get("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

func (t Telemetry) GetOTLPInsecure() bool {
	return t.v.get("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true"
}

func (t Telemetry) GetServiceName() string {
	return t.v.get("OTEL_SERVICE_NAME", "swipe-client")
}
