package observability

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Counters for the model gateway and the engagement timers. They bind to the
// global meter provider lazily, so they are no-ops until
// SetupPrometheusMetrics runs and in tests that never set a provider.
var (
	GatewayCalls    otelmetric.Int64Counter
	GatewayFailures otelmetric.Int64Counter
	TimersArmed     otelmetric.Int64Counter
	TimersFired     otelmetric.Int64Counter
	TimersCancelled otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("ai-persona-chat/backend")
	GatewayCalls, _ = meter.Int64Counter("gateway_calls_total",
		otelmetric.WithDescription("Model gateway calls issued"))
	GatewayFailures, _ = meter.Int64Counter("gateway_failures_total",
		otelmetric.WithDescription("Model gateway calls that returned a transport error"))
	TimersArmed, _ = meter.Int64Counter("engagement_timers_armed_total",
		otelmetric.WithDescription("Greeting and follow-up timers armed"))
	TimersFired, _ = meter.Int64Counter("engagement_timers_fired_total",
		otelmetric.WithDescription("Engagement timers that fired"))
	TimersCancelled, _ = meter.Int64Counter("engagement_timers_cancelled_total",
		otelmetric.WithDescription("Engagement timers cancelled before firing"))
}

// SetupTracing initializes OpenTelemetry tracing with stdout exporter (for demo; replace with OTLP in prod)
func SetupTracing(serviceName string) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("failed to initialize stdouttrace exporter: %v", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupPrometheusMetrics initializes the Prometheus exporter and installs it
// as the global meter provider. Metrics are served on the main router, not a
// side port.
func SetupPrometheusMetrics() *sdkmetric.MeterProvider {
	exp, err := prometheus.New()
	if err != nil {
		log.Fatalf("failed to initialize prometheus exporter: %v", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)
	return mp
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
