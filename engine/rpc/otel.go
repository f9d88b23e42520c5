package rpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// OTelConfig configures OpenTelemetry exporters
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Traces
	EnableTracing bool
	UseOTLPTraces bool   // Use OTLP for traces (Jaeger, Tempo, etc.)
	OTLPTracesURL string // Default: http://localhost:4318/v1/traces

	// Metrics
	EnableMetrics     bool
	UsePrometheus     bool                 // Expose /metrics endpoint
	UseOTLPMetrics    bool                 // Use OTLP for metrics
	OTLPMetricsURL    string               // Default: http://localhost:4318/v1/metrics
	PrometheusHandler *prometheus.Exporter // Will be set if Prometheus is enabled

	// Logs
	EnableLogs  bool
	UseOTLPLogs bool   // Use OTLP for logs (Loki, etc.)
	OTLPLogsURL string // Default: http://localhost:4318/v1/logs

	// InsecureOTLP allows unencrypted connections to OTLP endpoints.
	// Only for local development, production stays on TLS.
	InsecureOTLP bool

	// CA certificate used to verify the observability backend (optional)
	OTLPCACertFile string

	// Development mode uses stdout exporters
	DevelopmentMode bool
}

// DefaultOTelConfig returns a sensible default configuration
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:     "swapcore-engine",
		ServiceVersion:  "1.0.0",
		Environment:     "production",
		EnableTracing:   true,
		UseOTLPTraces:   true,
		OTLPTracesURL:   "http://localhost:4318/v1/traces",
		EnableMetrics:   true,
		UsePrometheus:   true,
		UseOTLPMetrics:  false,
		OTLPMetricsURL:  "http://localhost:4318/v1/metrics",
		EnableLogs:      false, // zerolog handles app logs
		UseOTLPLogs:     false,
		OTLPLogsURL:     "http://localhost:4318/v1/logs",
		InsecureOTLP:    false,
		DevelopmentMode: false,
	}
}

// NewOTelSDK bootstraps the OpenTelemetry pipeline with the given configuration.
// If it does not return an error, make sure to call the shutdown function for proper cleanup.
func NewOTelSDK(ctx context.Context, config *OTelConfig) (func(context.Context) error, error) {
	if config == nil {
		config = DefaultOTelConfig()
	}

	var shutdownFuncs []func(context.Context) error
	var err error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	res, err := newResource(config)
	if err != nil {
		return shutdown, fmt.Errorf("failed to create resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if config.EnableTracing {
		tracerProvider, err := newTracerProvider(ctx, res, config)
		if err != nil {
			handleErr(err)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
		otel.SetTracerProvider(tracerProvider)
	}

	if config.EnableMetrics {
		meterProvider, err := newMeterProvider(ctx, res, config)
		if err != nil {
			handleErr(err)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
		otel.SetMeterProvider(meterProvider)
	}

	if config.EnableLogs {
		loggerProvider, err := newLoggerProvider(ctx, res, config)
		if err != nil {
			handleErr(err)
			return shutdown, err
		}
		shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
		global.SetLoggerProvider(loggerProvider)
	}

	return shutdown, nil
}

func newResource(config *OTelConfig) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironmentName(config.Environment),
		),
	)
}

// buildTLSConfig creates a TLS configuration for OTLP client connections
func buildTLSConfig(config *OTelConfig) (*tls.Config, error) {
	if config.InsecureOTLP {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if config.OTLPCACertFile != "" {
		caCert, err := os.ReadFile(config.OTLPCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, config *OTelConfig) (*trace.TracerProvider, error) {
	var exporter trace.SpanExporter
	var err error

	if config.DevelopmentMode {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
	} else if config.UseOTLPTraces {
		otlpOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(config.OTLPTracesURL),
		}

		if config.InsecureOTLP {
			otlpOpts = append(otlpOpts, otlptracehttp.WithInsecure())
		} else {
			tlsConfig, err := buildTLSConfig(config)
			if err != nil {
				return nil, fmt.Errorf("failed to build TLS config for traces: %w", err)
			}
			if tlsConfig != nil {
				otlpOpts = append(otlpOpts, otlptracehttp.WithTLSClientConfig(tlsConfig))
			}
		}

		exporter, err = otlptracehttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
	} else {
		return trace.NewTracerProvider(trace.WithResource(res)), nil
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter,
			trace.WithBatchTimeout(5*time.Second),
		),
		trace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, config *OTelConfig) (*metric.MeterProvider, error) {
	var readers []metric.Reader

	if config.UsePrometheus {
		prometheusExporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		config.PrometheusHandler = prometheusExporter
		readers = append(readers, prometheusExporter)
	}

	if config.UseOTLPMetrics {
		if config.DevelopmentMode {
			stdoutExporter, err := stdoutmetric.New()
			if err != nil {
				return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
			}
			readers = append(readers, metric.NewPeriodicReader(stdoutExporter,
				metric.WithInterval(10*time.Second)))
		} else {
			otlpOpts := []otlpmetrichttp.Option{
				otlpmetrichttp.WithEndpoint(config.OTLPMetricsURL),
			}

			if config.InsecureOTLP {
				otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
			} else {
				tlsConfig, err := buildTLSConfig(config)
				if err != nil {
					return nil, fmt.Errorf("failed to build TLS config for metrics: %w", err)
				}
				if tlsConfig != nil {
					otlpOpts = append(otlpOpts, otlpmetrichttp.WithTLSClientConfig(tlsConfig))
				}
			}

			otlpExporter, err := otlpmetrichttp.New(ctx, otlpOpts...)
			if err != nil {
				return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
			}
			readers = append(readers, metric.NewPeriodicReader(otlpExporter,
				metric.WithInterval(60*time.Second)))
		}
	}

	if len(readers) == 0 {
		return metric.NewMeterProvider(metric.WithResource(res)), nil
	}

	opts := []metric.Option{metric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, metric.WithReader(reader))
	}

	return metric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context, res *resource.Resource, config *OTelConfig) (*log.LoggerProvider, error) {
	var exporter log.Exporter
	var err error

	if config.DevelopmentMode {
		exporter, err = stdoutlog.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout log exporter: %w", err)
		}
	} else if config.UseOTLPLogs {
		otlpOpts := []otlploghttp.Option{
			otlploghttp.WithEndpoint(config.OTLPLogsURL),
		}

		if config.InsecureOTLP {
			otlpOpts = append(otlpOpts, otlploghttp.WithInsecure())
		} else {
			tlsConfig, err := buildTLSConfig(config)
			if err != nil {
				return nil, fmt.Errorf("failed to build TLS config for logs: %w", err)
			}
			if tlsConfig != nil {
				otlpOpts = append(otlpOpts, otlploghttp.WithTLSClientConfig(tlsConfig))
			}
		}

		exporter, err = otlploghttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
	} else {
		return log.NewLoggerProvider(log.WithResource(res)), nil
	}

	return log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	), nil
}
