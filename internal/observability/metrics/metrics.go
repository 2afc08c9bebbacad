package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes CRM domain instruments.
type Metrics struct {
	customersCreated  metric.Int64Counter
	bulkCustomerRows  metric.Int64Counter
	productsCreated   metric.Int64Counter
	productsRestocked metric.Int64Counter
	ordersCreated     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "crm"
	}
	meter := provider.Meter(name)

	customersCreated, err := meter.Int64Counter("crm_customers_created_total")
	if err != nil {
		return nil, err
	}
	bulkCustomerRows, err := meter.Int64Counter("crm_bulk_customer_rows_total")
	if err != nil {
		return nil, err
	}
	productsCreated, err := meter.Int64Counter("crm_products_created_total")
	if err != nil {
		return nil, err
	}
	productsRestocked, err := meter.Int64Counter("crm_products_restocked_total")
	if err != nil {
		return nil, err
	}
	ordersCreated, err := meter.Int64Counter("crm_orders_created_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		customersCreated:  customersCreated,
		bulkCustomerRows:  bulkCustomerRows,
		productsCreated:   productsCreated,
		productsRestocked: productsRestocked,
		ordersCreated:     ordersCreated,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordCustomerCreated increments created customers by source ("single" or "bulk").
func (m *Metrics) RecordCustomerCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.customersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBulkCustomerRows counts bulk rows by result.
func (m *Metrics) RecordBulkCustomerRows(ctx context.Context, created, failed int) {
	if m == nil {
		return
	}
	if created > 0 {
		m.bulkCustomerRows.Add(ctx, int64(created), metric.WithAttributes(FilterAttributes(attribute.String("result", "created"))...))
	}
	if failed > 0 {
		m.bulkCustomerRows.Add(ctx, int64(failed), metric.WithAttributes(FilterAttributes(attribute.String("result", "failed"))...))
	}
}

func (m *Metrics) RecordProductCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.productsCreated.Add(ctx, 1)
}

func (m *Metrics) RecordProductsRestocked(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.productsRestocked.Add(ctx, int64(count))
}

// RecordOrderCreated increments created orders, labelled by item count bucket.
func (m *Metrics) RecordOrderCreated(ctx context.Context, itemCount int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("size", orderSizeBucket(itemCount)))
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func orderSizeBucket(items int) string {
	switch {
	case items <= 1:
		return "single"
	case items <= 5:
		return "small"
	default:
		return "large"
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":      {},
	"result":      {},
	"size":        {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
