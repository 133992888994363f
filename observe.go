package meili

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kailas-cloud/meili/internal/metrics"
	"github.com/kailas-cloud/meili/internal/transport/rest"
)

const tracerName = "github.com/kailas-cloud/meili"

// clientMetrics holds prometheus metrics registered for the client.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meili",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Total client operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "meili",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Client operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := metrics.RegisterOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := metrics.RegisterOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// observer provides logging, metrics and tracing for client operations.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
	tracer  trace.Tracer
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer, tp trace.TracerProvider) (*observer, error) {
	var m *clientMetrics
	if reg != nil {
		var err error
		m, err = newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &observer{logger: logger, metrics: m, tracer: tp.Tracer(tracerName)}, nil
}

func (o *observer) observe(
	span trace.Span, op, requestID string, start time.Time, err error,
) {
	dur := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status(err)).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(
			dur.Seconds(),
		)
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"op", op,
				"duration", dur,
				"request_id", requestID,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"op", op,
				"duration", dur,
				"request_id", requestID,
			)
		}
	}
}

func status(err error) string {
	var (
		remote *RemoteError
		netErr *TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.As(err, &remote):
		return "remote_error"
	case errors.As(err, &netErr):
		return "transport_error"
	}
	return "error"
}

// caller binds the shared transport to the observer. Client and every Index
// issue their requests through it.
type caller struct {
	transport *rest.Transport
	obs       *observer
	timeout   time.Duration
}

func (c *caller) do(ctx context.Context, op string, req rest.Request, out any) (err error) {
	requestID := rest.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = rest.WithRequestID(ctx, requestID)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := c.obs.tracer.Start(ctx, "meili."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("meili.path", req.Path),
			attribute.String("meili.request_id", requestID),
		),
	)
	start := time.Now()
	defer func() { c.obs.observe(span, op, requestID, start, err) }()

	return c.transport.Do(ctx, req, out)
}
