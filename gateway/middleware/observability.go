package middleware

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"jungle/observability"
)

const (
	RequestIDHeader                = "X-Request-ID"
	ContextKeyRequestID contextKey = "gateway.request_id"
	defaultServiceName             = "jungled"
)

// Observability traces, meters and logs each request of a module.
type Observability struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func NewObservability(serviceName string, logger *slog.Logger) *Observability {
	if logger == nil {
		logger = slog.Default()
	}
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	o := &Observability{logger: logger, tracer: otel.Tracer(serviceName)}
	o.initMeter(serviceName)
	return o
}

func (o *Observability) initMeter(serviceName string) {
	meter := otel.GetMeterProvider().Meter(serviceName)
	requests, err := meter.Int64Counter("jungle.http.requests")
	if err != nil {
		meter = noop.NewMeterProvider().Meter(serviceName)
		requests, _ = meter.Int64Counter("jungle.http.requests")
	}
	latency, err := meter.Float64Histogram("jungle.http.duration_ms")
	if err != nil {
		latency, _ = noop.NewMeterProvider().Meter(serviceName).Float64Histogram("jungle.http.duration_ms")
	}
	o.requests = requests
	o.latency = latency
}

func (o *Observability) Middleware(module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
			ctx, span := o.tracer.Start(ctx, module+" "+r.Method, trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("jungle.module", module),
				attribute.String("request.id", requestID),
			))
			defer span.End()

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(recorder, r)

			route := module
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", recorder.status),
			)
			if recorder.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(recorder.status))
			}
			duration := time.Since(start)
			observability.ModuleMetrics().Observe(module, route, recorder.status, duration)
			attrs := metric.WithAttributes(
				attribute.String("module", module),
				attribute.String("route", route),
				attribute.Int("status", recorder.status),
			)
			o.requests.Add(ctx, 1, attrs)
			o.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
			o.logger.Info("request",
				"request_id", requestID,
				"method", r.Method,
				"route", route,
				"status", recorder.status,
				"duration", duration)
		})
	}
}

// RequestIDFromContext returns the identifier assigned to the request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
