package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/viant/jobqueue"

// Kind classifies a span.
type Kind int

const (
	// KindPhase marks an orchestrator step or phase.
	KindPhase Kind = iota
	// KindArena marks an outbound call to the arena.
	KindArena
)

var (
	providerOnce sync.Once
	providerErr  error
)

// Init installs a tracer provider exporting to outputFile, or to stdout when
// outputFile is empty. Only the first call takes effect.
func Init(serviceName, serviceVersion, outputFile string) error {
	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writer = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer))
	if err != nil {
		return err
	}
	return InitWithExporter(serviceName, serviceVersion, exporter)
}

// InitWithExporter installs a tracer provider using exporter; nil is a no-op.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(), resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		))
		if err != nil {
			providerErr = err
			return
		}
		otel.SetTracerProvider(sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		))
	})
	return providerErr
}

// Span is a nil-safe handle on an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// StartSpan starts a child span of whatever ctx carries.
func StartSpan(ctx context.Context, name string, kind Kind) (context.Context, *Span) {
	spanKind := trace.SpanKindInternal
	if kind == KindArena {
		spanKind = trace.SpanKindClient
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithSpanKind(spanKind))
	return ctx, &Span{span: span}
}

// WithTurn records the session and turn.
func (s *Span) WithTurn(sessionID string, turn int) *Span {
	if s == nil {
		return s
	}
	s.span.SetAttributes(attribute.String("jobqueue.session", sessionID), attribute.Int("jobqueue.turn", turn))
	return s
}

// WithState records the orchestrator state the span ended in.
func (s *Span) WithState(state string) *Span {
	if s == nil {
		return s
	}
	s.span.SetAttributes(attribute.String("jobqueue.state", state))
	return s
}

// WithRequest records an arena HTTP exchange; a zero code means no response.
func (s *Span) WithRequest(method, URL string, code int) *Span {
	if s == nil {
		return s
	}
	s.span.SetAttributes(attribute.String("http.method", method), attribute.String("http.url", URL))
	if code > 0 {
		s.span.SetAttributes(attribute.Int("http.status_code", code))
	}
	return s
}

// SetStatus records err on the span, or an OK status when err is nil.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		return
	}
	s.span.SetStatus(codes.Ok, "")
}

// EndSpan sets the status from err and ends the span.
func EndSpan(s *Span, err error) {
	if s == nil {
		return
	}
	s.SetStatus(err)
	s.span.End()
}

// SpanFromContext returns the recording span carried by ctx, if any.
func SpanFromContext(ctx context.Context) (*Span, bool) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil, false
	}
	return &Span{span: span}, true
}
