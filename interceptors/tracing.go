package interceptors

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/stride/internal"
)

const tracerName = "github.com/dmitrymomot/stride"

// Span attribute keys.
const (
	AttrAction    = attribute.Key("stride.action")
	AttrEvent     = attribute.Key("stride.event")
	AttrStage     = attribute.Key("stride.stage")
	AttrBinding   = attribute.Key("stride.binding")
	AttrForwarded = attribute.Key("stride.forwarded")
)

type requestSpanKey struct{}

// dispatchSpan is the span of one dispatch. A forwarded dispatch sees the
// span of the dispatch that forwarded it under the same key.
type dispatchSpan struct {
	span   trace.Span
	parent trace.Span
	ec     *internal.ExecutionContext
}

// TracingOption configures the Tracing interceptor.
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
}

// WithTracerProvider sets the provider. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(cfg *tracingConfig) { cfg.provider = tp }
}

// WithPropagator sets how a remote parent span is read from request
// headers. The global propagator is used otherwise.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(cfg *tracingConfig) { cfg.propagator = p }
}

// Tracing returns an interceptor that opens one span per dispatch and a
// child span per lifecycle stage. Register it for every stage:
//
//	stride.WithInterceptor(interceptors.Tracing(interceptors.WithTracerProvider(tp)))
//
// The dispatch span starts at RequestInit and ends after RequestComplete.
// Its parent is the span already on the request context, as set by
// otelhttp, or one propagated in the request headers. Each stage span is
// installed on the request context while the stage runs, so spans started
// by handlers and hooks from the Context become its children. A forward
// opens a nested dispatch span under the stage that forwarded.
func Tracing(opts ...TracingOption) internal.Interceptor {
	cfg := &tracingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	if cfg.propagator == nil {
		cfg.propagator = otel.GetTextMapPropagator()
	}
	tracer := cfg.provider.Tracer(tracerName)

	return internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
		c := ec.Context()
		stage := ec.Stage()

		if stage == internal.RequestInit {
			parent := context.Context(c)
			if !trace.SpanContextFromContext(c).IsValid() {
				parent = cfg.propagator.Extract(c, propagation.HeaderCarrier(c.Request().Header))
			}
			ctx, span := tracer.Start(parent, "stride.dispatch",
				trace.WithAttributes(attribute.String("url.path", c.Request().URL.Path)),
			)
			c.SetContext(ctx)
			c.Set(requestSpanKey{}, &dispatchSpan{span: span, parent: trace.SpanFromContext(parent), ec: ec})
		}

		var ds *dispatchSpan
		if v, ok := c.Get(requestSpanKey{}).(*dispatchSpan); ok && v.ec == ec {
			ds = v
		}

		current := trace.SpanFromContext(c)
		ctx, span := tracer.Start(c, "stride."+stage.String(),
			trace.WithAttributes(AttrStage.String(stage.String())),
		)
		c.SetContext(ctx)
		res, err := ec.Proceed()
		c.SetContext(trace.ContextWithSpan(c, current))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if ds != nil {
				ds.span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()

		if stage == internal.RequestComplete && ds != nil {
			ds.span.SetAttributes(
				AttrAction.String(ec.BeanName()),
				AttrEvent.String(ec.Event()),
			)
			if status := c.ResponseWriter().Status(); status > 0 {
				ds.span.SetAttributes(attribute.Int("http.response.status_code", status))
			}
			if def := ec.ActionBean(); def != nil {
				ds.span.SetAttributes(AttrBinding.String(def.Pattern()))
			}
			if ec.Forwarded() {
				ds.span.SetAttributes(AttrForwarded.Bool(true))
			}
			ds.span.End()
			c.SetContext(trace.ContextWithSpan(c, ds.parent))
		}
		return res, err
	})
}
