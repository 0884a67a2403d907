// Package interceptors provides lifecycle interceptors for stride.
//
// Logging writes one structured line per dispatch. Tracing opens an
// OpenTelemetry span per dispatch with a child span per lifecycle stage.
// Both are meant to be registered for every stage:
//
//	app, err := stride.New(
//	    stride.WithInterceptor(interceptors.Tracing(interceptors.WithTracerProvider(tp))),
//	    stride.WithInterceptor(interceptors.Logging(log)),
//	)
package interceptors
