package internal

import (
	"context"

	"github.com/dmitrymomot/stride/pkg/logger"
)

// ExtractorSource extracts a value from the request context.
// Returns the value and true if found, or ("", false) if not present.
type ExtractorSource = func(Context) (string, bool)

// Extractor tries multiple sources in order and returns the first match.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor creates an Extractor that tries the given sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value. Returns ("", false) if all
// sources miss.
func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(v string) (string, bool) { return v, v != "" }

// FromHeader returns a source that reads a request header.
func FromHeader(name string) ExtractorSource {
	return func(c Context) (string, bool) { return nonEmpty(c.Header(name)) }
}

// FromParam returns a source that reads a request parameter, URL binding
// values included.
func FromParam(name string) ExtractorSource {
	return func(c Context) (string, bool) { return nonEmpty(c.Param(name)) }
}

// FromCookie returns a source that reads a plain cookie.
func FromCookie(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		ck, err := c.Request().Cookie(name)
		if err != nil {
			return "", false
		}
		return nonEmpty(ck.Value)
	}
}

// ActionExtractor adds the short name of the dispatched action bean to
// log records as "action".
func ActionExtractor() logger.ContextExtractor {
	return logger.StringExtractor("action", func(ctx context.Context) string {
		if ec, ok := ExecutionContextFrom(ctx); ok {
			return ec.BeanName()
		}
		return ""
	})
}

// EventExtractor adds the resolved event to log records as "event".
func EventExtractor() logger.ContextExtractor {
	return logger.StringExtractor("event", func(ctx context.Context) string {
		if ec, ok := ExecutionContextFrom(ctx); ok {
			return ec.Event()
		}
		return ""
	})
}

// StageExtractor adds the lifecycle stage being executed as "stage".
func StageExtractor() logger.ContextExtractor {
	return logger.StringExtractor("stage", func(ctx context.Context) string {
		if ec, ok := ExecutionContextFrom(ctx); ok {
			return ec.Stage().String()
		}
		return ""
	})
}
