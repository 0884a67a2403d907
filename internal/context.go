package internal

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/stride/pkg/flash"
	"github.com/dmitrymomot/stride/pkg/i18n"
	"github.com/dmitrymomot/stride/pkg/validator"
)

// ValidationErrors maps field names to their validation errors.
type ValidationErrors = validator.ValidationErrors

// TranslatorKey is the context key the I18n middleware stores the
// request's *i18n.Translator under.
type TranslatorKey struct{}

// Context is the per-request state handed to middleware, interceptors,
// event handlers and resolutions. It implements context.Context by
// delegating to the request's context.
type Context interface {
	context.Context

	// Request returns the current request.
	Request() *http.Request

	// Response returns the response writer.
	Response() http.ResponseWriter

	// ResponseWriter returns the wrapped writer with status tracking.
	ResponseWriter() *ResponseWriter

	// Params returns the request parameters merged with the values
	// extracted from the URL binding. Submitted values win.
	Params() url.Values

	// Param returns the first value of a parameter.
	Param(name string) string

	// Files returns the uploaded files of a multipart request.
	Files() map[string][]*multipart.FileHeader

	// Header returns a request header.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// ActionPath returns the URL binding of the resolved action bean.
	ActionPath() string

	// Event returns the name of the resolved event.
	Event() string

	// ValidationErrors returns the errors collected so far. The map is
	// live: validation methods add to it directly.
	ValidationErrors() ValidationErrors

	// SourcePage returns the page that submitted the request, taken
	// from the sealed _sourcePage parameter.
	SourcePage() string

	// AddMessage records a message for the user. Messages survive a
	// redirect through the flash scope.
	AddMessage(msg string)

	// Messages returns the messages flashed by the previous request
	// followed by those added in this one.
	Messages() []string

	// Written reports whether the response header has been sent.
	Written() bool

	// Logger returns the application logger.
	Logger() *slog.Logger

	// Set stores a request-scoped value.
	Set(key, value any)

	// Get returns a value stored with Set, or nil.
	Get(key any) any

	// SetContext replaces the request context for the rest of the
	// dispatch. ctx must derive from the current one, as the contexts
	// returned by tracer.Start do, or earlier Set values are lost.
	SetContext(ctx context.Context)

	// Translator returns the request's translator. Without the I18n
	// middleware it uses the catalog's default language.
	Translator() *i18n.Translator

	// T translates key in the request language.
	T(key string, placeholders ...i18n.M) string

	// Language returns the request language.
	Language() string

	// Format returns the locale format used to parse input.
	Format() *i18n.LocaleFormat

	// Seal encrypts a value for the _sourcePage and __fp hidden fields.
	Seal(value string) string
}

type requestContext struct {
	app        *App
	request    *http.Request
	rw         *ResponseWriter
	params     url.Values
	files      map[string][]*multipart.FileHeader
	errors     ValidationErrors
	translator *i18n.Translator
	incoming   *flash.Scope
	forward    *forwardState
	messages   []string
	actionPath string
	event      string
	sourcePage string
	parsed     bool
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w)
	}
	return &requestContext{
		app:     app,
		request: r,
		rw:      rw,
		errors:  ValidationErrors{},
	}
}

// parse reads the query and body parameters once.
func (c *requestContext) parse() error {
	if c.parsed {
		return nil
	}
	c.parsed = true

	r := c.request
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(c.app.maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return NewHTTPError(http.StatusBadRequest, "malformed request parameters", WithCause(err))
	}

	c.params = make(url.Values, len(r.Form))
	for k, v := range r.Form {
		c.params[k] = v
	}
	if r.MultipartForm != nil {
		c.files = r.MultipartForm.File
	}
	return nil
}

// mergeBindingValues adds URL binding values that were not submitted.
func (c *requestContext) mergeBindingValues(values map[string]string) {
	for k, v := range values {
		if _, ok := c.params[k]; !ok {
			c.params[k] = []string{v}
		}
	}
}

func (c *requestContext) Request() *http.Request { return c.request }

func (c *requestContext) Response() http.ResponseWriter { return c.rw }

func (c *requestContext) ResponseWriter() *ResponseWriter { return c.rw }

func (c *requestContext) Params() url.Values {
	if c.params == nil {
		_ = c.parse()
	}
	return c.params
}

func (c *requestContext) Param(name string) string {
	return c.Params().Get(name)
}

func (c *requestContext) Files() map[string][]*multipart.FileHeader { return c.files }

func (c *requestContext) Header(name string) string { return c.request.Header.Get(name) }

func (c *requestContext) SetHeader(name, value string) { c.rw.Header().Set(name, value) }

func (c *requestContext) ActionPath() string { return c.actionPath }

func (c *requestContext) Event() string { return c.event }

func (c *requestContext) ValidationErrors() ValidationErrors { return c.errors }

func (c *requestContext) SourcePage() string { return c.sourcePage }

func (c *requestContext) AddMessage(msg string) { c.messages = append(c.messages, msg) }

func (c *requestContext) Messages() []string {
	if c.incoming == nil {
		return c.messages
	}
	out := make([]string, 0, len(c.incoming.Messages)+len(c.messages))
	out = append(out, c.incoming.Messages...)
	return append(out, c.messages...)
}

func (c *requestContext) Written() bool { return c.rw.Written() }

func (c *requestContext) Logger() *slog.Logger { return c.app.logger }

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any { return c.request.Context().Value(key) }

func (c *requestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Translator() *i18n.Translator {
	if tr, ok := c.Get(TranslatorKey{}).(*i18n.Translator); ok {
		return tr
	}
	if c.translator == nil {
		c.translator = i18n.NewTranslator(c.app.catalog, "", nil)
	}
	return c.translator
}

func (c *requestContext) T(key string, placeholders ...i18n.M) string {
	return c.Translator().T(key, placeholders...)
}

func (c *requestContext) Language() string { return c.Translator().Language() }

func (c *requestContext) Format() *i18n.LocaleFormat { return c.Translator().Format() }

func (c *requestContext) Seal(value string) string { return c.app.cookies.Codec().Seal(value) }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }

func (c *requestContext) Done() <-chan struct{} { return c.request.Context().Done() }

func (c *requestContext) Err() error { return c.request.Context().Err() }

func (c *requestContext) Value(key any) any { return c.request.Context().Value(key) }
