package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/stride/pkg/binder"
	"github.com/dmitrymomot/stride/pkg/flash"
)

// Resolution tells the dispatcher what to send once an event handler or
// interceptor is done.
type Resolution interface {
	Execute(c Context) error
}

// ResolutionFunc adapts a function to Resolution.
type ResolutionFunc func(c Context) error

func (f ResolutionFunc) Execute(c Context) error { return f(c) }

// Component renders HTML. templ components satisfy it.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

const headerHXRequest = "HX-Request"

func isHTMX(c Context) bool { return c.Header(headerHXRequest) == "true" }

var errForeignContext = errors.New("stride: resolution needs the dispatcher's Context")

func dispatcherContext(c Context) (*requestContext, error) {
	rc, ok := c.(*requestContext)
	if !ok {
		return nil, errForeignContext
	}
	return rc, nil
}

// ForwardResolution dispatches another path inside the same request. The
// current bean and its validation errors are carried along, so a
// forwarded view sees what the user submitted.
type ForwardResolution struct {
	params url.Values
	path   string
	event  string
}

// Forward creates a forward to path, relative to the context path.
func Forward(path string) *ForwardResolution {
	return &ForwardResolution{path: path}
}

// Event forces the event of the target action.
func (f *ForwardResolution) Event(name string) *ForwardResolution {
	f.event = name
	return f
}

// With adds a request parameter for the target.
func (f *ForwardResolution) With(name string, values ...any) *ForwardResolution {
	f.params = addParams(f.params, name, values)
	return f
}

// Path returns the target path.
func (f *ForwardResolution) Path() string { return f.path }

func (f *ForwardResolution) Execute(c Context) error {
	rc, err := dispatcherContext(c)
	if err != nil {
		return err
	}
	return rc.app.forward(rc, f)
}

// RedirectResolution sends the client to another URL. Messages added
// during the request, and the bean when Flash is set, travel through the
// flash scope. HTMX requests get an HX-Redirect header instead.
type RedirectResolution struct {
	params     url.Values
	url        string
	anchor     string
	status     int
	flash      bool
	skipPrefix bool
}

// Redirect creates a 302 redirect. URLs starting with "/" get the
// context path prepended.
func Redirect(target string) *RedirectResolution {
	return &RedirectResolution{url: target, status: http.StatusFound}
}

// Permanent switches to 301.
func (r *RedirectResolution) Permanent() *RedirectResolution {
	r.status = http.StatusMovedPermanently
	return r
}

// SeeOther switches to 303, the usual answer to a POST.
func (r *RedirectResolution) SeeOther() *RedirectResolution {
	r.status = http.StatusSeeOther
	return r
}

// With adds a query parameter. Values are formatted with fmt.Sprint.
func (r *RedirectResolution) With(name string, values ...any) *RedirectResolution {
	r.params = addParams(r.params, name, values)
	return r
}

// Anchor sets the URL fragment.
func (r *RedirectResolution) Anchor(anchor string) *RedirectResolution {
	r.anchor = strings.TrimPrefix(anchor, "#")
	return r
}

// Flash carries the current action bean to the next request.
func (r *RedirectResolution) Flash() *RedirectResolution {
	r.flash = true
	return r
}

// Absolute leaves the URL as given, without the context path.
func (r *RedirectResolution) Absolute() *RedirectResolution {
	r.skipPrefix = true
	return r
}

// URL returns the target as given.
func (r *RedirectResolution) URL() string { return r.url }

func (r *RedirectResolution) Execute(c Context) error {
	rc, err := dispatcherContext(c)
	if err != nil {
		return err
	}

	params := r.params
	key, err := rc.saveFlash(c, r.flash)
	if err != nil {
		return err
	}
	if key != "" {
		params = addParams(params, binder.ParamFlashKey, []any{key})
	}

	target, err := r.build(rc.app.contextPath, params)
	if err != nil {
		return err
	}

	if isHTMX(c) {
		c.SetHeader("HX-Redirect", target)
		c.Response().WriteHeader(http.StatusOK)
		return nil
	}
	http.Redirect(c.Response(), c.Request(), target, r.status)
	return nil
}

func (r *RedirectResolution) build(contextPath string, params url.Values) (string, error) {
	target := r.url
	if !r.skipPrefix && strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		cp := strings.TrimSuffix(contextPath, "/")
		if cp != "" && target != cp && !strings.HasPrefix(target, cp+"/") {
			target = cp + target
		}
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("stride: redirect target %q: %w", r.url, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	if r.anchor != "" {
		u.Fragment = r.anchor
	}
	return u.String(), nil
}

// saveFlash stores the outgoing flash scope and returns its key, or ""
// when there is nothing to carry.
func (c *requestContext) saveFlash(ctx context.Context, withBean bool) (string, error) {
	scope := &flash.Scope{Messages: c.messages}
	if withBean {
		if ec, ok := ExecutionContextFrom(ctx); ok && ec.bean != nil && ec.beanDef != nil {
			if err := scope.PutBean(ec.beanDef.Path(), ec.bean); err != nil {
				return "", err
			}
		}
	}
	return c.app.flash.Save(ctx, scope)
}

// StreamResolution copies a reader to the response. A reader that is
// also an io.Closer is closed afterwards.
type StreamResolution struct {
	lastModified time.Time
	reader       io.Reader
	contentType  string
	filename     string
	disposition  string
	length       int64
}

// Stream creates a stream of r with the given content type.
func Stream(r io.Reader, contentType string) *StreamResolution {
	return &StreamResolution{reader: r, contentType: contentType, length: -1}
}

// Attachment asks the browser to save the stream as filename.
func (s *StreamResolution) Attachment(filename string) *StreamResolution {
	s.filename, s.disposition = filename, "attachment"
	return s
}

// Inline names the stream but lets the browser display it.
func (s *StreamResolution) Inline(filename string) *StreamResolution {
	s.filename, s.disposition = filename, "inline"
	return s
}

// Length sets Content-Length.
func (s *StreamResolution) Length(n int64) *StreamResolution {
	s.length = n
	return s
}

// LastModified sets the Last-Modified header.
func (s *StreamResolution) LastModified(t time.Time) *StreamResolution {
	s.lastModified = t
	return s
}

func (s *StreamResolution) Execute(c Context) error {
	if closer, ok := s.reader.(io.Closer); ok {
		defer closer.Close()
	}

	h := c.Response().Header()
	if s.contentType != "" {
		h.Set("Content-Type", s.contentType)
	}
	if s.disposition != "" {
		h.Set("Content-Disposition", mime.FormatMediaType(s.disposition, map[string]string{"filename": s.filename}))
	}
	if s.length >= 0 {
		h.Set("Content-Length", strconv.FormatInt(s.length, 10))
	}
	if !s.lastModified.IsZero() {
		h.Set("Last-Modified", s.lastModified.UTC().Format(http.TimeFormat))
	}
	c.Response().WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.Response(), s.reader); err != nil {
		return fmt.Errorf("stride: stream response: %w", err)
	}
	return nil
}

// Error creates a resolution that hands an HTTPError with status and
// message to the App's ErrorHandler.
func Error(status int, message string, opts ...HTTPErrorOption) Resolution {
	return ResolutionFunc(func(Context) error {
		return NewHTTPError(status, message, opts...)
	})
}

// JSON writes v as JSON.
func JSON(status int, v any) Resolution {
	return ResolutionFunc(func(c Context) error {
		c.SetHeader("Content-Type", "application/json; charset=utf-8")
		c.Response().WriteHeader(status)
		return json.NewEncoder(c.Response()).Encode(v)
	})
}

// Text writes s as plain text.
func Text(status int, s string) Resolution {
	return ResolutionFunc(func(c Context) error {
		c.SetHeader("Content-Type", "text/plain; charset=utf-8")
		c.Response().WriteHeader(status)
		_, err := io.WriteString(c.Response(), s)
		return err
	})
}

// NoContent writes only a status.
func NoContent(status int) Resolution {
	return ResolutionFunc(func(c Context) error {
		c.Response().WriteHeader(status)
		return nil
	})
}

// RenderResolution renders a component as HTML. The output is buffered so
// a failing component never leaves half a page behind.
type RenderResolution struct {
	full    Component
	partial Component
	status  int
}

// Render creates a resolution rendering component with status.
func Render(status int, component Component) *RenderResolution {
	return &RenderResolution{full: component, status: status}
}

// Partial renders p instead for HTMX requests, always with status 200.
func (r *RenderResolution) Partial(p Component) *RenderResolution {
	r.partial = p
	return r
}

func (r *RenderResolution) Execute(c Context) error {
	component, status := r.full, r.status
	if r.partial != nil && isHTMX(c) {
		component, status = r.partial, http.StatusOK
	}

	var buf bytes.Buffer
	if err := component.Render(c, &buf); err != nil {
		return fmt.Errorf("stride: render: %w", err)
	}
	c.SetHeader("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(status)
	_, err := buf.WriteTo(c.Response())
	return err
}

func addParams(params url.Values, name string, values []any) url.Values {
	if params == nil {
		params = url.Values{}
	}
	for _, v := range values {
		params.Add(name, fmt.Sprint(v))
	}
	return params
}
