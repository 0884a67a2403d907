package internal

import (
	"bufio"
	"net"
	"net/http"
)

// ResponseWriter records the status and size of a response and runs
// hooks right before the header is sent, so late cookies and headers can
// still be added. A request is served on one goroutine, so it is not
// synchronized.
type ResponseWriter struct {
	http.ResponseWriter
	hooks   []func()
	status  int
	size    int64
	written bool
}

// NewResponseWriter wraps w.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// OnBeforeWrite registers fn to run once before the header is written.
func (w *ResponseWriter) OnBeforeWrite(fn func()) {
	w.hooks = append(w.hooks, fn)
}

func (w *ResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.begin(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.begin(w.status)
		w.ResponseWriter.WriteHeader(w.status)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *ResponseWriter) begin(code int) {
	w.written = true
	w.status = code
	hooks := w.hooks
	w.hooks = nil
	for _, fn := range hooks {
		fn()
	}
}

// Status returns the response status.
func (w *ResponseWriter) Status() int { return w.status }

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Written reports whether the header has been sent.
func (w *ResponseWriter) Written() bool { return w.written }

func (w *ResponseWriter) Flush() {
	if !w.written {
		w.WriteHeader(w.status)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
