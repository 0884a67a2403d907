package cookie

import (
	"errors"
	"net/http"
)

// Manager reads and writes cookies with shared attributes. Sealed cookies
// go through its Codec.
type Manager struct {
	codec    *Codec
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

// Option configures a Manager.
type Option func(*Manager)

// WithPath sets the cookie path. Default: "/".
func WithPath(path string) Option {
	return func(m *Manager) { m.path = path }
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) { m.domain = domain }
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithSameSite sets the SameSite attribute. Default: Lax.
func WithSameSite(s http.SameSite) Option {
	return func(m *Manager) { m.sameSite = s }
}

// New creates a Manager. Cookies are always HttpOnly.
func New(codec *Codec, opts ...Option) *Manager {
	m := &Manager{codec: codec, path: "/", sameSite: http.SameSiteLaxMode}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Codec returns the codec used for sealed cookies.
func (m *Manager) Codec() *Codec { return m.codec }

// Get returns the raw value of cookie name.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie. maxAge follows http.Cookie semantics.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.build(name, value, maxAge))
}

// Delete expires cookie name.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.build(name, "", -1))
}

// GetSealed returns the opened value of a cookie written by SetSealed.
func (m *Manager) GetSealed(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.codec.Open(raw)
}

// SetSealed writes value encrypted.
func (m *Manager) SetSealed(w http.ResponseWriter, name, value string, maxAge int) {
	m.Set(w, name, m.codec.Seal(value), maxAge)
}

func (m *Manager) build(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	}
}
