package i18n

import (
	"embed"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang is used when no default language is configured.
const DefaultLang = "en"

// M is a set of named placeholder values.
type M = map[string]any

//go:embed defaults
var defaultsFS embed.FS

// Catalog holds localized messages per language. It is immutable after
// New returns and safe for concurrent use.
type Catalog struct {
	messages    map[string]map[string]string
	matcher     language.Matcher
	missing     func(lang, key string)
	defaultLang string
	languages   []string
	noDefaults  bool
}

// Option configures a Catalog during construction.
type Option func(*Catalog) error

// New creates a Catalog. The built-in validation and conversion messages
// sit beneath user messages unless WithoutDefaults is given, so
// applications only override the keys they care about.
func New(opts ...Option) (*Catalog, error) {
	c := &Catalog{
		messages:    make(map[string]map[string]string),
		defaultLang: DefaultLang,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("i18n: apply option: %w", err)
		}
	}
	if c.defaultLang == "" {
		return nil, ErrEmptyLanguage
	}
	c.languages = c.buildLanguages()

	if !c.noDefaults {
		base := &Catalog{messages: make(map[string]map[string]string)}
		if err := loadYAML(base, defaultsFS, "defaults"); err != nil {
			return nil, err
		}
		for lang, msgs := range base.messages {
			dst := c.bucket(lang)
			for k, v := range msgs {
				if _, ok := dst[k]; !ok {
					dst[k] = v
				}
			}
		}
	}

	tags := make([]language.Tag, 0, len(c.languages))
	for _, l := range c.languages {
		tags = append(tags, language.Make(l))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Catalog {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang string) Option {
	return func(c *Catalog) error {
		if lang == "" {
			return ErrEmptyLanguage
		}
		c.defaultLang = lang
		return nil
	}
}

// WithMessages adds messages for a language. Nested maps are flattened
// into dotted keys.
func WithMessages(lang string, messages map[string]any) Option {
	return func(c *Catalog) error {
		if lang == "" {
			return ErrEmptyLanguage
		}
		maps.Copy(c.bucket(lang), flatten(messages, ""))
		return nil
	}
}

// WithoutDefaults skips the built-in message set.
func WithoutDefaults() Option {
	return func(c *Catalog) error {
		c.noDefaults = true
		return nil
	}
}

// WithMissingKeyHandler registers a callback for keys found in no language.
func WithMissingKeyHandler(fn func(lang, key string)) Option {
	return func(c *Catalog) error {
		c.missing = fn
		return nil
	}
}

// T returns the message for key in lang with placeholders replaced. It
// falls back to the base language ("de" for "de-AT"), then the default
// language, then the key itself.
func (c *Catalog) T(lang, key string, placeholders ...M) string {
	for _, l := range c.fallbacks(lang) {
		if msg, ok := c.messages[l][key]; ok {
			return ReplacePlaceholders(msg, merge(placeholders...))
		}
	}
	if c.missing != nil {
		c.missing(lang, key)
	}
	return key
}

// Has reports whether key exists in lang or one of its fallbacks.
func (c *Catalog) Has(lang, key string) bool {
	for _, l := range c.fallbacks(lang) {
		if _, ok := c.messages[l][key]; ok {
			return true
		}
	}
	return false
}

// Languages returns the available languages, default first.
func (c *Catalog) Languages() []string {
	return c.languages
}

// DefaultLanguage returns the fallback language.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLang
}

// Match picks the best available language for an Accept-Language header.
// An empty or unmatched header yields the default language.
func (c *Catalog) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return c.defaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.defaultLang
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.defaultLang
	}
	return c.languages[idx]
}

func (c *Catalog) bucket(lang string) map[string]string {
	b, ok := c.messages[lang]
	if !ok {
		b = make(map[string]string)
		c.messages[lang] = b
	}
	return b
}

func (c *Catalog) fallbacks(lang string) []string {
	out := []string{lang}
	if base, _, ok := strings.Cut(lang, "-"); ok && base != "" {
		out = append(out, base)
	}
	if lang != c.defaultLang {
		out = append(out, c.defaultLang)
	}
	return out
}

// buildLanguages lists the default language first, the rest sorted.
func (c *Catalog) buildLanguages() []string {
	langs := []string{c.defaultLang}
	rest := make([]string, 0, len(c.messages))
	for l := range c.messages {
		if l != c.defaultLang {
			rest = append(rest, l)
		}
	}
	slices.Sort(rest)
	return append(langs, rest...)
}

func merge(placeholders ...M) M {
	switch len(placeholders) {
	case 0:
		return nil
	case 1:
		return placeholders[0]
	}
	out := make(M)
	for _, p := range placeholders {
		maps.Copy(out, p)
	}
	return out
}

func flatten(data map[string]any, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			maps.Copy(out, flatten(val, key))
		case map[string]string:
			for sk, sv := range val {
				out[key+"."+sk] = sv
			}
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return out
}
