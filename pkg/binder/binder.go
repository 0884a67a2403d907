package binder

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/dmitrymomot/stride/pkg/binding"
	"github.com/dmitrymomot/stride/pkg/convert"
	"github.com/dmitrymomot/stride/pkg/i18n"
	"github.com/dmitrymomot/stride/pkg/logger"
	"github.com/dmitrymomot/stride/pkg/propexpr"
	"github.com/dmitrymomot/stride/pkg/validator"
)

// Options controls a single Bind call.
type Options struct {
	// Event is the resolved event name. Its parameter is not bound and
	// required rules are filtered by it.
	Event string
	// Validate enables required, length, mask and range checks and the
	// bean's Validate method.
	Validate bool
	// Format parses numbers and dates. Defaults to US English.
	Format *i18n.LocaleFormat
	// FieldsPresent lists properties rendered on the submitting page.
	// Listed properties that were not submitted are reset to zero.
	FieldsPresent []string
}

// Binder writes request parameters into action beans.
type Binder struct {
	converters *convert.Registry
	policies   *binding.Manager
	logger     *slog.Logger
	maxIndex   int
}

// Option configures a Binder.
type Option func(*Binder)

// WithConverters sets the converter registry.
func WithConverters(r *convert.Registry) Option {
	return func(b *Binder) { b.converters = r }
}

// WithPolicies sets the binding policy manager.
func WithPolicies(m *binding.Manager) Option {
	return func(b *Binder) { b.policies = m }
}

// WithLogger sets the logger for skipped parameters.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) { b.logger = l }
}

// WithMaxIndex caps the slice indexes a parameter name may address.
// Defaults to propexpr.DefaultMaxIndex.
func WithMaxIndex(n int) Option {
	return func(b *Binder) { b.maxIndex = n }
}

// New creates a Binder with built-in converters and allow-all policies
// unless configured otherwise.
func New(opts ...Option) *Binder {
	b := &Binder{maxIndex: propexpr.DefaultMaxIndex}
	for _, opt := range opts {
		opt(b)
	}
	if b.converters == nil {
		b.converters = convert.NewRegistry()
	}
	if b.policies == nil {
		b.policies = binding.NewManager()
	}
	if b.logger == nil {
		b.logger = logger.NewNope()
	}
	return b
}

// Converters returns the converter registry.
func (b *Binder) Converters() *convert.Registry { return b.converters }

// Policies returns the binding policy manager.
func (b *Binder) Policies() *binding.Manager { return b.policies }

type boundValue struct {
	name  string
	meta  *validator.Metadata
	value any
}

var fileType = reflect.TypeFor[multipart.FileHeader]()

// Bind copies params and files into bean, a pointer to a struct.
//
// Parameters are processed in sorted order. A parameter that cannot be
// parsed, is denied by the bean's policy or names no property is skipped.
// An index out of range is reported as an invalid value.
// Conversion and validation failures are collected per field and do not
// stop other fields from binding. The returned error is reserved for an
// unusable bean or invalid validation rules.
func (b *Binder) Bind(ctx context.Context, bean any, params url.Values, files map[string][]*multipart.FileHeader, opts Options) (validator.ValidationErrors, error) {
	rv := reflect.ValueOf(bean)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidBean
	}
	meta, err := validator.For(rv.Type())
	if err != nil {
		return nil, err
	}
	rules, err := b.policies.For(rv.Type())
	if err != nil {
		return nil, err
	}
	format := opts.Format
	if format == nil {
		format = i18n.FormatEnUS()
	}

	errs := validator.ValidationErrors{}
	if opts.Validate {
		checkRequired(meta, opts.Event, params, files, errs)
	}

	var bound []boundValue
	submitted := make(map[string]bool)
	for _, name := range sortedNames(params, files) {
		submitted[strings.ToLower(name)] = true
		if IsReserved(name) {
			continue
		}
		if opts.Event != "" && isEventParam(name, opts.Event) {
			b.warnShadowedEvent(ctx, bean, name, params[name])
			continue
		}
		if errs.Has(name) {
			continue
		}

		e, md, err := b.prepare(ctx, bean, name, meta, rules)
		if err != nil {
			if badIndex(err) {
				errs.Add(name, conversionError(name, fieldLabel(name, nil), first(params[name]), err))
			}
			continue
		}

		if e.ScalarType() == fileType {
			b.bindFiles(ctx, e, name, files[name])
			continue
		}
		if t := deref(e.Type()); t.Kind() == reflect.Map {
			b.logger.DebugContext(ctx, "binder: cannot bind parameter to a map, address an entry instead",
				slog.String("param", name))
			continue
		}

		values := slices.Clone(params[name])
		if md == nil || md.Trim {
			for i := range values {
				values[i] = strings.TrimSpace(values[i])
			}
		}

		if opts.Validate && md != nil {
			for _, v := range values {
				if fe := md.CheckString(name, v); len(fe) > 0 {
					errs.Add(name, fe...)
				}
			}
			if errs.Has(name) {
				continue
			}
		}

		value, convErrs, ok := b.convert(ctx, e, name, md, values, format)
		if !ok {
			continue
		}
		if len(convErrs) > 0 {
			errs.Add(name, convErrs...)
			continue
		}

		if value == nil {
			err = e.SetZero()
		} else {
			err = e.SetValue(value)
		}
		if err != nil {
			b.logger.DebugContext(ctx, "binder: cannot set property",
				slog.String("param", name), slog.String("error", err.Error()))
			continue
		}
		if value != nil && md != nil {
			bound = append(bound, boundValue{name: name, meta: md, value: value})
		}
	}

	for _, name := range opts.FieldsPresent {
		if submitted[strings.ToLower(name)] || IsReserved(name) || errs.Has(name) {
			continue
		}
		e, _, err := b.prepare(ctx, bean, name, meta, rules)
		if err != nil {
			continue
		}
		if err := e.SetZero(); err != nil {
			b.logger.DebugContext(ctx, "binder: cannot reset property",
				slog.String("param", name), slog.String("error", err.Error()))
		}
	}

	if opts.Validate {
		for _, bv := range bound {
			if errs.Has(bv.name) {
				continue
			}
			if fe := bv.meta.CheckValue(bv.name, bv.value); len(fe) > 0 {
				errs.Add(bv.name, fe...)
			}
		}
		if errs.Empty() {
			validateBean(bean, errs)
		}
	}

	return errs, nil
}

// prepare evaluates name against bean and applies the binding policy and
// the metadata to the property path it resolves to, so "user[password]"
// is checked as "user.password".
func (b *Binder) prepare(ctx context.Context, bean any, name string, meta *validator.Set, rules *binding.Rules) (*propexpr.Evaluation, *validator.Metadata, error) {
	expr, err := propexpr.Parse(name)
	if err != nil {
		b.logger.DebugContext(ctx, "binder: skipping invalid property expression",
			slog.String("param", name), slog.String("error", err.Error()))
		return nil, nil, err
	}
	e, err := propexpr.Evaluate(expr, bean, propexpr.WithMaxIndex(b.maxIndex))
	if err != nil {
		b.logger.DebugContext(ctx, "binder: skipping parameter without property",
			slog.String("param", name), slog.String("error", err.Error()))
		return nil, nil, err
	}
	path := e.Path()
	if !rules.Allowed(path) || !allowedTypes(rules, e.Fields()) {
		b.logger.DebugContext(ctx, "binder: binding denied by policy",
			slog.String("param", name), slog.String("property", path))
		return nil, nil, errDenied
	}
	md, _ := meta.Get(path)
	if md != nil && md.Ignore {
		return nil, nil, errDenied
	}
	return e, md, nil
}

func allowedTypes(rules *binding.Rules, fields []reflect.StructField) bool {
	for _, f := range fields {
		if !rules.AllowedType(f.Type) {
			return false
		}
	}
	return true
}

func badIndex(err error) bool {
	var pe *propexpr.PropertyError
	return errors.As(err, &pe) && errors.Is(err, propexpr.ErrEvaluation)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// convert converts the non-empty values. The result is nil when nothing
// was submitted, a slice for collection properties and the first value
// otherwise. ok is false when the property has no usable converter.
func (b *Binder) convert(ctx context.Context, e *propexpr.Evaluation, name string, md *validator.Metadata, values []string, f *i18n.LocaleFormat) (any, []*validator.Error, bool) {
	scalar := e.ScalarType()

	var conv convert.Converter
	if field, ok := e.Field(); ok {
		c, err := b.converters.ForField(field, scalar)
		if err != nil {
			b.logger.WarnContext(ctx, "binder: field names an unknown converter",
				slog.String("param", name), slog.String("error", err.Error()))
			return nil, nil, false
		}
		conv = c
	} else {
		conv = b.converters.Lookup(scalar)
	}
	if conv == nil && scalar.Kind() != reflect.String && !isBytes(scalar) {
		b.logger.DebugContext(ctx, "binder: no converter for property",
			slog.String("param", name), slog.String("type", scalar.String()))
		return nil, nil, false
	}

	label := fieldLabel(name, md)
	var (
		out  []reflect.Value
		errs []*validator.Error
	)
	for _, s := range values {
		if s == "" {
			continue
		}
		if conv == nil {
			out = append(out, reflect.ValueOf(s).Convert(scalar))
			continue
		}
		v, err := conv.Convert(s, scalar, f)
		if err != nil {
			errs = append(errs, conversionError(name, label, s, err))
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Type() != scalar && rv.Type().ConvertibleTo(scalar) {
			rv = rv.Convert(scalar)
		}
		out = append(out, rv)
	}
	if len(errs) > 0 || len(out) == 0 {
		return nil, errs, true
	}

	if isCollection(e.Type()) {
		slice := reflect.MakeSlice(reflect.SliceOf(scalar), 0, len(out))
		slice = reflect.Append(slice, out...)
		return slice.Interface(), nil, true
	}
	return out[0].Interface(), nil, true
}

func (b *Binder) bindFiles(ctx context.Context, e *propexpr.Evaluation, name string, files []*multipart.FileHeader) {
	files = slices.DeleteFunc(slices.Clone(files), func(fh *multipart.FileHeader) bool {
		return fh == nil || (fh.Filename == "" && fh.Size == 0)
	})
	var err error
	switch {
	case len(files) == 0:
		err = e.SetZero()
	case isCollection(e.Type()):
		err = e.SetValue(files)
	default:
		err = e.SetValue(files[0])
	}
	if err != nil {
		b.logger.DebugContext(ctx, "binder: cannot set file property",
			slog.String("param", name), slog.String("error", err.Error()))
	}
}

func (b *Binder) warnShadowedEvent(ctx context.Context, bean any, name string, values []string) {
	if allEmpty(values, true) {
		return
	}
	expr, err := propexpr.Parse(name)
	if err != nil {
		return
	}
	if _, err := propexpr.Evaluate(expr, bean); err == nil {
		b.logger.WarnContext(ctx, "binder: event parameter matches a bean property and is not bound",
			slog.String("param", name))
	}
}

func validateBean(bean any, errs validator.ValidationErrors) {
	v, ok := bean.(validator.Validatable)
	if !ok {
		return
	}
	err := v.Validate()
	if err == nil {
		return
	}
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		errs.Merge(ve)
		return
	}
	errs.AddGlobal(validator.NewMessage("", err.Error()))
}

func conversionError(name, label, input string, err error) *validator.Error {
	var ce *convert.Error
	var ve *validator.Error
	if errors.As(err, &ce) {
		values := maps.Clone(ce.Params)
		if values == nil {
			values = map[string]any{}
		}
		values["field"] = label
		ve = validator.NewError(name, ce.Key, values)
	} else {
		ve = validator.NewError(name, validator.KeyInvalid, map[string]any{"field": label, "value": input})
	}
	ve.Value = input
	return ve
}

func fieldLabel(name string, md *validator.Metadata) string {
	if md != nil {
		return md.FieldLabel()
	}
	prop := validator.StripIndexes(name)
	if i := strings.LastIndexByte(prop, '.'); i >= 0 {
		return prop[i+1:]
	}
	return prop
}

func isEventParam(name, event string) bool {
	return name == event || name == event+".x" || name == event+".y"
}

func sortedNames(params url.Values, files map[string][]*multipart.FileHeader) []string {
	names := make([]string, 0, len(params)+len(files))
	names = append(names, slices.Collect(maps.Keys(params))...)
	for name := range files {
		if _, ok := params[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func isCollection(t reflect.Type) bool {
	t = deref(t)
	return (t.Kind() == reflect.Slice && !isBytes(t)) || t.Kind() == reflect.Array
}
