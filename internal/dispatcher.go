package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stride/pkg/binder"
	"github.com/dmitrymomot/stride/pkg/flash"
	"github.com/dmitrymomot/stride/pkg/sanitizer"
	"github.com/dmitrymomot/stride/pkg/urlbinding"
	"github.com/dmitrymomot/stride/pkg/validator"
)

// beanCookie identifies the client for session-scoped beans.
const beanCookie = "stride_bean"

// forwardState travels with a forwarded request.
type forwardState struct {
	// beans holds the bound beans of the requests that forwarded here.
	beans map[*ActionBean]any
	event string
	depth int
}

// serveAction is the catch-all route: every request that no static mount
// claims is dispatched to an action bean.
func (a *App) serveAction(w http.ResponseWriter, r *http.Request) {
	c := newContext(w, r, a)
	if err := a.dispatch(c, r.URL.Path); err != nil {
		a.handleError(c, err)
	}
}

// dispatch runs the lifecycle for path and executes the resulting
// resolution. RequestComplete always runs.
func (a *App) dispatch(c *requestContext, path string) (err error) {
	ec := &ExecutionContext{ctx: c, chains: a.chains, forwarded: c.forward != nil}
	c.Set(executionKey{}, ec)

	defer func() {
		_, cerr := ec.run(RequestComplete, func(*ExecutionContext) (Resolution, error) { return nil, nil })
		if cerr == nil {
			return
		}
		if err == nil {
			err = cerr
			return
		}
		a.logger.ErrorContext(c, "request complete failed", slog.String("error", cerr.Error()))
	}()

	res, err := a.lifecycle(ec, path)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	ec.resolution = res
	out, err := ec.run(ResolutionExecution, func(ec *ExecutionContext) (Resolution, error) {
		return nil, ec.resolution.Execute(ec.ctx)
	})
	if err != nil {
		return err
	}
	if out != nil {
		return out.Execute(c)
	}
	return nil
}

// lifecycle runs the stages up to EventHandling. The first resolution
// returned by a stage ends it.
func (a *App) lifecycle(ec *ExecutionContext, path string) (Resolution, error) {
	stages := [...]struct {
		fn    StageFunc
		stage Stage
	}{
		{a.requestInit, RequestInit},
		{func(ec *ExecutionContext) (Resolution, error) { return a.resolveBean(ec, path) }, ActionBeanResolution},
		{a.resolveHandler, HandlerResolution},
		{a.bindAndValidate, BindingAndValidation},
		{a.customValidation, CustomValidation},
	}
	for _, s := range stages {
		res, err := ec.run(s.stage, s.fn)
		if err != nil || res != nil {
			return res, err
		}
		if err := ec.ready(s.stage); err != nil {
			return nil, err
		}
	}

	if res, err := a.handleValidationErrors(ec, false); err != nil || res != nil {
		return res, err
	}

	res, err := ec.run(EventHandling, a.handleEvent)
	if err != nil && ec.ctx.mergeErrors(err) {
		return a.handleValidationErrors(ec, true)
	}
	return res, err
}

// ready checks that a stage left what the later ones need. An
// interceptor may return without proceeding.
func (ec *ExecutionContext) ready(s Stage) error {
	switch {
	case s == ActionBeanResolution && (ec.beanDef == nil || ec.bean == nil):
		return fmt.Errorf("%w: %s", ErrActionNotFound, ec.path)
	case s == HandlerResolution && ec.event == nil:
		return fmt.Errorf("%w: %s", ErrNoHandler, ec.path)
	}
	return nil
}

func (a *App) requestInit(ec *ExecutionContext) (Resolution, error) {
	c := ec.ctx
	if err := c.parse(); err != nil {
		return nil, err
	}
	if ec.forwarded {
		return nil, nil
	}

	c.sourcePage = a.unseal(c, c.params.Get(binder.ParamSourcePage))

	if key := c.params.Get(binder.ParamFlashKey); key != "" {
		scope, err := a.flash.Load(c, key)
		switch {
		case err == nil:
			c.incoming = scope
		case errors.Is(err, flash.ErrNotFound):
			a.logger.DebugContext(c, "flash scope expired or unknown", slog.String("key", key))
		default:
			a.logger.WarnContext(c, "load flash scope", slog.String("error", err.Error()))
		}
	}
	return nil, nil
}

func (a *App) resolveBean(ec *ExecutionContext, path string) (Resolution, error) {
	c := ec.ctx
	ec.path = urlbinding.NormalizePath(path, a.contextPath)

	def, match, err := a.resolver.Resolve(ec.path)
	if err != nil {
		return nil, err
	}
	ec.beanDef, ec.match = def, match
	c.actionPath = def.Path()
	c.mergeBindingValues(match.Values)

	if ec.bean != nil {
		if reflect.TypeOf(ec.bean) != reflect.PointerTo(def.typ) {
			return nil, fmt.Errorf("stride: interceptor supplied %T for %s", ec.bean, def.typ)
		}
	} else if prev, ok := c.forwardedBean(def); ok {
		ec.bean, ec.prebound = prev, true
	} else if def.session {
		bean, err := a.sessionBean(c, def)
		if err != nil {
			return nil, err
		}
		ec.bean = bean
	} else {
		ec.bean = def.newInstance()
		a.restoreFlashed(c, def, ec.bean)
	}

	if ca, ok := ec.bean.(ContextAware); ok {
		ca.SetContext(c)
	}
	return nil, nil
}

func (c *requestContext) forwardedBean(def *ActionBean) (any, bool) {
	if c.forward == nil {
		return nil, false
	}
	bean, ok := c.forward.beans[def]
	return bean, ok
}

// restoreFlashed fills bean with the state flashed by the previous
// request, if any.
func (a *App) restoreFlashed(c *requestContext, def *ActionBean, bean any) {
	if c.incoming == nil {
		return
	}
	found, err := c.incoming.Bean(def.Path(), bean)
	if err != nil {
		a.logger.WarnContext(c, "restore flashed bean", slog.String("bean", def.name), slog.String("error", err.Error()))
		return
	}
	if found {
		a.logger.DebugContext(c, "restored flashed bean", slog.String("bean", def.name))
	}
}

// sessionBean returns the client's instance of a session-scoped bean,
// creating it on first use.
func (a *App) sessionBean(c *requestContext, def *ActionBean) (any, error) {
	id, err := a.cookies.GetSealed(c.request, beanCookie)
	if err != nil || uuid.Validate(id) != nil {
		id = uuid.NewString()
		a.cookies.SetSealed(c.rw, beanCookie, id, 0)
	}

	// Concurrent first requests of one client share a single instance.
	key := id + ":" + def.Path()
	bean, err, _ := a.sessionGroup.Do(key, func() (any, error) {
		if bean, err := a.sessionBeans.Get(c, key); err == nil {
			return bean, nil
		}
		bean := def.newInstance()
		if err := a.sessionBeans.Set(c, key, bean, 0); err != nil {
			return nil, fmt.Errorf("stride: store session bean: %w", err)
		}
		return bean, nil
	})
	return bean, err
}

func (a *App) resolveHandler(ec *ExecutionContext) (Resolution, error) {
	c := ec.ctx
	req := eventRequest{
		params: c.params,
		match:  ec.match,
		method: c.request.Method,
		path:   ec.path,
	}
	if c.forward != nil {
		req.forced = c.forward.event
		req.method = ""
	}
	e, err := ec.beanDef.resolveEvent(req)
	if err != nil {
		return nil, err
	}
	ec.event = e
	c.event = e.name
	return nil, nil
}

func (a *App) bindAndValidate(ec *ExecutionContext) (Resolution, error) {
	if ec.prebound || ec.event.dontBind {
		return nil, nil
	}
	c := ec.ctx
	errs, err := a.binder.Bind(c, ec.bean, c.params, c.files, binder.Options{
		Event:         ec.event.name,
		Validate:      !ec.event.dontValidate && !ec.forwarded,
		Format:        c.Format(),
		FieldsPresent: a.fieldsPresent(c, c.params[binder.ParamFieldsPresent]),
	})
	if err != nil {
		return nil, err
	}
	c.errors.Merge(errs)
	return nil, nil
}

// fieldsPresent opens the sealed __fp values. Values that fail to open
// are dropped.
func (a *App) fieldsPresent(c *requestContext, sealed []string) []string {
	if len(sealed) == 0 {
		return nil
	}
	opened := make([]string, 0, len(sealed))
	for _, s := range sealed {
		if v := a.unseal(c, s); v != "" {
			opened = append(opened, v)
		}
	}
	return binder.SplitFieldsPresent(opened)
}

func (a *App) unseal(c *requestContext, sealed string) string {
	if sealed == "" {
		return ""
	}
	v, err := a.cookies.Codec().Open(sealed)
	if err != nil {
		a.logger.DebugContext(c, "dropping tampered sealed parameter", slog.String("error", err.Error()))
		return ""
	}
	return v
}

func (a *App) customValidation(ec *ExecutionContext) (Resolution, error) {
	if ec.prebound || ec.forwarded || ec.event.dontValidate {
		return nil, nil
	}
	c := ec.ctx
	for _, v := range ec.beanDef.sortedValidations(ec.event.name) {
		if !a.shouldValidate(v.cfg.when, c.errors) {
			continue
		}
		if err := v.fn(ec.bean, c); err != nil {
			if !c.mergeErrors(err) {
				return nil, err
			}
		}
	}
	return nil, nil
}

func (a *App) shouldValidate(when ValidateWhen, errs ValidationErrors) bool {
	switch when {
	case ValidateAlways:
		return true
	case ValidateNoErrors:
		return errs.Empty()
	}
	return a.alwaysInvokeValidate || errs.Empty()
}

// mergeErrors adds validation errors carried by err to the request's
// errors. It reports false when err carries none.
func (c *requestContext) mergeErrors(err error) bool {
	var (
		ve ValidationErrors
		fe *validator.Error
	)
	switch {
	case errors.As(err, &ve):
		if reflect.ValueOf(ve).UnsafePointer() != reflect.ValueOf(c.errors).UnsafePointer() {
			c.errors.Merge(ve)
		}
	case errors.As(err, &fe):
		if fe.Field == "" || fe.Field == validator.GlobalKey {
			c.errors.AddGlobal(fe)
		} else {
			c.errors.Add(fe.Field, fe)
		}
	default:
		return false
	}
	return true
}

// handleValidationErrors prepares the collected errors and, when there
// are any, picks the response: the bean's own handler, a forward to the
// source page, or the App's ValidationFailureHandler. Forwarded requests
// and events ignoring binding errors go on to the handler unless force is
// set.
func (a *App) handleValidationErrors(ec *ExecutionContext, force bool) (Resolution, error) {
	c := ec.ctx
	a.fillInErrors(c, ec)
	if c.errors.Empty() {
		return nil, nil
	}
	if !force && (ec.forwarded || ec.event.ignoreBindingErrors) {
		return nil, nil
	}

	if h, ok := ec.bean.(ValidationErrorHandler); ok {
		res, err := h.HandleValidationErrors(c, c.errors)
		if err != nil {
			return nil, err
		}
		a.fillInErrors(c, ec)
		if res != nil {
			return res, nil
		}
		if c.errors.Empty() {
			return nil, nil
		}
	}

	a.logger.DebugContext(c, "validation failed",
		slog.String("bean", ec.BeanName()),
		slog.String("event", ec.Event()),
		slog.Int("errors", len(c.errors.All())),
	)
	if c.sourcePage != "" {
		return Forward(c.sourcePage), nil
	}
	return a.validationFailureHandler(c, c.errors)
}

// fillInErrors records the action on each error, encodes its value for
// echoing and translates its message. Errors already prepared keep their
// action and value.
func (a *App) fillInErrors(c *requestContext, ec *ExecutionContext) {
	if c.errors.Empty() {
		return
	}
	for _, e := range c.errors.All() {
		e.Prepare(c.actionPath, ec.BeanName(), sanitizer.Text)
	}
	c.errors.Translate(c.Translator().TranslateMessage)
}

func (a *App) handleEvent(ec *ExecutionContext) (Resolution, error) {
	res, err := ec.event.handler(ec.bean, ec.ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		a.logger.DebugContext(ec.ctx, "event handler returned no resolution",
			slog.String("bean", ec.BeanName()),
			slog.String("event", ec.Event()),
		)
		return nil, nil
	}
	ec.resolutionFromHandler = true
	return res, nil
}

// forward dispatches f inside the current request. Beans bound so far and
// the validation errors go along.
func (a *App) forward(rc *requestContext, f *ForwardResolution) error {
	state := &forwardState{beans: make(map[*ActionBean]any), event: f.event}
	if rc.forward != nil {
		maps.Copy(state.beans, rc.forward.beans)
		state.depth = rc.forward.depth
	}
	state.depth++
	if state.depth > a.maxForwards {
		return fmt.Errorf("%w: %s", ErrForwardLoop, f.path)
	}
	if ec, ok := ExecutionContextFrom(rc); ok && ec.beanDef != nil && ec.bean != nil {
		state.beans[ec.beanDef] = ec.bean
	}

	params := maps.Clone(rc.params)
	for k, vs := range f.params {
		params[k] = slices.Concat(params[k], vs)
	}

	fc := &requestContext{
		app:        a,
		request:    rc.request,
		rw:         rc.rw,
		params:     params,
		files:      rc.files,
		errors:     rc.errors,
		translator: rc.translator,
		incoming:   rc.incoming,
		forward:    state,
		messages:   rc.messages,
		sourcePage: rc.sourcePage,
		parsed:     true,
	}
	a.logger.DebugContext(rc, "forwarding", slog.String("path", f.path), slog.Int("depth", state.depth))
	return a.dispatch(fc, f.path)
}

// handleError hands err to the ErrorHandler unless the response is
// already under way.
func (a *App) handleError(c *requestContext, err error) {
	if c.Written() {
		a.logger.ErrorContext(c, "error after response started", slog.String("error", err.Error()))
		return
	}
	he := AsHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		a.logger.ErrorContext(c, "request failed", slog.Int("status", he.Code), slog.String("error", err.Error()))
	} else {
		a.logger.DebugContext(c, "request rejected", slog.Int("status", he.Code), slog.String("error", err.Error()))
	}
	if herr := a.errorHandler(c, he); herr != nil {
		a.logger.ErrorContext(c, "error handler failed", slog.String("error", herr.Error()))
	}
}

// defaultValidationFailureHandler answers 422 with the errors as JSON.
func defaultValidationFailureHandler(_ Context, errs ValidationErrors) (Resolution, error) {
	return JSON(http.StatusUnprocessableEntity, map[string]any{"errors": errs}), nil
}
