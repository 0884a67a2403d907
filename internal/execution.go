package internal

import (
	"context"

	"github.com/dmitrymomot/stride/pkg/urlbinding"
)

// Stage is a step of the request lifecycle.
type Stage int

const (
	RequestInit Stage = iota
	ActionBeanResolution
	HandlerResolution
	BindingAndValidation
	CustomValidation
	EventHandling
	ResolutionExecution
	RequestComplete
)

var stageNames = [...]string{
	"RequestInit",
	"ActionBeanResolution",
	"HandlerResolution",
	"BindingAndValidation",
	"CustomValidation",
	"EventHandling",
	"ResolutionExecution",
	"RequestComplete",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(?)"
	}
	return stageNames[s]
}

// Stages lists every stage in execution order.
func Stages() []Stage {
	return []Stage{
		RequestInit, ActionBeanResolution, HandlerResolution, BindingAndValidation,
		CustomValidation, EventHandling, ResolutionExecution, RequestComplete,
	}
}

// Interceptor wraps lifecycle stages. Intercept usually does some work,
// calls ec.Proceed and returns its result; returning a non-nil
// Resolution without proceeding stops the request.
type Interceptor interface {
	Intercept(ec *ExecutionContext) (Resolution, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(ec *ExecutionContext) (Resolution, error)

func (f InterceptorFunc) Intercept(ec *ExecutionContext) (Resolution, error) { return f(ec) }

// StageFunc is the work of a lifecycle stage.
type StageFunc func(ec *ExecutionContext) (Resolution, error)

type registeredInterceptor struct {
	interceptor Interceptor
	stages      []Stage
}

// interceptorChains holds the interceptors per stage, outermost first.
type interceptorChains [len(stageNames)][]Interceptor

func buildChains(registered []registeredInterceptor) *interceptorChains {
	var chains interceptorChains
	for _, r := range registered {
		stages := r.stages
		if len(stages) == 0 {
			stages = Stages()
		}
		for _, s := range stages {
			if s >= 0 && int(s) < len(chains) {
				chains[s] = append(chains[s], r.interceptor)
			}
		}
	}
	return &chains
}

// ExecutionContext is the state of one pass through the lifecycle. It is
// created per dispatch and never shared between requests.
type ExecutionContext struct {
	ctx                   *requestContext
	chains                *interceptorChains
	bean                  any
	beanDef               *ActionBean
	event                 *eventSpec
	match                 *urlbinding.Match
	resolution            Resolution
	target                StageFunc
	path                  string
	chain                 []Interceptor
	next                  int
	stage                 Stage
	resolutionFromHandler bool
	// forwarded is set when the request reached this bean via Forward.
	forwarded bool
	// prebound is set when a forward carried an already bound bean.
	prebound bool
}

type executionKey struct{}

// ExecutionContextFrom returns the execution context of the request that
// ctx belongs to.
func ExecutionContextFrom(ctx context.Context) (*ExecutionContext, bool) {
	ec, ok := ctx.Value(executionKey{}).(*ExecutionContext)
	return ec, ok
}

// Stage returns the stage being executed.
func (ec *ExecutionContext) Stage() Stage { return ec.stage }

// Context returns the request context.
func (ec *ExecutionContext) Context() Context { return ec.ctx }

// Bean returns the action bean, or nil before ActionBeanResolution.
func (ec *ExecutionContext) Bean() any { return ec.bean }

// SetBean replaces the action bean. Interceptors of ActionBeanResolution
// may supply their own instance; it must have the bean's type.
func (ec *ExecutionContext) SetBean(bean any) { ec.bean = bean }

// ActionBean returns the registration of the resolved bean.
func (ec *ExecutionContext) ActionBean() *ActionBean { return ec.beanDef }

// BeanName returns the short name of the resolved bean.
func (ec *ExecutionContext) BeanName() string {
	if ec.beanDef == nil {
		return ""
	}
	return ec.beanDef.name
}

// Event returns the resolved event name.
func (ec *ExecutionContext) Event() string {
	if ec.event == nil {
		return ""
	}
	return ec.event.name
}

// Resolution returns the resolution produced so far.
func (ec *ExecutionContext) Resolution() Resolution { return ec.resolution }

// Forwarded reports whether this dispatch was started by a
// ForwardResolution.
func (ec *ExecutionContext) Forwarded() bool { return ec.forwarded }

// ResolutionFromHandler reports whether the resolution came from the
// event handler rather than from an interceptor or validation.
func (ec *ExecutionContext) ResolutionFromHandler() bool { return ec.resolutionFromHandler }

// Wrap runs target for the current stage inside the stage's interceptors.
func (ec *ExecutionContext) Wrap(target StageFunc) (Resolution, error) {
	ec.chain = ec.chains[ec.stage]
	ec.next = 0
	ec.target = target
	return ec.Proceed()
}

// Proceed calls the next interceptor of the chain, or the stage itself
// after the last one.
func (ec *ExecutionContext) Proceed() (Resolution, error) {
	if ec.next < len(ec.chain) {
		i := ec.chain[ec.next]
		ec.next++
		return i.Intercept(ec)
	}
	if ec.target == nil {
		return nil, nil
	}
	return ec.target(ec)
}

// run executes one stage.
func (ec *ExecutionContext) run(stage Stage, target StageFunc) (Resolution, error) {
	ec.stage = stage
	return ec.Wrap(target)
}

// hookInterceptor runs the bean's Before and After hooks around every
// stage. It is always the outermost interceptor.
type hookInterceptor struct{}

func (hookInterceptor) Intercept(ec *ExecutionContext) (Resolution, error) {
	if res, err := runHooks(ec, false, nil); err != nil || res != nil {
		return res, err
	}
	res, err := ec.Proceed()
	if err != nil {
		return res, err
	}
	return runHooks(ec, true, res)
}

// runHooks calls the matching hooks of the current stage. A Before hook
// result stops at once; an After hook result replaces res.
func runHooks(ec *ExecutionContext, after bool, res Resolution) (Resolution, error) {
	def := ec.beanDef
	if def == nil || ec.bean == nil {
		return res, nil
	}
	for _, h := range def.hooks {
		if h.after != after || h.stage != ec.stage || !appliesTo(h.cfg.on, ec.Event()) {
			continue
		}
		out, err := h.fn(ec.bean, ec.ctx)
		if err != nil {
			return nil, err
		}
		if out == nil {
			continue
		}
		if !after {
			return out, nil
		}
		res = out
	}
	return res, nil
}
