package internal_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stride/internal"
	"github.com/dmitrymomot/stride/pkg/validator"
)

type userAction struct {
	ctx  internal.Context
	Name string
	ID   int
}

func (a *userAction) SetContext(c internal.Context) { a.ctx = c }

func (a *userAction) View(c internal.Context) (internal.Resolution, error) {
	if a.ctx != c {
		return nil, fmt.Errorf("context not injected")
	}
	return internal.Text(http.StatusOK, fmt.Sprintf("view %d", a.ID)), nil
}

func (a *userAction) Save(c internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, fmt.Sprintf("save %d %s", a.ID, a.Name)), nil
}

func (a *userAction) Delete(c internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, "delete "+c.Event()), nil
}

func userBean(opts ...internal.BeanOption) *internal.ActionBean {
	opts = append([]internal.BeanOption{
		internal.DefaultEvent("view", (*userAction).View),
		internal.Event("save", (*userAction).Save, internal.Methods(http.MethodPost)),
		internal.Event("delete", (*userAction).Delete),
	}, opts...)
	return internal.Bean[userAction]("/user/{id}/{$event}", opts...)
}

func TestDispatch_Events(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(userBean()))

	tests := []struct {
		name   string
		method string
		target string
		form   url.Values
		code   int
		body   string
	}{
		{"default event", http.MethodGet, "/user/5", nil, http.StatusOK, "view 5"},
		{"trailing slash", http.MethodGet, "/user/5/", nil, http.StatusOK, "view 5"},
		{"event from binding", http.MethodPost, "/user/5/save", url.Values{"name": {"Ann"}}, http.StatusOK, "save 5 Ann"},
		{"event restricted to POST", http.MethodGet, "/user/5/save", nil, http.StatusMethodNotAllowed, ""},
		{"event parameter", http.MethodGet, "/user/5?delete=", nil, http.StatusOK, "delete delete"},
		{"image button", http.MethodGet, "/user/5?delete.x=3&delete.y=4", nil, http.StatusOK, "delete delete"},
		{"event name parameter", http.MethodGet, "/user/5?_eventName=delete", nil, http.StatusOK, "delete delete"},
		{"unknown event name parameter is ignored", http.MethodGet, "/user/5?_eventName=nope", nil, http.StatusOK, "view 5"},
		{"two event parameters", http.MethodGet, "/user/5?delete=&view=", nil, http.StatusBadRequest, ""},
		{"unknown event falls back to the default", http.MethodGet, "/user/5/nope", nil, http.StatusOK, "view 5"},
		{"path event and event parameter differ", http.MethodGet, "/user/5/view?delete=", nil, http.StatusBadRequest, ""},
		{"path event and image button differ", http.MethodGet, "/user/5/view?delete.x=1", nil, http.StatusBadRequest, ""},
		{"path event and event parameter agree", http.MethodGet, "/user/5/delete?delete=", nil, http.StatusOK, "delete delete"},
		{"submitted id wins over path", http.MethodGet, "/user/5?id=7", nil, http.StatusOK, "view 7"},
		{"unknown path", http.MethodGet, "/nothing/here", nil, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := do(app, tt.method, tt.target, tt.form)
			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

type catalogAction struct{}

func (a *catalogAction) List(internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, "list"), nil
}

func (a *catalogAction) Export(internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, "export"), nil
}

func TestDispatch_NoDefaultEvent(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(internal.Bean[catalogAction]("/catalog.action",
		internal.Event("list", (*catalogAction).List),
		internal.Event("export", (*catalogAction).Export),
	)))

	assert.Equal(t, http.StatusNotFound, do(app, http.MethodGet, "/catalog.action", nil).Code)
	assert.Equal(t, "export", do(app, http.MethodGet, "/catalog.action/export", nil).Body.String())
	assert.Equal(t, "list", do(app, http.MethodGet, "/catalog.action?list", nil).Body.String())
}

func TestResolver_ResolveByName(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(
		userBean(),
		internal.Bean[pingAction]("/ping", internal.Name("dup"), internal.Event("ping", (*pingAction).Ping)),
		internal.Bean[catalogAction]("/catalog", internal.Name("dup"), internal.Event("list", (*catalogAction).List)),
	))

	b, err := app.Resolver().ResolveByName("USER")
	require.NoError(t, err)
	assert.Equal(t, "/user/{id}/{$event}", b.Pattern())
	assert.Equal(t, []string{"view", "save", "delete"}, b.Events())
	assert.Equal(t, "view", b.DefaultEventName())

	_, err = app.Resolver().ResolveByName("dup")
	require.ErrorIs(t, err, internal.ErrAmbiguousName)

	_, err = app.Resolver().ResolveByName("missing")
	require.ErrorIs(t, err, internal.ErrActionNotFound)
}

// recorder collects interceptor calls of one request.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) interceptor(name string) internal.Interceptor {
	return internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
		r.add(name + ">" + ec.Stage().String())
		res, err := ec.Proceed()
		r.add(name + "<")
		return res, err
	})
}

func TestInterceptors(t *testing.T) {
	t.Parallel()

	t.Run("outer to inner in registration order", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		app := newApp(t,
			internal.WithBeans(userBean()),
			internal.WithInterceptor(rec.interceptor("a"), internal.EventHandling),
			internal.WithInterceptor(rec.interceptor("b"), internal.EventHandling),
		)

		w := do(app, http.MethodGet, "/user/1", nil)
		require.Equal(t, "view 1", w.Body.String())
		assert.Equal(t, []string{"a>EventHandling", "b>EventHandling", "b<", "a<"}, rec.list())
	})

	t.Run("all stages when none listed", func(t *testing.T) {
		t.Parallel()
		var stages []string
		app := newApp(t,
			internal.WithBeans(userBean()),
			internal.WithInterceptor(internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
				stages = append(stages, ec.Stage().String())
				return ec.Proceed()
			})),
		)

		do(app, http.MethodGet, "/user/1", nil)
		var want []string
		for _, s := range internal.Stages() {
			want = append(want, s.String())
		}
		assert.Equal(t, want, stages)
	})

	t.Run("short circuit skips later stages", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		app := newApp(t,
			internal.WithBeans(userBean()),
			internal.WithInterceptor(internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
				if ec.Context().Param("token") == "" {
					return internal.Text(http.StatusForbidden, "blocked"), nil
				}
				return ec.Proceed()
			}), internal.HandlerResolution),
			internal.WithInterceptor(rec.interceptor("late"), internal.BindingAndValidation, internal.EventHandling, internal.RequestComplete),
		)

		w := do(app, http.MethodGet, "/user/1", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "blocked", w.Body.String())
		assert.Equal(t, []string{"late>RequestComplete", "late<"}, rec.list())

		w = do(app, http.MethodGet, "/user/1?token=x", nil)
		assert.Equal(t, "view 1", w.Body.String())
	})

	t.Run("request init may answer", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithInterceptor(internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
			return internal.NoContent(http.StatusServiceUnavailable), nil
		}), internal.RequestInit))

		assert.Equal(t, http.StatusServiceUnavailable, do(app, http.MethodGet, "/anything", nil).Code)
	})

	t.Run("supplies the bean", func(t *testing.T) {
		t.Parallel()
		app := newApp(t,
			internal.WithBeans(userBean()),
			internal.WithInterceptor(internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
				ec.SetBean(&userAction{Name: "preset"})
				return ec.Proceed()
			}), internal.ActionBeanResolution),
		)

		w := do(app, http.MethodPost, "/user/2/save", url.Values{})
		assert.Equal(t, "save 2 preset", w.Body.String())
	})

	t.Run("resolution from handler", func(t *testing.T) {
		t.Parallel()
		var fromHandler bool
		var bean any
		app := newApp(t,
			internal.WithBeans(userBean()),
			internal.WithInterceptor(internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
				fromHandler = ec.ResolutionFromHandler()
				bean = ec.Bean()
				return ec.Proceed()
			}), internal.ResolutionExecution),
		)

		do(app, http.MethodGet, "/user/3", nil)
		assert.True(t, fromHandler)
		require.IsType(t, &userAction{}, bean)
		assert.Equal(t, 3, bean.(*userAction).ID)
	})

	t.Run("interceptor error", func(t *testing.T) {
		t.Parallel()
		app := newApp(t,
			internal.WithBeans(userBean()),
			internal.WithInterceptor(internal.InterceptorFunc(func(ec *internal.ExecutionContext) (internal.Resolution, error) {
				return nil, internal.NewHTTPError(http.StatusUnauthorized, "login first")
			}), internal.EventHandling),
		)

		w := do(app, http.MethodGet, "/user/3", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "login first")
	})
}

type hookAction struct {
	trail []string
	Step  string
}

func (a *hookAction) Run(internal.Context) (internal.Resolution, error) {
	a.trail = append(a.trail, "run:"+a.Step)
	return internal.Text(http.StatusOK, strings.Join(a.trail, ",")), nil
}

func (a *hookAction) Swap(internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, "original"), nil
}

func TestHooks(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(internal.Bean[hookAction]("/hook/{$event}",
		internal.DefaultEvent("run", (*hookAction).Run),
		internal.Event("swap", (*hookAction).Swap),
		internal.After(internal.ActionBeanResolution, func(a *hookAction, c internal.Context) (internal.Resolution, error) {
			a.trail = append(a.trail, "created")
			return nil, nil
		}),
		internal.Before(internal.BindingAndValidation, func(a *hookAction, c internal.Context) (internal.Resolution, error) {
			a.trail = append(a.trail, "before-bind:"+a.Step)
			return nil, nil
		}),
		internal.After(internal.BindingAndValidation, func(a *hookAction, c internal.Context) (internal.Resolution, error) {
			a.trail = append(a.trail, "after-bind:"+a.Step)
			return nil, nil
		}, internal.On("!swap")),
		internal.After(internal.EventHandling, func(a *hookAction, c internal.Context) (internal.Resolution, error) {
			return internal.Text(http.StatusOK, "replaced"), nil
		}, internal.On("swap")),
		internal.Before(internal.HandlerResolution, func(a *hookAction, c internal.Context) (internal.Resolution, error) {
			if c.Param("deny") != "" {
				return internal.Error(http.StatusForbidden, "denied"), nil
			}
			return nil, nil
		}),
	)))

	w := do(app, http.MethodGet, "/hook?step=x", nil)
	assert.Equal(t, "created,before-bind:,after-bind:x,run:x", w.Body.String())

	w = do(app, http.MethodGet, "/hook/swap", nil)
	assert.Equal(t, "replaced", w.Body.String())

	w = do(app, http.MethodGet, "/hook?deny=1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "denied")
}

func TestBean_BeforeActionBeanResolution(t *testing.T) {
	t.Parallel()

	_, err := internal.New(internal.WithBeans(internal.Bean[hookAction]("/hook",
		internal.Event("run", (*hookAction).Run),
		internal.Before(internal.ActionBeanResolution, func(*hookAction, internal.Context) (internal.Resolution, error) {
			return nil, nil
		}),
	)))
	require.ErrorIs(t, err, internal.ErrRegistration)
}

type signupAction struct {
	Email    string `validate:"required"`
	Password string `validate:"required,minlen=8"`
	Confirm  string
	Age      int `validate:"min=18"`
}

func (a *signupAction) Form(c internal.Context) (internal.Resolution, error) {
	errs := c.ValidationErrors()
	return internal.Text(http.StatusOK, fmt.Sprintf("form %s %v", a.Email, errs.Fields())), nil
}

func (a *signupAction) Save(c internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusCreated, "saved "+a.Email), nil
}

func (a *signupAction) Preview(c internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, fmt.Sprintf("preview %d", len(c.ValidationErrors().All()))), nil
}

func (a *signupAction) Check(c internal.Context) (internal.Resolution, error) {
	if a.Email == "taken@example.com" {
		return nil, validator.NewMessage("email", "already registered")
	}
	return internal.Text(http.StatusOK, "free"), nil
}

func signupBean(opts ...internal.BeanOption) *internal.ActionBean {
	opts = append([]internal.BeanOption{
		internal.DefaultEvent("form", (*signupAction).Form, internal.DontValidate()),
		internal.Event("save", (*signupAction).Save, internal.Methods(http.MethodPost)),
		internal.Event("preview", (*signupAction).Preview, internal.IgnoreBindingErrors()),
		internal.Event("check", (*signupAction).Check, internal.DontValidate()),
		internal.ValidationMethod(func(a *signupAction, c internal.Context) error {
			if a.Password != a.Confirm {
				c.ValidationErrors().Add("confirm", validator.NewMessage("", "passwords differ"))
			}
			return nil
		}, internal.On("save")),
	}, opts...)
	return internal.Bean[signupAction]("/signup/{$event}", opts...)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	valid := url.Values{"email": {"a@example.com"}, "password": {"secret123"}, "confirm": {"secret123"}, "age": {"30"}}

	t.Run("valid request reaches the handler", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		w := do(app, http.MethodPost, "/signup/save", valid)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "saved a@example.com", w.Body.String())
	})

	t.Run("default failure handler answers 422", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		w := do(app, http.MethodPost, "/signup/save", url.Values{"password": {"short"}, "age": {"x<b>"}})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `"email"`)
		assert.Contains(t, body, `"password"`)
		assert.Contains(t, body, `"age"`)
		assert.NotContains(t, body, "<b>", "echoed values are encoded")
		assert.NotContains(t, body, `"confirm"`, "validation methods wait for a clean bind")
	})

	t.Run("validation method", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		form := url.Values{"email": {"a@example.com"}, "password": {"secret123"}, "confirm": {"other"}}
		w := do(app, http.MethodPost, "/signup/save", form)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "passwords differ")
	})

	t.Run("dont validate", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		w := do(app, http.MethodGet, "/signup?email=x", nil)
		assert.Equal(t, "form x []", w.Body.String())
	})

	t.Run("ignore binding errors", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		w := do(app, http.MethodGet, "/signup/preview?age=young", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, "preview 0", w.Body.String())
	})

	t.Run("handler returning validation errors", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		w := do(app, http.MethodGet, "/signup/check?email=taken@example.com", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "already registered")

		w = do(app, http.MethodGet, "/signup/check?email=new@example.com", nil)
		assert.Equal(t, "free", w.Body.String())
	})

	t.Run("source page", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))

		sample := newApp(t, internal.WithBeans(internal.Bean[sealAction]("/seal", internal.Event("seal", (*sealAction).Seal))))
		sealed := do(sample, http.MethodGet, "/seal?value=/signup/form", nil).Body.String()

		form := url.Values{"email": {"b@example.com"}, "_sourcePage": {sealed}}
		w := do(app, http.MethodPost, "/signup/save", form)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "form b@example.com [password]", w.Body.String())
	})

	t.Run("tampered source page is ignored", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, internal.WithBeans(signupBean()))
		form := url.Values{"email": {"b@example.com"}, "_sourcePage": {"/signup/form"}}
		w := do(app, http.MethodPost, "/signup/save", form)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("custom failure handler", func(t *testing.T) {
		t.Parallel()
		app := newApp(t,
			internal.WithBeans(signupBean()),
			internal.WithValidationFailureHandler(func(c internal.Context, errs internal.ValidationErrors) (internal.Resolution, error) {
				return internal.Text(http.StatusBadRequest, strings.Join(errs.Fields(), "|")), nil
			}),
		)
		w := do(app, http.MethodPost, "/signup/save", url.Values{"password": {"longenough"}, "confirm": {"longenough"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email", w.Body.String())
	})
}

type sealAction struct{}

func (a *sealAction) Seal(c internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, c.Seal(c.Param("value"))), nil
}

type selfHandledAction struct {
	Code string `validate:"required"`
}

func (a *selfHandledAction) Go(internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, "go"), nil
}

func (a *selfHandledAction) HandleValidationErrors(c internal.Context, errs internal.ValidationErrors) (internal.Resolution, error) {
	return internal.Text(http.StatusConflict, "handled "+errs.Get("code")[0].BeanName), nil
}

func TestValidation_BeanHandler(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(internal.Bean[selfHandledAction]("/self", internal.Event("go", (*selfHandledAction).Go))))

	w := do(app, http.MethodGet, "/self", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "handled selfHandled", w.Body.String())
}

type orderedAction struct {
	order []string
	Fail  bool
}

func (a *orderedAction) Go(internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, strings.Join(a.order, ",")), nil
}

func TestValidationMethods_Order(t *testing.T) {
	t.Parallel()

	method := func(name string, fail bool) func(*orderedAction, internal.Context) error {
		return func(a *orderedAction, c internal.Context) error {
			a.order = append(a.order, name)
			if fail && a.Fail {
				c.ValidationErrors().AddGlobal(validator.NewMessage("", name+" failed"))
			}
			return nil
		}
	}
	bean := func() *internal.ActionBean {
		return internal.Bean[orderedAction]("/ordered",
			internal.Event("go", (*orderedAction).Go, internal.IgnoreBindingErrors()),
			internal.ValidationMethod(method("c", false), internal.Priority(2)),
			internal.ValidationMethod(method("a", true), internal.Priority(1)),
			internal.ValidationMethod(method("b", false), internal.Priority(1)),
			internal.ValidationMethod(method("always", false), internal.Priority(3), internal.When(internal.ValidateAlways)),
		)
	}

	app := newApp(t, internal.WithBeans(bean()))
	assert.Equal(t, "a,b,c,always", do(app, http.MethodGet, "/ordered", nil).Body.String())
	assert.Equal(t, "a,always", do(app, http.MethodGet, "/ordered?fail=true", nil).Body.String())

	app = newApp(t, internal.WithBeans(bean()), internal.WithAlwaysInvokeValidate())
	assert.Equal(t, "a,b,c,always", do(app, http.MethodGet, "/ordered?fail=true", nil).Body.String())
}

type counterAction struct {
	Hits int
}

func (a *counterAction) Hit(internal.Context) (internal.Resolution, error) {
	a.Hits++
	return internal.Text(http.StatusOK, fmt.Sprint(a.Hits)), nil
}

func TestSessionScope(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(internal.Bean[counterAction]("/counter",
		internal.Event("hit", (*counterAction).Hit),
		internal.SessionScope(),
		internal.StrictBinding(),
	)))

	w := do(app, http.MethodGet, "/counter", nil)
	require.Equal(t, "1", w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	w = do(app, http.MethodGet, "/counter?hits=100", nil, "Cookie", cookies[0].Name+"="+cookies[0].Value)
	assert.Equal(t, "2", w.Body.String(), "strict binding keeps hits out of reach")

	w = do(app, http.MethodGet, "/counter?"+url.Values{"[hits]": {"100"}, "['Hits']": {"100"}}.Encode(), nil,
		"Cookie", cookies[0].Name+"="+cookies[0].Value)
	assert.Equal(t, "3", w.Body.String(), "bracket names are held to the same policy")

	w = do(app, http.MethodGet, "/counter", nil)
	assert.Equal(t, "1", w.Body.String(), "new client, new bean")
}

type slotAction struct {
	Label string
}

func (a *slotAction) Show(internal.Context) (internal.Resolution, error) {
	return internal.Text(http.StatusOK, fmt.Sprintf("%p", a)), nil
}

func TestSessionScope_Concurrent(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithBeans(
		internal.Bean[counterAction]("/counter",
			internal.Event("hit", (*counterAction).Hit),
			internal.SessionScope(),
		),
		internal.Bean[slotAction]("/slot",
			internal.Event("show", (*slotAction).Show),
			internal.SessionScope(),
			internal.StrictBinding(),
		),
	))

	cookies := do(app, http.MethodGet, "/counter", nil).Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0].Name + "=" + cookies[0].Value

	const clients = 32
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		got   = make([]string, clients)
	)
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			got[i] = do(app, http.MethodGet, "/slot", nil, "Cookie", cookie).Body.String()
		}()
	}
	close(start)
	wg.Wait()

	require.NotEmpty(t, got[0])
	for i, body := range got {
		assert.Equal(t, got[0], body, "request %d got another instance", i)
	}
	assert.Equal(t, got[0], do(app, http.MethodGet, "/slot", nil, "Cookie", cookie).Body.String())
	assert.NotEqual(t, got[0], do(app, http.MethodGet, "/slot", nil).Body.String(), "other clients get their own")
}

func TestParam(t *testing.T) {
	t.Parallel()

	var (
		id   int
		miss float64
		def  int
		err  error
	)
	app := newApp(t, internal.WithBeans(internal.Bean[pingAction]("/p", internal.Event("ping", (*pingAction).Ping),
		internal.Before(internal.EventHandling, func(_ *pingAction, c internal.Context) (internal.Resolution, error) {
			id, err = internal.Param[int](c, "id")
			miss, _ = internal.Param[float64](c, "missing")
			def = internal.ParamDefault(c, "bad", 42)
			return nil, nil
		}),
	)))

	do(app, http.MethodGet, "/p?id=1,234&bad=x", nil)
	require.NoError(t, err)
	assert.Equal(t, 1234, id)
	assert.Zero(t, miss)
	assert.Equal(t, 42, def)
}
