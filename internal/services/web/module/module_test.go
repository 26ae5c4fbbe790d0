package module

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
)

type sinkRecorder struct {
	mu   sync.Mutex
	html map[string]string
}

func (r *sinkRecorder) SendOutput(_ context.Context, msg session.OutputMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.html == nil {
		r.html = map[string]string{}
	}
	r.html[msg.Name] = msg.HTML
	return nil
}

func (r *sinkRecorder) get(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.html[name]
}

func startSession(t *testing.T, sink session.Sink) *session.Session {
	t.Helper()
	s := session.New(session.Options{ID: "module-test", Sink: sink})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

// echo renders an input and an output placeholder and copies one to the other.
var echo = Definition[session.Reactive[string]]{
	Name: "echo",
	UI: func(n ns.Namespace) templ.Component {
		return text(fmt.Sprintf(`<input id="%s"><div id="%s"></div>`, n.ID("text"), n.ID("out")))
	},
	Server: func(_ context.Context, scope *session.Scope) (session.Reactive[string], error) {
		value := session.StringInput(scope, "text", "")
		err := scope.SetOutput("out", func(context.Context) (templ.Component, error) {
			return text("echo:" + value.Get()), nil
		})
		return value, err
	},
}

func TestUIQualifiesIDs(t *testing.T) {
	t.Parallel()

	component, err := UI(ns.Root(), "first", echo)
	if err != nil {
		t.Fatalf("UI() error = %v", err)
	}
	html := render(t, component)
	for _, want := range []string{`id="first-text"`, `id="first-out"`, `data-scope="first"`, `data-module="echo"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("UI() html = %q, want substring %q", html, want)
		}
	}
}

func TestUIRejectsInvalidID(t *testing.T) {
	t.Parallel()

	if _, err := UI(ns.Root(), "a-b", echo); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("UI() error = %v, want invalid input", err)
	}
}

func TestServeRequiresActiveSession(t *testing.T) {
	t.Parallel()

	s := startSession(t, nil)
	_, err := Serve(context.Background(), s.Root(), "first", echo)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Serve() error = %v, want ErrNoActiveSession", err)
	}
}

func TestTwoInstancesDoNotCrossTalk(t *testing.T) {
	t.Parallel()

	sink := &sinkRecorder{}
	s := startSession(t, sink)
	first := Must(echo, WithID("first"))
	second := Must(echo, WithID("second"))
	app, err := NewApp("echo", first, second)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if err := app.Attach(context.Background(), s); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := s.Dispatch(context.Background(), session.InputEvent{Name: "first-text", Value: "hello"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := s.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := sink.get("first-out"); got != "echo:hello" {
		t.Fatalf("first-out = %q, want %q", got, "echo:hello")
	}
	if got := sink.get("second-out"); got != "echo:" {
		t.Fatalf("second-out = %q, want %q", got, "echo:")
	}
}

func TestAttachReturnsServerValue(t *testing.T) {
	t.Parallel()

	s := startSession(t, nil)
	if err := s.Dispatch(context.Background(), session.InputEvent{Name: "first-text", Value: "seed"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	instance := Must(echo, WithID("first"))
	var got string
	err := s.Do(context.Background(), func(ctx context.Context) error {
		value, err := instance.Attach(ctx, s.Root())
		if err != nil {
			return err
		}
		got = value.Get()
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "seed" {
		t.Fatalf("returned reactive = %q, want %q", got, "seed")
	}
}

func TestAttachTwiceSameIDFails(t *testing.T) {
	t.Parallel()

	s := startSession(t, nil)
	instance := Must(echo, WithID("first"))
	err := s.Do(context.Background(), func(ctx context.Context) error {
		if err := instance.Mount(ctx, s.Root()); err != nil {
			return err
		}
		return instance.Mount(ctx, s.Root())
	})
	if !errors.Is(err, session.ErrDuplicateScope) {
		t.Fatalf("second Mount() error = %v, want ErrDuplicateScope", err)
	}
}

func TestServerErrorReleasesScope(t *testing.T) {
	t.Parallel()

	failing := Definition[struct{}]{
		Name: "failing",
		UI:   func(ns.Namespace) templ.Component { return text("") },
		Server: func(_ context.Context, scope *session.Scope) (struct{}, error) {
			_ = scope.SetOutput("out", func(context.Context) (templ.Component, error) { return text("x"), nil })
			return struct{}{}, errors.New("boom")
		},
	}
	s := startSession(t, nil)
	err := s.Do(context.Background(), func(ctx context.Context) error {
		if _, err := Serve(ctx, s.Root(), "bad", failing); err == nil {
			return errors.New("expected server error")
		}
		if _, ok := s.Root().Output("bad-out"); ok {
			return errors.New("output survived failed attach")
		}
		_, err := Serve(ctx, s.Root(), "bad", echo)
		return err
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
}

func TestNestedInstancesQualifyThroughParents(t *testing.T) {
	t.Parallel()

	inner := Must(echo, WithID("inner"))
	outer := Definition[session.Reactive[string]]{
		Name: "outer",
		UI: func(n ns.Namespace) templ.Component {
			return inner.Render(n)
		},
		Server: func(ctx context.Context, scope *session.Scope) (session.Reactive[string], error) {
			return inner.Attach(ctx, scope)
		},
	}
	instance := Must(outer, WithID("outer"))

	html := render(t, instance.Render(ns.Root()))
	if !strings.Contains(html, `id="outer-inner-text"`) {
		t.Fatalf("nested html = %q, want outer-inner-text", html)
	}

	sink := &sinkRecorder{}
	s := startSession(t, sink)
	if err := s.Dispatch(context.Background(), session.InputEvent{Name: "outer-inner-text", Value: "deep"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if err := s.Do(context.Background(), func(ctx context.Context) error {
		return instance.Mount(ctx, s.Root())
	}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := sink.get("outer-inner-out"); got != "echo:deep" {
		t.Fatalf("outer-inner-out = %q, want %q", got, "echo:deep")
	}
}

func TestGeneratedIDsAreDistinct(t *testing.T) {
	t.Parallel()

	generator := NewIDGenerator()
	first := Must(echo, WithIDGenerator(generator))
	second := Must(echo, WithIDGenerator(generator))
	if first.ID() != "echo1" || second.ID() != "echo2" {
		t.Fatalf("generated ids = %q, %q, want echo1, echo2", first.ID(), second.ID())
	}
	if sanitizeName("my-module") != "my_module" {
		t.Fatalf("sanitizeName() = %q, want my_module", sanitizeName("my-module"))
	}
}

func TestNewRejectsInvalidDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  Definition[int]
	}{
		{name: "missing name", def: Definition[int]{UI: func(ns.Namespace) templ.Component { return nil }, Server: func(context.Context, *session.Scope) (int, error) { return 0, nil }}},
		{name: "missing ui", def: Definition[int]{Name: "x", Server: func(context.Context, *session.Scope) (int, error) { return 0, nil }}},
		{name: "missing server", def: Definition[int]{Name: "x", UI: func(ns.Namespace) templ.Component { return nil }}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.def); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
				t.Fatalf("New() error = %v, want invalid input", err)
			}
		})
	}
	if _, err := New(echo, WithID("with-dash")); err == nil {
		t.Fatalf("New() with separator in id succeeded")
	}
}

func TestNewAppRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := NewApp("dup", Must(echo, WithID("same")), Must(echo, WithID("same")))
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("NewApp() error = %v, want conflict", err)
	}
	if _, err := NewApp("nil", nil); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("NewApp(nil) error = %v, want invalid input", err)
	}
}

func TestAppRenderKeepsOrder(t *testing.T) {
	t.Parallel()

	app, err := NewApp(" Title ", Must(echo, WithID("b")), Must(echo, WithID("a")))
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if app.Title() != "Title" {
		t.Fatalf("Title() = %q, want %q", app.Title(), "Title")
	}
	html := render(t, app.Render())
	if strings.Index(html, `id="b-text"`) > strings.Index(html, `id="a-text"`) {
		t.Fatalf("Render() html = %q, want b before a", html)
	}
	if len(app.Components()) != 2 {
		t.Fatalf("Components() len = %d, want 2", len(app.Components()))
	}
}

func TestRequireReactive(t *testing.T) {
	t.Parallel()

	reactive := session.NewReactive(func() int { return 1 })
	static := session.Static[int]{Value: 1}

	if err := RequireReactive("data", reactive); err != nil {
		t.Fatalf("RequireReactive(reactive) error = %v", err)
	}
	if err := RequireReactive("data", static); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("RequireReactive(static) error = %v, want invalid input", err)
	}
	if err := RequireReactive("data", nil); apperrors.LocalizationKey(err) != "error.module.arg_missing" {
		t.Fatalf("RequireReactive(nil) key = %q, want error.module.arg_missing", apperrors.LocalizationKey(err))
	}
	if err := RequireStatic("title", static); err != nil {
		t.Fatalf("RequireStatic(static) error = %v", err)
	}
	if err := RequireStatic("title", reactive); err == nil {
		t.Fatalf("RequireStatic(reactive) succeeded")
	}
}

func TestInlineRunsInParentScope(t *testing.T) {
	t.Parallel()

	inline := Inline{
		Name: "top",
		UI: func(n ns.Namespace) templ.Component {
			return text(fmt.Sprintf(`<div id="%s"></div>`, n.ID("banner")))
		},
		Server: func(_ context.Context, scope *session.Scope) error {
			return scope.SetOutput("banner", func(context.Context) (templ.Component, error) {
				return text("top-level"), nil
			})
		},
	}
	app, err := NewApp("inline", inline, Must(echo, WithID("first")))
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	if html := render(t, app.Render()); !strings.Contains(html, `id="banner"`) {
		t.Fatalf("Render() html = %q, want unprefixed banner", html)
	}

	sink := &sinkRecorder{}
	s := startSession(t, sink)
	if err := app.Attach(context.Background(), s); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got := sink.get("banner"); got != "top-level" {
		t.Fatalf("banner = %q, want %q", got, "top-level")
	}
	if err := inline.Mount(context.Background(), s.Root()); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Mount() outside loop error = %v, want ErrNoActiveSession", err)
	}
}
