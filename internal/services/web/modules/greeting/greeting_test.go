package greeting

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/scopeweb/internal/platform/i18n"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type sink struct {
	mu   sync.Mutex
	html map[string]string
}

func (s *sink) SendOutput(_ context.Context, msg session.OutputMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.html == nil {
		s.html = map[string]string{}
	}
	s.html[msg.Name] = msg.HTML
	return nil
}

func (s *sink) get(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html[name]
}

func start(t *testing.T, ctx context.Context, out session.Sink) *session.Session {
	t.Helper()
	s := session.New(session.Options{ID: "greeting-test", Sink: out})
	ctx, cancel := context.WithCancel(ctx)
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s
}

func TestUIUsesNamespacedIDs(t *testing.T) {
	t.Parallel()

	component, err := module.UI(ns.Root(), "welcome", Definition())
	if err != nil {
		t.Fatalf("UI() error = %v", err)
	}
	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{`id="welcome-name"`, `id="welcome-greeting"`, "Your name"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("html missing %q: %q", want, buf.String())
		}
	}
}

func TestGreetsByName(t *testing.T) {
	t.Parallel()

	out := &sink{}
	s := start(t, context.Background(), out)
	err := s.Do(context.Background(), func(ctx context.Context) error {
		_, err := module.Serve(ctx, s.Root(), "welcome", Definition())
		return err
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got := out.get("welcome-greeting"); got != "<p>Hello, stranger!</p>" {
		t.Fatalf("greeting = %q", got)
	}

	for _, name := range []string{"  Ana ", "Bia"} {
		if err := s.Dispatch(context.Background(), session.InputEvent{Name: "welcome-name", Value: name}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}
	if err := s.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := out.get("welcome-greeting"); got != "<p>Hello, Bia!</p>" {
		t.Fatalf("greeting = %q, want Bia", got)
	}
	if got := out.get("welcome-changes"); got != "<p>Name changed 2 times</p>" {
		t.Fatalf("changes = %q", got)
	}
}

func TestGreetingIsLocalized(t *testing.T) {
	t.Parallel()

	out := &sink{}
	ctx := i18n.WithPrinter(context.Background(), message.NewPrinter(language.BrazilianPortuguese))
	s := start(t, ctx, out)
	if err := s.Dispatch(context.Background(), session.InputEvent{Name: "oi-name", Value: "Ana"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	err := s.Do(context.Background(), func(ctx context.Context) error {
		_, err := module.Serve(ctx, s.Root(), "oi", Definition())
		return err
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got := out.get("oi-greeting"); got != "<p>Olá, Ana!</p>" {
		t.Fatalf("greeting = %q, want Olá, Ana!", got)
	}
}
