// Package greeting is the smallest module: one text input and one output
// that greets whoever typed their name.
package greeting

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
)

// Local names used by the module.
const (
	InputName      = "name"
	OutputGreeting = "greeting"
	OutputChanges  = "changes"
)

// Definition returns the greeting module. The server returns the trimmed
// name as a reactive value.
func Definition() module.Definition[session.Reactive[string]] {
	return module.Definition[session.Reactive[string]]{
		Name:   "greeting",
		UI:     ui,
		Server: server,
	}
}

func ui(n ns.Namespace) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := templates.Loc(ctx)
		return templates.Join(
			templates.TextInput(n.ID(InputName), templates.T(loc, "modules.greeting.label"), ""),
			templates.OutputSlot(n.ID(OutputGreeting), "greeting"),
			templates.OutputSlot(n.ID(OutputChanges), "changes"),
		).Render(ctx, w)
	})
}

func server(_ context.Context, scope *session.Scope) (session.Reactive[string], error) {
	name := session.Map[string, string](session.StringInput(scope, InputName, ""), strings.TrimSpace)

	// Counts distinct names typed since the page loaded.
	changes := 0
	if err := scope.Observe(InputName, func(context.Context, any) error {
		changes++
		return nil
	}); err != nil {
		return session.Reactive[string]{}, err
	}

	if err := scope.SetOutput(OutputGreeting, func(ctx context.Context) (templ.Component, error) {
		loc := templates.Loc(ctx)
		who := name.Get()
		if who == "" {
			who = templates.T(loc, "modules.greeting.stranger")
		}
		return templates.Text(templates.T(loc, "modules.greeting.hello", who)), nil
	}); err != nil {
		return session.Reactive[string]{}, err
	}
	if err := scope.SetOutput(OutputChanges, func(ctx context.Context) (templ.Component, error) {
		if changes == 0 {
			return nil, nil
		}
		return templates.Text(templates.T(templates.Loc(ctx), "modules.greeting.changes", changes)), nil
	}); err != nil {
		return session.Reactive[string]{}, err
	}
	return name, nil
}
