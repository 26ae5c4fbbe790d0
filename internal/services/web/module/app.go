package module

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
)

// App is the root composition of module instances.
type App struct {
	title      string
	components []Component
}

// NewApp composes components at the root namespace. Ids must be unique.
func NewApp(title string, components ...Component) (*App, error) {
	seen := make(map[string]int, len(components))
	for idx, component := range components {
		if component == nil {
			return nil, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("component %d is nil", idx))
		}
		id := component.ID()
		if previous, ok := seen[id]; ok {
			return nil, apperrors.E(apperrors.KindConflict, fmt.Sprintf("component %d duplicates id %q owned by component %d", idx, id, previous))
		}
		seen[id] = idx
	}
	return &App{title: strings.TrimSpace(title), components: components}, nil
}

// Title returns the page title.
func (a *App) Title() string {
	return a.title
}

// Components returns the root components in declaration order.
func (a *App) Components() []Component {
	return append([]Component(nil), a.components...)
}

// Render renders every root component.
func (a *App) Render() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, component := range a.components {
			if err := component.Render(ns.Root()).Render(ctx, w); err != nil {
				return fmt.Errorf("render %q: %w", component.ID(), err)
			}
		}
		return nil
	})
}

// Attach mounts every root component on s. It blocks until the components
// are attached and their first outputs flushed.
func (a *App) Attach(ctx context.Context, s *session.Session) error {
	if s == nil {
		return apperrors.E(apperrors.KindInvalidInput, "session is required")
	}
	return s.Do(ctx, func(ctx context.Context) error {
		for _, component := range a.components {
			if err := component.Mount(ctx, s.Root()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Inline is a component whose server code runs directly in its parent
// scope, the way top-level application code does. Its name only guards
// against duplicates in an App.
type Inline struct {
	Name   string
	UI     UIFunc
	Server func(ctx context.Context, scope *session.Scope) error
}

// ID returns the inline component name.
func (c Inline) ID() string {
	return c.Name
}

// Render renders the UI directly under parent.
func (c Inline) Render(parent ns.Namespace) templ.Component {
	if c.UI == nil {
		return templ.NopComponent
	}
	return c.UI(parent)
}

// Mount runs the server code on parent.
func (c Inline) Mount(ctx context.Context, parent *session.Scope) error {
	if c.Server == nil {
		return nil
	}
	if session.Active(ctx) != parent.Session() {
		return fmt.Errorf("inline %q: %w", c.Name, ErrNoActiveSession)
	}
	return c.Server(ctx, parent)
}
