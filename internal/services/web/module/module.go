// Package module defines the UI/server pairing contract used by web composition.
//
// A module is two halves that must agree on one scope id: a UI function that
// renders markup with namespaced ids and a server function that attaches
// behavior to the matching namespaced inputs and outputs. Definition keeps
// the halves independently callable; Instance binds them to a single id so
// they cannot drift apart.
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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/louisbranch/scopeweb/internal/services/web/module"

// ErrNoActiveSession reports an attach attempted outside the owning session loop.
var ErrNoActiveSession = apperrors.EK(apperrors.KindConflict, "error.module.no_session", "module attach requires an active session")

// UIFunc renders the markup of a module inside namespace n.
type UIFunc func(n ns.Namespace) templ.Component

// ServerFunc attaches the behavior of a module to its scope. The returned
// value is handed back to the caller, typically a reactive the parent
// composes into its own logic.
type ServerFunc[T any] func(ctx context.Context, scope *session.Scope) (T, error)

// Definition is a module pair.
type Definition[T any] struct {
	Name   string
	UI     UIFunc
	Server ServerFunc[T]
}

func (d Definition[T]) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return apperrors.E(apperrors.KindInvalidInput, "module name is required")
	}
	if d.UI == nil {
		return apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("module %q: UI is required", d.Name))
	}
	if d.Server == nil {
		return apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("module %q: server is required", d.Name))
	}
	return nil
}

// UI renders def under id inside parent. It is the markup half of the
// convention: the caller must pass the same id to Serve.
func UI[T any](parent ns.Namespace, id string, def Definition[T]) (templ.Component, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	child, err := parent.Child(id)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", def.Name, err)
	}
	return wrap(def.Name, child, def.UI(child)), nil
}

// Serve attaches def's server half under id inside parent. It must run on
// parent's session loop. Claiming an id twice fails instead of letting two
// instances silently share entries.
func Serve[T any](ctx context.Context, parent *session.Scope, id string, def Definition[T]) (T, error) {
	var zero T
	if err := def.validate(); err != nil {
		return zero, err
	}
	if parent == nil {
		return zero, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("module %q: parent scope is required", def.Name))
	}
	if session.Active(ctx) != parent.Session() {
		return zero, fmt.Errorf("module %q: %w", def.Name, ErrNoActiveSession)
	}
	scope, err := parent.Child(id)
	if err != nil {
		return zero, fmt.Errorf("module %q: %w", def.Name, err)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "module.attach")
	span.SetAttributes(
		attribute.String("scopeweb.module", def.Name),
		attribute.String("scopeweb.scope", scope.Namespace().String()),
	)
	defer span.End()

	value, err := def.Server(ctx, scope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		scope.Close()
		return zero, fmt.Errorf("attach module %q at %q: %w", def.Name, scope.Namespace().String(), err)
	}
	return value, nil
}

// wrap marks the module boundary in the page so client tooling can map
// a qualified id back to the module that owns it.
func wrap(name string, n ns.Namespace, inner templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="scopeweb-module" data-module="`+templ.EscapeString(name)+`" data-scope="`+templ.EscapeString(n.String())+`">`); err != nil {
			return err
		}
		if inner != nil {
			if err := inner.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}
