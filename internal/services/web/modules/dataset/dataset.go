// Package dataset is a module that lets the visitor pick one of the bundled
// numeric datasets and hands the selection to its parent as a reactive value.
package dataset

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
)

// Local names used by the module.
const (
	InputName   = "name"
	OutputCount = "count"
)

// Dataset is one named series of observations.
type Dataset struct {
	Name     string
	LabelKey string
	Values   []float64
}

var catalog = []Dataset{
	{Name: "eruptions", LabelKey: "modules.dataset.faithful_eruptions", Values: faithfulEruptions},
	{Name: "waiting", LabelKey: "modules.dataset.faithful_waiting", Values: faithfulWaiting},
	{Name: "rock_area", LabelKey: "modules.dataset.rock_area", Values: rockArea},
}

// Default is the dataset selected before the visitor picks one.
const Default = "eruptions"

// All returns the bundled datasets in display order.
func All() []Dataset {
	out := make([]Dataset, len(catalog))
	for i, d := range catalog {
		out[i] = Dataset{Name: d.Name, LabelKey: d.LabelKey, Values: slices.Clone(d.Values)}
	}
	return out
}

// Lookup returns the dataset called name.
func Lookup(name string) (Dataset, bool) {
	idx := slices.IndexFunc(catalog, func(d Dataset) bool { return d.Name == name })
	if idx < 0 {
		return Dataset{}, false
	}
	return catalog[idx], true
}

// Definition returns the dataset picker module.
func Definition() module.Definition[session.Reactive[Dataset]] {
	return module.Definition[session.Reactive[Dataset]]{
		Name:   "dataset",
		UI:     ui,
		Server: server,
	}
}

func ui(n ns.Namespace) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := templates.Loc(ctx)
		options := make([]templates.Option, 0, len(catalog))
		for _, d := range catalog {
			options = append(options, templates.Option{Value: d.Name, Label: templates.T(loc, d.LabelKey)})
		}
		return templates.Join(
			templates.Select(n.ID(InputName), templates.T(loc, "modules.dataset.label"), options, Default),
			templates.OutputSlot(n.ID(OutputCount), "count"),
		).Render(ctx, w)
	})
}

func server(_ context.Context, scope *session.Scope) (session.Reactive[Dataset], error) {
	name := session.StringInput(scope, InputName, Default)
	selected := session.Map[string, Dataset](name, func(value string) Dataset {
		if d, ok := Lookup(value); ok {
			return d
		}
		d, _ := Lookup(Default)
		return d
	})
	err := scope.SetOutput(OutputCount, func(ctx context.Context) (templ.Component, error) {
		d := selected.Get()
		return templates.Text(templates.T(templates.Loc(ctx), "modules.dataset.count", len(d.Values))), nil
	})
	if err != nil {
		return session.Reactive[Dataset]{}, fmt.Errorf("dataset output: %w", err)
	}
	return selected, nil
}
