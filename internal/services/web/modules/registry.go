// Package modules assembles the bundled modules into the default application.
package modules

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/modules/dataset"
	"github.com/louisbranch/scopeweb/internal/services/web/modules/explorer"
	"github.com/louisbranch/scopeweb/internal/services/web/modules/greeting"
	"github.com/louisbranch/scopeweb/internal/services/web/modules/histogram"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
)

// Root-level scope ids of the default application.
const (
	WelcomeID  = "welcome"
	PickerID   = "picker"
	Hist1ID    = "hist1"
	Hist2ID    = "hist2"
	ExplorerID = "explorer1"
)

// DefaultApp returns a greeting, two histograms sharing one dataset picker
// and a nested explorer.
func DefaultApp(title string) (*module.App, error) {
	welcome, err := module.New(greeting.Definition(), module.WithID(WelcomeID))
	if err != nil {
		return nil, err
	}
	picker, err := module.New(dataset.Definition(), module.WithID(PickerID))
	if err != nil {
		return nil, err
	}
	explore, err := module.New(explorer.Definition(), module.WithID(ExplorerID))
	if err != nil {
		return nil, err
	}
	return module.NewApp(title, welcome, comparison(picker), explore)
}

// comparison renders two histograms with independent bin counts over the
// same picked dataset.
func comparison(picker *module.Instance[session.Reactive[dataset.Dataset]]) module.Component {
	return module.Inline{
		Name: "comparison",
		UI: func(n ns.Namespace) templ.Component {
			return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
				components := []templ.Component{picker.Render(n)}
				for _, id := range []string{Hist1ID, Hist2ID} {
					hist, err := module.UI(n, id, histogram.Definition(nil, nil))
					if err != nil {
						return err
					}
					components = append(components, hist)
				}
				return templates.Join(components...).Render(ctx, w)
			})
		},
		Server: func(ctx context.Context, scope *session.Scope) error {
			selected, err := picker.Attach(ctx, scope)
			if err != nil {
				return err
			}
			values := session.Map[dataset.Dataset, []float64](selected, func(d dataset.Dataset) []float64 { return d.Values })
			title := session.Map[dataset.Dataset, string](selected, func(d dataset.Dataset) string {
				return templates.T(templates.Loc(ctx), d.LabelKey)
			})
			for _, id := range []string{Hist1ID, Hist2ID} {
				if _, err := module.Serve(ctx, scope, id, histogram.Definition(values, title)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
