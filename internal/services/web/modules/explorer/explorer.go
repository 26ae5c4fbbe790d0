// Package explorer nests a dataset picker and a histogram, feeding the
// picker's selection into the histogram.
package explorer

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/modules/dataset"
	"github.com/louisbranch/scopeweb/internal/services/web/modules/histogram"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
)

// Child scope ids.
const (
	DataID = "data"
	HistID = "hist"
)

// Selection is what the explorer hands back to its parent.
type Selection struct {
	Dataset session.Reactive[dataset.Dataset]
	Bins    session.Reactive[int]
}

var data = module.Must(dataset.Definition(), module.WithID(DataID))

// Definition returns the explorer module.
func Definition() module.Definition[Selection] {
	return module.Definition[Selection]{
		Name:   "explorer",
		UI:     ui,
		Server: server,
	}
}

func ui(n ns.Namespace) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hist, err := module.UI(n, HistID, histogram.Definition(nil, nil))
		if err != nil {
			return err
		}
		return templates.Join(
			templates.Heading(2, templates.T(templates.Loc(ctx), "modules.explorer.title")),
			data.Render(n),
			hist,
		).Render(ctx, w)
	})
}

func server(ctx context.Context, scope *session.Scope) (Selection, error) {
	selected, err := data.Attach(ctx, scope)
	if err != nil {
		return Selection{}, err
	}
	values := session.Map[dataset.Dataset, []float64](selected, func(d dataset.Dataset) []float64 { return d.Values })
	title := session.Map[dataset.Dataset, string](selected, func(d dataset.Dataset) string {
		return templates.T(templates.Loc(ctx), d.LabelKey)
	})
	bins, err := module.Serve(ctx, scope, HistID, histogram.Definition(values, title))
	if err != nil {
		return Selection{}, err
	}
	return Selection{Dataset: selected, Bins: bins}, nil
}
