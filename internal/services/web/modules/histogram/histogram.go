// Package histogram is a module that draws a histogram of a reactive series
// with a visitor-controlled number of bins.
package histogram

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/module"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
)

// Bin count limits and default.
const (
	MinBins     = 1
	MaxBins     = 50
	DefaultBins = 10
)

// Local names used by the module.
const (
	InputBins     = "bins"
	OutputPlot    = "plot"
	OutputSummary = "summary"
)

// Definition returns the histogram module over data. data must be reactive
// so the plot follows upstream changes; title may be reactive or static.
// UI-only callers may pass nil for both.
func Definition(data session.Reader[[]float64], title session.Reader[string]) module.Definition[session.Reactive[int]] {
	return module.Definition[session.Reactive[int]]{
		Name: "histogram",
		UI:   ui,
		Server: func(ctx context.Context, scope *session.Scope) (session.Reactive[int], error) {
			return server(ctx, scope, data, title)
		},
	}
}

func ui(n ns.Namespace) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := templates.Loc(ctx)
		return templates.Join(
			templates.Slider(n.ID(InputBins), templates.T(loc, "modules.histogram.bins"), MinBins, MaxBins, 1, DefaultBins),
			templates.OutputSlot(n.ID(OutputPlot), "plot"),
			templates.OutputSlot(n.ID(OutputSummary), "summary"),
		).Render(ctx, w)
	})
}

func server(_ context.Context, scope *session.Scope, data session.Reader[[]float64], title session.Reader[string]) (session.Reactive[int], error) {
	if err := module.RequireReactive("data", data); err != nil {
		return session.Reactive[int]{}, err
	}
	bins := session.Map[int, int](session.IntInput(scope, InputBins, DefaultBins), ClampBins)

	err := scope.SetOutput(OutputPlot, func(ctx context.Context) (templ.Component, error) {
		label := ""
		if title != nil {
			label = title.Get()
		}
		return plot(templates.T(templates.Loc(ctx), "modules.histogram.title", label), Compute(data.Get(), bins.Get())), nil
	})
	if err != nil {
		return session.Reactive[int]{}, err
	}
	err = scope.SetOutput(OutputSummary, func(ctx context.Context) (templ.Component, error) {
		loc := templates.Loc(ctx)
		s := Summarize(data.Get())
		if s.N == 0 {
			return templates.Text(templates.T(loc, "modules.histogram.empty")), nil
		}
		return templates.Text(templates.T(loc, "modules.histogram.summary", s.N, s.Mean, s.Min, s.Max)), nil
	})
	if err != nil {
		return session.Reactive[int]{}, err
	}
	return bins, nil
}
