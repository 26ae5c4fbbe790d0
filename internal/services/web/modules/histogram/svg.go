package histogram

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

const (
	plotWidth  = 480
	plotHeight = 240
	plotMargin = 24
)

// plot renders bins as an inline SVG bar chart.
func plot(title string, bins []Bin) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<svg class="scopeweb-histogram" viewBox="0 0 %d %d" role="img" aria-label="%s">`,
			plotWidth, plotHeight, templ.EscapeString(title))
		fmt.Fprintf(&b, `<title>%s</title>`, templ.EscapeString(title))

		peak := 0
		for _, bin := range bins {
			peak = max(peak, bin.Count)
		}
		if len(bins) > 0 && peak > 0 {
			innerW := float64(plotWidth - 2*plotMargin)
			innerH := float64(plotHeight - 2*plotMargin)
			barW := innerW / float64(len(bins))
			for i, bin := range bins {
				h := innerH * float64(bin.Count) / float64(peak)
				x := float64(plotMargin) + float64(i)*barW
				y := float64(plotMargin) + innerH - h
				fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s"><title>%s to %s: %d</title></rect>`,
					num(x), num(y), num(barW-1), num(h), num(bin.Low), num(bin.High), bin.Count)
			}
			axisY := plotHeight - plotMargin
			fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d"></line>`, plotMargin, axisY, plotWidth-plotMargin, axisY)
			fmt.Fprintf(&b, `<text x="%d" y="%d">%s</text>`, plotMargin, plotHeight-4, num(bins[0].Low))
			fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end">%s</text>`, plotWidth-plotMargin, plotHeight-4, num(bins[len(bins)-1].High))
		}
		b.WriteString(`</svg>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
