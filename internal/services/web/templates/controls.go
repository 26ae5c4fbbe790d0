package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
)

// Attributes marking the elements the client binds to the live session.
const (
	InputAttr  = "data-scopeweb-input"
	OutputAttr = "data-scopeweb-output"
)

// Option is one entry of a Select.
type Option struct {
	Value string
	Label string
}

// TextInput renders a labelled text field bound to the qualified input id.
func TextInput(id, label, value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		value = restoredString(ctx, id, value)
		return write(w,
			`<label class="scopeweb-field" for="`, esc(id), `">`, esc(label), `</label>`,
			`<input type="text" id="`, esc(id), `" name="`, esc(id), `" value="`, esc(value), `" `, InputAttr, `="text" autocomplete="off">`,
		)
	})
}

// Slider renders a labelled range input bound to the qualified input id.
func Slider(id, label string, minValue, maxValue, step, value int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if restored, ok := session.Restored(ctx, id); ok {
			if f, ok := restored.(float64); ok {
				value = int(f)
			}
		}
		value = max(minValue, min(maxValue, value))
		return write(w,
			`<label class="scopeweb-field" for="`, esc(id), `">`, esc(label),
			` <output for="`, esc(id), `">`, strconv.Itoa(value), `</output></label>`,
			`<input type="range" id="`, esc(id), `" name="`, esc(id), `"`,
			` min="`, strconv.Itoa(minValue), `" max="`, strconv.Itoa(maxValue), `" step="`, strconv.Itoa(step), `"`,
			` value="`, strconv.Itoa(value), `" `, InputAttr, `="number">`,
		)
	})
}

// Select renders a labelled drop-down bound to the qualified input id.
func Select(id, label string, options []Option, selected string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		selected = restoredString(ctx, id, selected)
		if err := write(w,
			`<label class="scopeweb-field" for="`, esc(id), `">`, esc(label), `</label>`,
			`<select id="`, esc(id), `" name="`, esc(id), `" `, InputAttr, `="text">`,
		); err != nil {
			return err
		}
		for _, option := range options {
			mark := ""
			if option.Value == selected {
				mark = ` selected`
			}
			if err := write(w, `<option value="`, esc(option.Value), `"`, mark, `>`, esc(option.Label), `</option>`); err != nil {
				return err
			}
		}
		return write(w, `</select>`)
	})
}

// OutputSlot renders the placeholder an output's HTML is swapped into.
func OutputSlot(id string, classes ...string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		class := strings.TrimSpace("scopeweb-output " + strings.Join(classes, " "))
		return write(w, `<div id="`, esc(id), `" class="`, esc(class), `" `, OutputAttr, ` aria-live="polite"></div>`)
	})
}

// Heading renders a section heading.
func Heading(level int, text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		level = max(1, min(6, level))
		return write(w, fmt.Sprintf("<h%d>", level), esc(text), fmt.Sprintf("</h%d>", level))
	})
}

// Text renders escaped text in a paragraph.
func Text(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return write(w, `<p>`, esc(text), `</p>`)
	})
}

// Join renders components one after another.
func Join(components ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, component := range components {
			if component == nil {
				continue
			}
			if err := component.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func restoredString(ctx context.Context, id, fallback string) string {
	restored, ok := session.Restored(ctx, id)
	if !ok {
		return fallback
	}
	if value, ok := restored.(string); ok {
		return value
	}
	return fallback
}

func esc(value string) string {
	return templ.EscapeString(value)
}

func write(w io.Writer, parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(w, part); err != nil {
			return err
		}
	}
	return nil
}
