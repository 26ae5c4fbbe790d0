package templates

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
)

// StaticPrefix is the URL prefix the embedded assets are served under.
const StaticPrefix = "/static/"

// PageView is the data the page layout needs.
type PageView struct {
	Lang      language.Tag
	Languages []language.Tag
	Title     string
	// StateID is the bookmark the page was restored from, if any.
	StateID string
	Body    templ.Component
}

// Page renders the full document around the application body.
func Page(view PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := Loc(ctx)
		title := view.Title
		if title == "" {
			title = T(loc, "page.title")
		}
		if err := write(w,
			`<!DOCTYPE html><html lang="`, esc(view.Lang.String()), `"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), `</title>`,
			`<link rel="stylesheet" href="`, StaticPrefix, `app.css">`,
			`<script src="`, StaticPrefix, `app.js" defer></script>`,
			`</head><body data-state-id="`, esc(view.StateID), `">`,
			`<header class="scopeweb-header"><h1>`, esc(title), `</h1>`,
		); err != nil {
			return err
		}
		if err := languageMenu(loc, view.Lang, view.Languages).Render(ctx, w); err != nil {
			return err
		}
		if err := write(w,
			`<button type="button" id="scopeweb-bookmark">`, esc(T(loc, "page.bookmark")), `</button>`,
			`<p id="scopeweb-status" role="status" data-bookmarked="`, esc(T(loc, "page.bookmarked")), `"`,
			` data-disconnected="`, esc(T(loc, "page.disconnected")), `">`,
		); err != nil {
			return err
		}
		if view.StateID != "" {
			if err := write(w, esc(T(loc, "page.restored", view.StateID))); err != nil {
				return err
			}
		}
		if err := write(w, `</p></header><main class="scopeweb-app">`); err != nil {
			return err
		}
		if view.Body != nil {
			if err := view.Body.Render(ctx, w); err != nil {
				return err
			}
		}
		return write(w, `</main></body></html>`)
	})
}

func languageMenu(loc Localizer, active language.Tag, tags []language.Tag) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(tags) < 2 {
			return nil
		}
		if err := write(w, `<nav class="scopeweb-languages" aria-label="`, esc(T(loc, "page.language")), `">`); err != nil {
			return err
		}
		for _, tag := range tags {
			current := ""
			if tag == active {
				current = ` aria-current="true"`
			}
			href := "?" + url.Values{"lang": {tag.String()}}.Encode()
			if err := write(w, `<a href="`, esc(href), `"`, current, `>`, esc(tag.String()), `</a> `); err != nil {
				return err
			}
		}
		return write(w, `</nav>`)
	})
}
