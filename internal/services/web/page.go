package web

import (
	"bytes"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/i18n"
	"github.com/louisbranch/scopeweb/internal/platform/requestctx"
	"github.com/louisbranch/scopeweb/internal/services/web/platform/httpx"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
	"golang.org/x/text/message"
)

// stateParam selects the bookmark a page is restored from.
const stateParam = "state"

func (h *handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	tag, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	ctx := i18n.WithPrinter(r.Context(), message.NewPrinter(tag))

	status := http.StatusOK
	stateID := strings.TrimSpace(r.URL.Query().Get(stateParam))
	if stateID != "" {
		if h.bookmarks == nil {
			stateID = ""
		} else {
			bookmark, err := h.bookmarks.GetBookmark(ctx, stateID)
			switch {
			case apperrors.IsKind(err, apperrors.KindNotFound):
				// Stale links fall back to the default page.
				status = http.StatusNotFound
				stateID = ""
			case err != nil:
				h.logger.Printf("load bookmark state_id=%s request_id=%s err=%v", stateID, requestctx.RequestIDFromContext(ctx), err)
				httpx.WriteError(w, err)
				return
			default:
				ctx = session.WithRestored(ctx, bookmark.Values)
			}
		}
	}

	var buf bytes.Buffer
	page := templates.Page(templates.PageView{
		Lang:      tag,
		Languages: i18n.SupportedTags(),
		Title:     h.app.Title(),
		StateID:   stateID,
		Body:      h.app.Render(),
	})
	if err := page.Render(ctx, &buf); err != nil {
		h.logger.Printf("render page request_id=%s err=%v", requestctx.RequestIDFromContext(ctx), err)
		httpx.WriteError(w, err)
		return
	}
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		return
	}
	_ = httpx.WriteHTML(w, status, buf.String())
}
