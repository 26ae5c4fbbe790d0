package modules

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/louisbranch/scopeweb/internal/services/web/session"
	"github.com/louisbranch/scopeweb/internal/services/web/templates"
)

func TestDefaultAppRendersEveryPlaceholder(t *testing.T) {
	t.Parallel()

	app, err := DefaultApp("Demo")
	if err != nil {
		t.Fatalf("DefaultApp() error = %v", err)
	}
	var buf bytes.Buffer
	if err := app.Render().Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()
	for _, id := range []string{
		"welcome-name", "welcome-greeting",
		"picker-name", "hist1-bins", "hist1-plot", "hist2-bins", "hist2-summary",
		"explorer1-data-name", "explorer1-hist-bins", "explorer1-hist-plot",
	} {
		if !strings.Contains(html, `id="`+id+`"`) {
			t.Fatalf("html missing id %q", id)
		}
	}
}

func TestDefaultAppAttachesCleanly(t *testing.T) {
	t.Parallel()

	app, err := DefaultApp("Demo")
	if err != nil {
		t.Fatalf("DefaultApp() error = %v", err)
	}
	s := session.New(session.Options{ID: "registry-test"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	if err := app.Attach(context.Background(), s); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	// Every output the app registers must have a placeholder in its markup.
	var buf bytes.Buffer
	if err := app.Render().Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	page := session.Placeholders{Outputs: scanIDs(buf.String(), templates.OutputAttr), Inputs: scanIDs(buf.String(), templates.InputAttr)}
	mismatches, err := s.Check(context.Background(), page)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("mismatches = %+v, want none", mismatches)
	}
}

// scanIDs returns the id attribute of every element carrying marker.
func scanIDs(html, marker string) []string {
	var ids []string
	for _, tag := range strings.Split(html, "<") {
		if !strings.Contains(tag, marker) {
			continue
		}
		_, rest, ok := strings.Cut(tag, `id="`)
		if !ok {
			continue
		}
		id, _, _ := strings.Cut(rest, `"`)
		ids = append(ids, id)
	}
	return ids
}
