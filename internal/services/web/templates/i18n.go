package templates

import (
	"context"
	"fmt"

	"github.com/louisbranch/scopeweb/internal/platform/i18n"
	"golang.org/x/text/message"
)

// Localizer provides translated strings for components.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// T returns a translated string or a key-derived fallback.
func T(loc Localizer, key message.Reference, args ...any) string {
	if loc != nil {
		return loc.Sprintf(key, args...)
	}
	if keyString, ok := key.(string); ok {
		if len(args) > 0 {
			return fmt.Sprintf(keyString, args...)
		}
		return keyString
	}
	return ""
}

// Loc returns the localizer carried by ctx.
func Loc(ctx context.Context) Localizer {
	return i18n.PrinterFrom(ctx)
}
