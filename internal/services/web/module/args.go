package module

import (
	"fmt"

	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
)

// RequireReactive fails when arg is not a reactive value. Server functions
// use it for arguments that must keep tracking upstream changes.
func RequireReactive(name string, arg any) error {
	if arg == nil {
		return apperrors.EK(apperrors.KindInvalidInput, "error.module.arg_missing", fmt.Sprintf("argument %q is required", name))
	}
	if !session.IsReactive(arg) {
		return apperrors.EK(apperrors.KindInvalidInput, "error.module.arg_not_reactive",
			fmt.Sprintf("argument %q must be reactive, got %T", name, arg))
	}
	return nil
}

// RequireStatic fails when arg is a reactive value. Server functions use it
// for arguments read once at attach time.
func RequireStatic(name string, arg any) error {
	if session.IsReactive(arg) {
		return apperrors.EK(apperrors.KindInvalidInput, "error.module.arg_reactive",
			fmt.Sprintf("argument %q must not be reactive, got %T", name, arg))
	}
	return nil
}
