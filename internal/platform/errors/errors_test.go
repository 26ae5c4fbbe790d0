package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "invalid", err: E(KindInvalidInput, "bad"), want: http.StatusBadRequest},
		{name: "not found", err: E(KindNotFound, "missing"), want: http.StatusNotFound},
		{name: "conflict", err: E(KindConflict, "taken"), want: http.StatusConflict},
		{name: "unavailable", err: E(KindUnavailable, "down"), want: http.StatusServiceUnavailable},
		{name: "untyped", err: stderrors.New("boom"), want: http.StatusInternalServerError},
		{name: "wrapped", err: fmt.Errorf("outer: %w", E(KindNotFound, "missing")), want: http.StatusNotFound},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLocalizationKeyTrimsKey(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrap: %w", EK(KindInvalidInput, "  error.scope.invalid ", "invalid scope"))
	if got := LocalizationKey(err); got != "error.scope.invalid" {
		t.Fatalf("LocalizationKey() = %q, want %q", got, "error.scope.invalid")
	}
	if got := LocalizationKey(stderrors.New("plain")); got != "" {
		t.Fatalf("LocalizationKey(plain) = %q, want empty", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk full")
	err := Wrap(KindUnavailable, "save bookmark", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if err.Error() != "save bookmark: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("KindOf() = %q, want %q", KindOf(err), KindUnavailable)
	}
}
