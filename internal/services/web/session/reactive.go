package session

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Reader yields a value of type T.
type Reader[T any] interface {
	Get() T
}

// Reactive reads its value from session state each time Get is called, so
// render functions and observers always see the latest inputs.
type Reactive[T any] struct {
	get func() T
}

// NewReactive wraps fn as a reactive value.
func NewReactive[T any](fn func() T) Reactive[T] {
	return Reactive[T]{get: fn}
}

// Get evaluates the reactive value.
func (r Reactive[T]) Get() T {
	if r.get == nil {
		var zero T
		return zero
	}
	return r.get()
}

func (Reactive[T]) reactive() {}

// Static is a constant value. It never changes after construction.
type Static[T any] struct {
	Value T
}

// Get returns the constant value.
func (s Static[T]) Get() T {
	return s.Value
}

// IsReactive reports whether v is a reactive value.
func IsReactive(v any) bool {
	_, ok := v.(interface{ reactive() })
	return ok
}

// Map derives a reactive value from another reader.
func Map[T, U any](r Reader[T], fn func(T) U) Reactive[U] {
	return NewReactive(func() U {
		var in T
		if r != nil {
			in = r.Get()
		}
		return fn(in)
	})
}

// StringInput reads a local input as a string.
func StringInput(s *Scope, local string, fallback string) Reactive[string] {
	return NewReactive(func() string {
		value, ok := s.Input(local)
		if !ok || value == nil {
			return fallback
		}
		switch v := value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		case json.Number:
			return v.String()
		default:
			return fallback
		}
	})
}

// FloatInput reads a local input as a number.
func FloatInput(s *Scope, local string, fallback float64) Reactive[float64] {
	return NewReactive(func() float64 {
		value, ok := s.Input(local)
		if !ok {
			return fallback
		}
		if f, ok := toFloat(value); ok {
			return f
		}
		return fallback
	})
}

// IntInput reads a local input as an integer, truncating fractions.
func IntInput(s *Scope, local string, fallback int) Reactive[int] {
	return NewReactive(func() int {
		value, ok := s.Input(local)
		if !ok {
			return fallback
		}
		f, ok := toFloat(value)
		if !ok || f > math.MaxInt32 || f < math.MinInt32 {
			return fallback
		}
		return int(f)
	})
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}
