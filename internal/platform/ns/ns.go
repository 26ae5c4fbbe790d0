// Package ns composes module scope identifiers with local names.
//
// A qualified name is scope + Separator + local. Scope identifiers are single
// segments and never contain the separator, so the first separator in a
// qualified name always marks the boundary of the outermost scope. That is
// what makes composition reversible and keeps the names produced by two
// different scopes disjoint. Local names may themselves be qualified, which
// is how nested modules chain.
package ns

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
)

// Separator joins a scope identifier and a local name.
const Separator = "-"

// ValidateID checks that id is a single namespace segment.
func ValidateID(id string) error {
	if id == "" {
		return apperrors.EK(apperrors.KindInvalidInput, "error.ns.empty_id", "namespace id is required")
	}
	for i := 0; i < len(id); i++ {
		if !isSegmentByte(id[i]) {
			if strings.HasPrefix(id[i:], Separator) {
				return apperrors.EK(apperrors.KindInvalidInput, "error.ns.separator",
					fmt.Sprintf("namespace id %q must not contain %q", id, Separator))
			}
			return apperrors.EK(apperrors.KindInvalidInput, "error.ns.invalid_char",
				fmt.Sprintf("namespace id %q has invalid character %q", id, id[i]))
		}
	}
	return nil
}

// ValidateLocal checks that local is one or more valid segments joined by the separator.
func ValidateLocal(local string) error {
	if local == "" {
		return apperrors.EK(apperrors.KindInvalidInput, "error.ns.empty_local", "local name is required")
	}
	for _, segment := range strings.Split(local, Separator) {
		if err := ValidateID(segment); err != nil {
			return fmt.Errorf("local name %q: %w", local, err)
		}
	}
	return nil
}

func isSegmentByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.':
		return true
	default:
		return false
	}
}

// Join composes scope and local into a qualified name.
// The empty scope is the root namespace and returns local unchanged.
func Join(scope, local string) (string, error) {
	if err := ValidateLocal(local); err != nil {
		return "", err
	}
	if scope == "" {
		return local, nil
	}
	if err := ValidateLocal(scope); err != nil {
		return "", fmt.Errorf("scope: %w", err)
	}
	return scope + Separator + local, nil
}

// Split undoes one Join: it returns the outermost scope and the rest.
func Split(qualified string) (scope, local string, ok bool) {
	idx := strings.Index(qualified, Separator)
	if idx <= 0 || idx == len(qualified)-len(Separator) {
		return "", "", false
	}
	return qualified[:idx], qualified[idx+len(Separator):], true
}

// Segments fully decomposes a qualified name, outermost scope first.
func Segments(qualified string) []string {
	if qualified == "" {
		return nil
	}
	return strings.Split(qualified, Separator)
}

// Namespace maps local names to qualified names for one scope path.
// The zero value is the root namespace.
type Namespace struct {
	prefix string
}

// Root returns the namespace that leaves names unqualified.
func Root() Namespace {
	return Namespace{}
}

// New returns the namespace for a top-level scope id.
func New(id string) (Namespace, error) {
	return Root().Child(id)
}

// Must is New for ids known at compile time.
func Must(id string) Namespace {
	n, err := New(id)
	if err != nil {
		panic(err)
	}
	return n
}

// Child returns the namespace for id nested inside n.
func (n Namespace) Child(id string) (Namespace, error) {
	if err := ValidateID(id); err != nil {
		return Namespace{}, err
	}
	return Namespace{prefix: n.ID(id)}, nil
}

// ID qualifies local without validation. UI code uses it the way markup uses
// literal ids; lookups that must be safe go through Qualify.
func (n Namespace) ID(local string) string {
	if n.prefix == "" {
		return local
	}
	return n.prefix + Separator + local
}

// Qualify validates local and qualifies it.
func (n Namespace) Qualify(local string) (string, error) {
	return Join(n.prefix, local)
}

// Local strips the namespace prefix from qualified. It reports false when
// qualified does not belong to n.
func (n Namespace) Local(qualified string) (string, bool) {
	if n.prefix == "" {
		return qualified, qualified != ""
	}
	rest, ok := strings.CutPrefix(qualified, n.prefix+Separator)
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// Contains reports whether qualified lives in n's subtree.
func (n Namespace) Contains(qualified string) bool {
	_, ok := n.Local(qualified)
	return ok
}

// IsRoot reports whether n is the root namespace.
func (n Namespace) IsRoot() bool {
	return n.prefix == ""
}

// String returns the full prefix, empty for the root.
func (n Namespace) String() string {
	return n.prefix
}

// Depth returns the number of scopes between the root and n.
func (n Namespace) Depth() int {
	return len(Segments(n.prefix))
}
