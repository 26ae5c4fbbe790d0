package session

import (
	"context"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"
)

// MismatchKind names a pairing problem between server names and page markup.
type MismatchKind string

const (
	// OutputWithoutPlaceholder: the server renders an output the page never shows.
	OutputWithoutPlaceholder MismatchKind = "output_without_placeholder"
	// InputWithoutControl: the server reads or observes an input no control sends.
	InputWithoutControl MismatchKind = "input_without_control"
)

// Placeholders lists the qualified ids the browser found in the page.
type Placeholders struct {
	Inputs  []string
	Outputs []string
}

// Mismatch describes one server name with no matching page id.
type Mismatch struct {
	Kind       MismatchKind
	Name       string
	Suggestion string
}

// Check compares registered outputs and used inputs with the ids present in
// the page. Mismatched scope ids otherwise fail silently: the output never
// appears and the input never changes.
func (s *Session) Check(ctx context.Context, page Placeholders) ([]Mismatch, error) {
	var out []Mismatch
	err := s.Do(ctx, func(context.Context) error {
		out = s.check(page)
		return nil
	})
	return out, err
}

func (s *Session) check(page Placeholders) []Mismatch {
	var out []Mismatch
	for _, name := range s.outputOrder {
		if slices.Contains(page.Outputs, name) {
			continue
		}
		out = append(out, Mismatch{Kind: OutputWithoutPlaceholder, Name: name, Suggestion: closest(name, page.Outputs)})
	}

	used := map[string]struct{}{}
	for name := range s.reads {
		used[name] = struct{}{}
	}
	for name := range s.observers {
		used[name] = struct{}{}
	}
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if slices.Contains(page.Inputs, name) {
			continue
		}
		out = append(out, Mismatch{Kind: InputWithoutControl, Name: name, Suggestion: closest(name, page.Inputs)})
	}
	return out
}

// closest returns the candidate within a small edit distance of name.
func closest(name string, candidates []string) string {
	best := ""
	bestDistance := len(name)/3 + 2
	for _, candidate := range candidates {
		distance := levenshtein.ComputeDistance(name, candidate)
		if distance < bestDistance || (distance == bestDistance && best != "" && candidate < best) {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}
