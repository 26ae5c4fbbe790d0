package session

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
)

// Scope is a view over the session mappings restricted to one namespace.
// The root scope and a module's scope expose the same methods, so module
// server code reads exactly like top-level server code.
type Scope struct {
	session *Session
	ns      ns.Namespace
	closed  bool
}

// Session returns the session that owns the scope.
func (s *Scope) Session() *Session {
	return s.session
}

// Namespace returns the namespace the scope is bound to.
func (s *Scope) Namespace() ns.Namespace {
	return s.ns
}

// NS qualifies a local name for this scope.
func (s *Scope) NS(local string) string {
	return s.ns.ID(local)
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	return s.closed
}

// Input returns the latest browser value for a local input name.
func (s *Scope) Input(local string) (any, bool) {
	if s.closed {
		return nil, false
	}
	name, err := s.ns.Qualify(local)
	if err != nil {
		return nil, false
	}
	s.session.reads[name] = struct{}{}
	value, ok := s.session.inputs[name]
	return value, ok
}

// Inputs returns the inputs inside this scope's subtree keyed by local name.
func (s *Scope) Inputs() map[string]any {
	out := map[string]any{}
	if s.closed {
		return out
	}
	for name, value := range s.session.inputs {
		if local, ok := s.ns.Local(name); ok {
			out[local] = value
		}
	}
	return out
}

// SetOutput registers the render function for a local output name,
// replacing any previous one.
func (s *Scope) SetOutput(local string, render Render) error {
	if render == nil {
		return apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("output %q: render is required", local))
	}
	name, err := s.qualify(local)
	if err != nil {
		return err
	}
	if _, exists := s.session.outputs[name]; !exists {
		s.session.outputOrder = append(s.session.outputOrder, name)
	}
	s.session.outputs[name] = render
	delete(s.session.rendered, name)
	return nil
}

// Output returns the render function registered for a local output name.
func (s *Scope) Output(local string) (Render, bool) {
	if s.closed {
		return nil, false
	}
	name, err := s.ns.Qualify(local)
	if err != nil {
		return nil, false
	}
	render, ok := s.session.outputs[name]
	return render, ok
}

// RemoveOutput drops a local output. It stops being rendered and flushed
// until it is registered again.
func (s *Scope) RemoveOutput(local string) {
	if s.closed {
		return
	}
	if name, err := s.ns.Qualify(local); err == nil {
		s.session.removeOutput(name)
	}
}

// Observe runs fn every time the local input changes value.
func (s *Scope) Observe(local string, fn Observer) error {
	if fn == nil {
		return apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("observer for %q is required", local))
	}
	name, err := s.qualify(local)
	if err != nil {
		return err
	}
	s.session.observers[name] = append(s.session.observers[name], fn)
	return nil
}

// Child claims a nested scope. Claiming the same id twice under one parent
// fails with ErrDuplicateScope.
func (s *Scope) Child(id string) (*Scope, error) {
	if s.closed {
		return nil, s.closedErr()
	}
	child, err := s.ns.Child(id)
	if err != nil {
		return nil, err
	}
	if err := s.session.claim(child.String()); err != nil {
		return nil, err
	}
	return &Scope{session: s.session, ns: child}, nil
}

// OnEnded registers fn to run when the session loop stops.
func (s *Scope) OnEnded(fn func()) {
	if fn == nil {
		return
	}
	s.session.ended = append(s.session.ended, fn)
}

// Close removes every input, output and observer in the scope's subtree and
// releases its id so it can be claimed again.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	sess := s.session
	for name := range sess.inputs {
		if s.owns(name) {
			delete(sess.inputs, name)
		}
	}
	for name := range sess.observers {
		if s.owns(name) {
			delete(sess.observers, name)
		}
	}
	for _, name := range append([]string(nil), sess.outputOrder...) {
		if s.owns(name) {
			sess.removeOutput(name)
		}
	}
	for name := range sess.reads {
		if s.owns(name) {
			delete(sess.reads, name)
		}
	}
	sess.release(s.ns)
	if !s.ns.IsRoot() {
		s.closed = true
	}
}

func (s *Scope) owns(name string) bool {
	return s.ns.IsRoot() || s.ns.Contains(name)
}

func (s *Scope) qualify(local string) (string, error) {
	if s.closed {
		return "", s.closedErr()
	}
	return s.ns.Qualify(local)
}

func (s *Scope) closedErr() error {
	return apperrors.Wrap(apperrors.KindConflict, fmt.Sprintf("scope %q", s.ns.String()), errScopeClosed)
}

var errScopeClosed = errors.New("scope is closed")

// String describes the scope for logs.
func (s *Scope) String() string {
	if s.ns.IsRoot() {
		return "scope(root)"
	}
	return "scope(" + strings.TrimSpace(s.ns.String()) + ")"
}
