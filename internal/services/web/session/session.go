// Package session hosts the per-browser input/output mappings that module
// server logic reads and writes.
//
// A Session owns one goroutine (Run) that applies input events, runs
// observers and re-renders outputs. Every Scope method must be called from
// that goroutine, either during Do or from an observer or render function.
// The mappings carry no locks for that reason.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/scopeweb/internal/platform/errors"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultQueueSize = 64
	tracerName       = "github.com/louisbranch/scopeweb/internal/services/web/session"
)

var (
	// ErrClosed reports an operation on a session whose loop has stopped.
	ErrClosed = errors.New("session is closed")
	// ErrDuplicateScope reports a second claim of the same qualified scope.
	ErrDuplicateScope = errors.New("duplicate scope")
)

// Render regenerates the content of one output.
type Render func(ctx context.Context) (templ.Component, error)

// Observer runs after the input it observes changes.
type Observer func(ctx context.Context, value any) error

// InputEvent carries one value change sent by the browser.
type InputEvent struct {
	Name  string
	Value any
}

// OutputMessage carries freshly rendered HTML for one output.
type OutputMessage struct {
	Name string
	HTML string
}

// Sink receives rendered outputs from the session loop.
type Sink interface {
	SendOutput(ctx context.Context, msg OutputMessage) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg OutputMessage) error

// SendOutput calls f.
func (f SinkFunc) SendOutput(ctx context.Context, msg OutputMessage) error {
	return f(ctx, msg)
}

// Options configures a Session.
type Options struct {
	ID        string
	QueueSize int
	Sink      Sink
	Logger    *log.Logger
	Tracer    trace.Tracer
}

type event struct {
	inputs []InputEvent
	fn     func(context.Context) error
	reply  chan error
}

// Session holds the input and output mappings of one browser connection.
type Session struct {
	id     string
	sink   Sink
	logger *log.Logger
	tracer trace.Tracer

	events  chan event
	done    chan struct{}
	started chan struct{}

	inputs      map[string]any
	outputs     map[string]Render
	outputOrder []string
	rendered    map[string]string
	observers   map[string][]Observer
	reads       map[string]struct{}
	claimed     map[string]struct{}
	ended       []func()
	root        *Scope
}

// New builds a session. Run must be called before Dispatch or Do can make progress.
func New(opts Options) *Session {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	s := &Session{
		id:        strings.TrimSpace(opts.ID),
		sink:      opts.Sink,
		logger:    logger,
		tracer:    tracer,
		events:    make(chan event, queueSize),
		done:      make(chan struct{}),
		started:   make(chan struct{}),
		inputs:    map[string]any{},
		outputs:   map[string]Render{},
		rendered:  map[string]string{},
		observers: map[string][]Observer{},
		reads:     map[string]struct{}{},
		claimed:   map[string]struct{}{},
	}
	s.root = &Scope{session: s, ns: ns.Root()}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Root returns the unscoped view over the session mappings.
func (s *Session) Root() *Scope {
	return s.root
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run processes events until ctx is cancelled. All module logic executes on
// the calling goroutine.
func (s *Session) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	select {
	case <-s.started:
		return errors.New("session is already running")
	default:
		close(s.started)
	}
	defer close(s.done)
	defer s.end()

	ctx = WithActive(ctx, s)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev event) {
	if ev.fn != nil {
		err := s.runDo(ctx, ev.fn)
		s.flush(ctx)
		if ev.reply != nil {
			ev.reply <- err
		}
		return
	}
	s.applyInputs(ctx, ev.inputs)
	// Batch whatever else is already queued so one flush covers it.
	for {
		select {
		case next := <-s.events:
			if next.fn != nil {
				s.flush(ctx)
				s.handle(ctx, next)
				return
			}
			s.applyInputs(ctx, next.inputs)
		default:
			s.flush(ctx)
			if ev.reply != nil {
				ev.reply <- nil
			}
			return
		}
	}
}

func (s *Session) runDo(ctx context.Context, fn func(context.Context) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "session.do", trace.WithAttributes(attribute.String("scopeweb.session_id", s.id)))
	defer span.End()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("session %s: panic: %v", s.id, recovered)
			s.logger.Printf("session panic recovered session_id=%s panic=%v", s.id, recovered)
		}
	}()
	return fn(ctx)
}

func (s *Session) applyInputs(ctx context.Context, inputs []InputEvent) {
	for _, input := range inputs {
		s.applyInput(ctx, input)
	}
}

func (s *Session) applyInput(ctx context.Context, input InputEvent) {
	previous, existed := s.inputs[input.Name]
	if existed && reflect.DeepEqual(previous, input.Value) {
		return
	}
	s.inputs[input.Name] = input.Value

	observers := slices.Clone(s.observers[input.Name])
	if len(observers) == 0 {
		return
	}
	ctx, span := s.tracer.Start(ctx, "session.input", trace.WithAttributes(
		attribute.String("scopeweb.session_id", s.id),
		attribute.String("scopeweb.input", input.Name),
	))
	defer span.End()
	for _, observer := range observers {
		if err := s.runObserver(ctx, observer, input.Value); err != nil {
			span.RecordError(err)
			s.logger.Printf("observer failed session_id=%s input=%s err=%v", s.id, input.Name, err)
		}
	}
}

func (s *Session) runObserver(ctx context.Context, observer Observer, value any) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return observer(ctx, value)
}

func (s *Session) flush(ctx context.Context) {
	if len(s.outputOrder) == 0 {
		return
	}
	ctx, span := s.tracer.Start(ctx, "session.flush", trace.WithAttributes(attribute.String("scopeweb.session_id", s.id)))
	defer span.End()
	for _, name := range slices.Clone(s.outputOrder) {
		render, ok := s.outputs[name]
		if !ok {
			continue
		}
		html := s.renderOutput(ctx, name, render)
		if previous, seen := s.rendered[name]; seen && previous == html {
			continue
		}
		s.rendered[name] = html
		if s.sink == nil {
			continue
		}
		if err := s.sink.SendOutput(ctx, OutputMessage{Name: name, HTML: html}); err != nil {
			s.logger.Printf("send output failed session_id=%s output=%s err=%v", s.id, name, err)
		}
	}
}

func (s *Session) renderOutput(ctx context.Context, name string, render Render) (html string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Printf("output render panic session_id=%s output=%s panic=%v", s.id, name, recovered)
			html = errorFragment(fmt.Errorf("panic: %v", recovered))
		}
	}()
	component, err := render(ctx)
	if err != nil {
		s.logger.Printf("output render failed session_id=%s output=%s err=%v", s.id, name, err)
		return errorFragment(err)
	}
	if component == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		s.logger.Printf("output render failed session_id=%s output=%s err=%v", s.id, name, err)
		return errorFragment(err)
	}
	return buf.String()
}

func errorFragment(err error) string {
	return `<div class="scopeweb-output-error" role="alert">` + templ.EscapeString(err.Error()) + `</div>`
}

func (s *Session) end() {
	for i := len(s.ended) - 1; i >= 0; i-- {
		func(fn func()) {
			defer func() {
				if recovered := recover(); recovered != nil {
					s.logger.Printf("session ended callback panic session_id=%s panic=%v", s.id, recovered)
				}
			}()
			fn()
		}(s.ended[i])
	}
	s.ended = nil
}

// Dispatch queues input changes sent by the browser. Names are qualified.
func (s *Session) Dispatch(ctx context.Context, inputs ...InputEvent) error {
	if len(inputs) == 0 {
		return nil
	}
	for _, input := range inputs {
		if err := ns.ValidateLocal(input.Name); err != nil {
			return fmt.Errorf("input %q: %w", input.Name, err)
		}
	}
	return s.enqueue(ctx, event{inputs: inputs})
}

// Do runs fn on the session goroutine and waits for it. Outputs registered
// by fn are flushed before Do returns.
func (s *Session) Do(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("session function is required")
	}
	if Active(ctx) == s {
		// Already on the loop goroutine.
		return fn(ctx)
	}
	reply := make(chan error, 1)
	if err := s.enqueue(ctx, event{fn: fn, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) enqueue(ctx context.Context, ev event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current inputs, keyed by qualified name.
func (s *Session) Snapshot(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := s.Do(ctx, func(context.Context) error {
		out = make(map[string]any, len(s.inputs))
		for name, value := range s.inputs {
			out[name] = value
		}
		return nil
	})
	return out, err
}

// Restore applies previously saved inputs as if the browser had sent them.
// Names that are not valid qualified names are skipped.
func (s *Session) Restore(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	inputs := make([]InputEvent, 0, len(values))
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if ns.ValidateLocal(name) != nil {
			s.logger.Printf("restore skipped invalid input session_id=%s input=%q", s.id, name)
			continue
		}
		inputs = append(inputs, InputEvent{Name: name, Value: values[name]})
	}
	return s.Do(ctx, func(ctx context.Context) error {
		s.applyInputs(ctx, inputs)
		return nil
	})
}

func (s *Session) claim(name string) error {
	if _, ok := s.claimed[name]; ok {
		return apperrors.Wrap(apperrors.KindConflict, fmt.Sprintf("scope %q", name), ErrDuplicateScope)
	}
	s.claimed[name] = struct{}{}
	return nil
}

func (s *Session) release(namespace ns.Namespace) {
	for name := range s.claimed {
		if name == namespace.String() || namespace.Contains(name) {
			delete(s.claimed, name)
		}
	}
}

func (s *Session) removeOutput(name string) {
	if _, ok := s.outputs[name]; !ok {
		return
	}
	delete(s.outputs, name)
	delete(s.rendered, name)
	for i, existing := range s.outputOrder {
		if existing == name {
			s.outputOrder = append(s.outputOrder[:i], s.outputOrder[i+1:]...)
			break
		}
	}
}
