package module

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/louisbranch/scopeweb/internal/platform/ns"
	"github.com/louisbranch/scopeweb/internal/services/web/session"
)

// Component is the type-erased view of an Instance used for module lists.
type Component interface {
	ID() string
	Render(parent ns.Namespace) templ.Component
	Mount(ctx context.Context, parent *session.Scope) error
}

// IDGenerator hands out ids of the form <name><n>, counting per name.
type IDGenerator struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewIDGenerator returns an empty generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{counts: map[string]int{}}
}

// Next returns the next id for name.
func (g *IDGenerator) Next(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts == nil {
		g.counts = map[string]int{}
	}
	g.counts[name]++
	return fmt.Sprintf("%s%d", name, g.counts[name])
}

var defaultIDs = NewIDGenerator()

type instanceConfig struct {
	id        string
	generator *IDGenerator
}

// Option configures an Instance.
type Option func(*instanceConfig)

// WithID fixes the scope id instead of generating one.
func WithID(id string) Option {
	return func(c *instanceConfig) { c.id = strings.TrimSpace(id) }
}

// WithIDGenerator generates the id from g instead of the process-wide generator.
func WithIDGenerator(g *IDGenerator) Option {
	return func(c *instanceConfig) { c.generator = g }
}

// Instance is a module pair bound to one scope id. Render and Attach both
// derive the child namespace from that id, so the markup and the server
// logic of an instance always agree.
type Instance[T any] struct {
	def Definition[T]
	id  string
}

// New binds def to a scope id.
func New[T any](def Definition[T], opts ...Option) (*Instance[T], error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	cfg := instanceConfig{generator: defaultIDs}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	id := cfg.id
	if id == "" {
		generator := cfg.generator
		if generator == nil {
			generator = defaultIDs
		}
		id = generator.Next(sanitizeName(def.Name))
	}
	if err := ns.ValidateID(id); err != nil {
		return nil, fmt.Errorf("module %q: %w", def.Name, err)
	}
	return &Instance[T]{def: def, id: id}, nil
}

// Must is New for instances declared at package init.
func Must[T any](def Definition[T], opts ...Option) *Instance[T] {
	instance, err := New(def, opts...)
	if err != nil {
		panic(err)
	}
	return instance
}

// ID returns the bound scope id.
func (i *Instance[T]) ID() string {
	return i.id
}

// Name returns the module name.
func (i *Instance[T]) Name() string {
	return i.def.Name
}

// Namespace returns the namespace the instance occupies under parent.
func (i *Instance[T]) Namespace(parent ns.Namespace) ns.Namespace {
	child, err := parent.Child(i.id)
	if err != nil {
		// id was validated in New.
		panic(err)
	}
	return child
}

// Render renders the instance markup under parent.
func (i *Instance[T]) Render(parent ns.Namespace) templ.Component {
	child := i.Namespace(parent)
	return wrap(i.def.Name, child, i.def.UI(child))
}

// Attach runs the server half under parent. ctx must belong to parent's
// session loop.
func (i *Instance[T]) Attach(ctx context.Context, parent *session.Scope) (T, error) {
	return Serve(ctx, parent, i.id, i.def)
}

// Mount attaches the instance and discards its return value.
func (i *Instance[T]) Mount(ctx context.Context, parent *session.Scope) error {
	_, err := i.Attach(ctx, parent)
	return err
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "module"
	}
	return b.String()
}
