package docwire

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-json-experiment/json/jsontext"
)

// Directive decodes the value of a directive object. It is called with the
// decoder positioned on the value following the "$<name>" key and must
// consume exactly that value.
type Directive func(dec *jsontext.Decoder) (Value, error)

// Registry maps directive names to their decoders. Names are either bare
// ("date") or namespaced with a single dot ("ext.date"); a namespaced
// directive can also be looked up by its short name when that is unique.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Directive
	short   map[string][]string
}

func newRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Directive),
		short:   make(map[string][]string),
	}
}

func splitName(name string) (ns, short string, err error) {
	parts := strings.Split(name, ".")
	switch {
	case len(parts) == 1:
		return "", name, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("directive %q invalid namespace (expected \"name\" or \"ns.name\")", name)
	}
}

// Register adds fn under name.
func (r *Registry) Register(name string, fn Directive) error {
	if fn == nil {
		return fmt.Errorf("directive %q nil function", name)
	}
	ns, short, err := splitName(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("directive %q already registered", name)
	}
	r.entries[name] = fn
	if ns != "" {
		r.short[short] = append(r.short[short], name)
	}
	return nil
}

// resolve returns the fully qualified name for name. A bare registration
// wins over namespaced ones sharing its short name.
func (r *Registry) resolve(name string) (string, Directive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if fn, ok := r.entries[name]; ok {
		return name, fn, nil
	}
	candidates := r.short[name]
	switch len(candidates) {
	case 0:
		return "", nil, fmt.Errorf("directive %q not registered", name)
	case 1:
		return candidates[0], r.entries[candidates[0]], nil
	default:
		sorted := slices.Sorted(slices.Values(candidates))
		return "", nil, fmt.Errorf("directive %q ambiguous (candidates: %s)", name, strings.Join(sorted, ", "))
	}
}

// Lookup reports whether name resolves to exactly one directive.
func (r *Registry) Lookup(name string) bool {
	if r == nil {
		return false
	}
	_, _, err := r.resolve(name)
	return err == nil
}

// Exec runs the directive registered under name against dec.
func (r *Registry) Exec(name string, dec *jsontext.Decoder) (Value, error) {
	full, fn, err := r.resolve(name)
	if err != nil {
		return Value{}, err
	}
	v, err := fn(dec)
	if err != nil {
		return Value{}, fmt.Errorf("directive %q execution: %w", full, err)
	}
	return v, nil
}
