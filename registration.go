package docwire

import "github.com/go-json-experiment/json/jsontext"

// Registration is a deferred directive registration. Packages that define
// directives expose values of this type so callers opt in explicitly instead
// of relying on import side-effects (init functions).
//
//	var Color = docwire.NewDirective("game.color", func(dec *jsontext.Decoder) (string, error) { ... })
//
//	r, _ := docwire.NewRegistry(docwire.Extended(), Color)
type Registration func(r *Registry) error

// NewDirective wraps a typed decoder into a Registration. The decoded result
// is converted with ValueOf.
func NewDirective[T any](name string, fn func(dec *jsontext.Decoder) (T, error)) Registration {
	return func(r *Registry) error {
		return r.Register(name, func(dec *jsontext.Decoder) (Value, error) {
			out, err := fn(dec)
			if err != nil {
				return Value{}, err
			}
			return ValueOf(out)
		})
	}
}

// Group groups multiple registrations into one:
//
//	docwire.NewRegistry(docwire.Group(docwire.DateDirective, docwire.ObjectIDDirective), custom)
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// Apply applies one or more registrations to an existing registry. Stops at
// the first error and returns it.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry constructs a new registry and applies the provided
// registrations.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}
