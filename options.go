package docwire

// UnsupportedPolicy selects what an encoder does with a value it cannot
// render. Either way the failure is emitted on the Bridge first.
type UnsupportedPolicy uint8

const (
	// PolicyRaise returns a ConversionError with ReasonUnsupportedType.
	PolicyRaise UnsupportedPolicy = iota
	// PolicySubstituteNull writes null in place of the value.
	PolicySubstituteNull
)

type options struct {
	bridge   *Bridge
	registry *Registry
	policy   UnsupportedPolicy
	trim     bool
	embedded bool
	indent   string
}

// Option configures a codec.
type Option func(*options)

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBridge routes diagnostics to b. Without it a codec emits nothing.
func WithBridge(b *Bridge) Option {
	return func(o *options) { o.bridge = b }
}

// WithRegistry enables directive objects of the form {"$<name>": ...} in the
// text decoder, dispatched to r.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithUnsupportedPolicy sets the encoders' handling of unrenderable values.
func WithUnsupportedPolicy(p UnsupportedPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithTrimStrings trims leading and trailing white space from decoded string
// values.
func WithTrimStrings() Option {
	return func(o *options) { o.trim = true }
}

// WithEmbeddedPayloads makes the text decoder unwrap a top-level string whose
// content is itself a textual object or array.
func WithEmbeddedPayloads() Option {
	return func(o *options) { o.embedded = true }
}

// WithIndent makes the text encoder emit multi-line output indented by
// indent.
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}
