package docwire

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// LogEvent is an informational or error event emitted by a codec.
type LogEvent struct {
	Level   slog.Level
	Message string
	Attrs   []slog.Attr
	Cause   error
}

// Bridge carries codec diagnostics to any number of subscribers without tying
// the codecs to a logging stack. It has two channels: log events and
// conversion failures. Emitting with no subscribers is a no-op, and so is
// every method on a nil *Bridge.
//
// Subscribing and unsubscribing are safe while other goroutines emit.
// Subscribers run synchronously on the emitting goroutine and must not block.
type Bridge struct {
	logs     broadcast[LogEvent]
	failures broadcast[*ConversionError]
}

// NewBridge returns a bridge with no subscribers.
func NewBridge() *Bridge {
	return &Bridge{}
}

// OnLog subscribes fn to log events. The returned func unsubscribes; calling
// it more than once is harmless.
func (b *Bridge) OnLog(fn func(LogEvent)) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	return b.logs.subscribe(fn)
}

// OnFailure subscribes fn to conversion failures.
func (b *Bridge) OnFailure(fn func(*ConversionError)) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	return b.failures.subscribe(fn)
}

// Log emits a log event.
func (b *Bridge) Log(level slog.Level, msg string, cause error, attrs ...slog.Attr) {
	if b == nil {
		return
	}
	b.logs.emit(LogEvent{Level: level, Message: msg, Attrs: attrs, Cause: cause})
}

// Fail emits err on the failure channel and returns it so call sites can
// write `return b.Fail(err)`.
func (b *Bridge) Fail(err *ConversionError) *ConversionError {
	if b != nil {
		b.failures.emit(err)
	}
	return err
}

// AttachLogger forwards both channels to logger. Failures are logged at
// error level.
func (b *Bridge) AttachLogger(logger *slog.Logger) (detach func()) {
	if b == nil || logger == nil {
		return func() {}
	}
	stopLogs := b.OnLog(func(ev LogEvent) {
		attrs := ev.Attrs
		if ev.Cause != nil {
			attrs = append(slices.Clip(attrs), slog.Any("error", ev.Cause))
		}
		logger.LogAttrs(context.Background(), ev.Level, ev.Message, attrs...)
	})
	stopFailures := b.OnFailure(func(err *ConversionError) {
		logger.LogAttrs(context.Background(), slog.LevelError, "conversion failed",
			slog.String("reason", err.Reason.String()),
			slog.String("path", err.Path),
			slog.String("type", err.Type),
			slog.Any("error", err.Err),
		)
	})
	return func() {
		stopLogs()
		stopFailures()
	}
}

type subscriber[T any] struct {
	fn func(T)
}

// broadcast is a copy-on-write subscriber list. The list is allocated on
// first subscribe; emit reads a snapshot without locking.
type broadcast[T any] struct {
	mu   sync.Mutex
	subs atomic.Pointer[[]*subscriber[T]]
}

func (b *broadcast[T]) subscribe(fn func(T)) func() {
	s := &subscriber[T]{fn: fn}

	b.mu.Lock()
	var next []*subscriber[T]
	if cur := b.subs.Load(); cur != nil {
		next = slices.Clone(*cur)
	}
	next = append(next, s)
	b.subs.Store(&next)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(s) })
	}
}

func (b *broadcast[T]) unsubscribe(s *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.subs.Load()
	if cur == nil {
		return
	}
	next := slices.DeleteFunc(slices.Clone(*cur), func(x *subscriber[T]) bool { return x == s })
	b.subs.Store(&next)
}

func (b *broadcast[T]) emit(v T) {
	cur := b.subs.Load()
	if cur == nil {
		return
	}
	for _, s := range *cur {
		deliver(s.fn, v)
	}
}

// deliver shields the emitting codec from a panicking subscriber.
func deliver[T any](fn func(T), v T) {
	defer func() { _ = recover() }()
	fn(v)
}
