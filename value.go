package docwire

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindDocument
	KindArray
	// KindTime holds a timestamp. Decoders never produce it; application code
	// uses it to request a datetime element on the binary wire.
	KindTime
	// KindAny holds an opaque application value (enumerations, errors, types
	// that render themselves). Decoders never produce it.
	KindAny
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindNumber:   "number",
	KindString:   "string",
	KindDocument: "document",
	KindArray:    "array",
	KindTime:     "time",
	KindAny:      "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Width records the wire representation of a Number. The value itself is
// always held as a decimal; the width only picks the element written by the
// binary encoder and the token style of the text encoder.
type Width uint8

const (
	WidthDecimal Width = iota
	WidthInt32
	WidthInt64
	WidthDouble
)

func (w Width) String() string {
	switch w {
	case WidthInt32:
		return "int32"
	case WidthInt64:
		return "int64"
	case WidthDouble:
		return "double"
	default:
		return "decimal"
	}
}

// Value is a tagged variant holding one document value. The zero Value is
// null.
type Value struct {
	kind  Kind
	width Width
	b     bool
	num   decimal.Decimal
	str   string
	doc   *Document
	arr   Array
	t     time.Time
	any   any
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue returns a decimal number.
func NumberValue(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// Int32Value returns a number written as a 32-bit integer.
func Int32Value(i int32) Value {
	return Value{kind: KindNumber, width: WidthInt32, num: decimal.NewFromInt32(i)}
}

// Int64Value returns a number written as a 64-bit integer.
func Int64Value(i int64) Value {
	return Value{kind: KindNumber, width: WidthInt64, num: decimal.NewFromInt(i)}
}

// Float64Value returns a number written as a double. Like
// decimal.NewFromFloat it panics if f is NaN or an infinity.
func Float64Value(f float64) Value {
	return Value{kind: KindNumber, width: WidthDouble, num: decimal.NewFromFloat(f)}
}

// DocumentValue returns a nested document value. A nil document is stored as
// an empty one.
func DocumentValue(d *Document) Value {
	if d == nil {
		d = NewDocument()
	}
	return Value{kind: KindDocument, doc: d}
}

// ArrayValue returns an array value.
func ArrayValue(vs ...Value) Value {
	if vs == nil {
		vs = Array{}
	}
	return Value{kind: KindArray, arr: vs}
}

// TimeValue returns a timestamp value.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// AnyValue wraps an application value the codecs dispatch on at encode time.
func AnyValue(v any) Value { return Value{kind: KindAny, any: v} }

func (v Value) Kind() Kind { return v.kind }

// Width returns the number width. It is WidthDecimal for non-numbers.
func (v Value) Width() Width { return v.width }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsNumber() (decimal.Decimal, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsDocument() (*Document, bool) { return v.doc, v.kind == KindDocument }

func (v Value) AsArray() (Array, bool) { return v.arr, v.kind == KindArray }

func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

func (v Value) AsAny() (any, bool) { return v.any, v.kind == KindAny }

// Clone returns a deep copy of composite values. Opaque KindAny payloads are
// shared.
func (v Value) Clone() Value {
	switch v.kind {
	case KindDocument:
		v.doc = v.doc.Clone()
	case KindArray:
		arr := make(Array, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		v.arr = arr
	}
	return v
}

// Equal reports whether v and other hold the same value. Numbers compare by
// decimal value regardless of width and timestamps by instant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num.Equal(other.num)
	case KindString:
		return v.str == other.str
	case KindDocument:
		return v.doc.Equal(other.doc)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindTime:
		return v.t.Equal(other.t)
	default:
		return reflect.DeepEqual(v.any, other.any)
	}
}

// String renders v for debugging. Use a codec for wire output.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprint(v.b)
	case KindNumber:
		return v.num.String()
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindDocument:
		var sb strings.Builder
		sb.WriteByte('{')
		i := 0
		for k, e := range v.doc.All() {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%q: %s", k, e)
			i++
		}
		sb.WriteByte('}')
		return sb.String()
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v.any)
	}
}

// ValueOf converts a Go value into a Value. Native scalars keep their width;
// values with no direct mapping are wrapped with AnyValue.
func ValueOf(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return x, nil
	case *Document:
		return DocumentValue(x), nil
	case Array:
		return ArrayValue(x...), nil
	case []Value:
		return ArrayValue(x...), nil
	case []any:
		arr := make(Array, len(x))
		for i, e := range x {
			ev, err := ValueOf(e)
			if err != nil {
				return Value{}, err
			}
			arr[i] = ev
		}
		return ArrayValue(arr...), nil
	case bool:
		return BoolValue(x), nil
	case string:
		return StringValue(x), nil
	case decimal.Decimal:
		return NumberValue(x), nil
	case time.Time:
		return TimeValue(x), nil
	case int8:
		return Int32Value(int32(x)), nil
	case int16:
		return Int32Value(int32(x)), nil
	case int32:
		return Int32Value(x), nil
	case uint8:
		return Int32Value(int32(x)), nil
	case uint16:
		return Int32Value(int32(x)), nil
	case int:
		return Int64Value(int64(x)), nil
	case int64:
		return Int64Value(x), nil
	case uint32:
		return Int64Value(int64(x)), nil
	case uint:
		return uint64Value(uint64(x)), nil
	case uint64:
		return uint64Value(x), nil
	case float32:
		return floatValue(float64(x))
	case float64:
		return floatValue(x)
	}
	// Named types implementing fmt.Stringer or json.Marshaler stay opaque so
	// the text encoder can render them by name.
	return AnyValue(x), nil
}

func uint64Value(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int64Value(int64(u))
	}
	return NumberValue(decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0))
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, newConversionError(ReasonNumberParse, "", "double", fmt.Errorf("%v is not a finite number", f))
	}
	return Float64Value(f), nil
}
