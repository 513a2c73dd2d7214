package docwire

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/shopspring/decimal"
)

// Numeric is the set of fixed-width numbers the coercion adapter produces.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Coerce normalizes v to T. Numbers convert directly, strings are parsed as
// decimal text, true is 1, and false and null are 0. Fractional values for
// integer targets, out-of-range values, non-numeric strings and composites
// fail with ReasonNumberParse. Only WithBridge has an effect among opts.
func Coerce[T Numeric](v Value, opts ...Option) (T, error) {
	n, err := coerce[T](v)
	if err != nil {
		return n, newOptions(opts).bridge.Fail(newConversionError(ReasonNumberParse, "", reflect.TypeFor[T]().String(), err))
	}
	return n, nil
}

// CoerceField coerces the value stored under key. A missing field is 0.
func CoerceField[T Numeric](d *Document, key string, opts ...Option) (T, error) {
	v, ok := d.Get(key)
	if !ok {
		return 0, nil
	}
	n, err := coerce[T](v)
	if err != nil {
		return n, newOptions(opts).bridge.Fail(newConversionError(ReasonNumberParse, appendPointer("", key), reflect.TypeFor[T]().String(), err))
	}
	return n, nil
}

func coerce[T Numeric](v Value) (T, error) {
	switch v.Kind() {
	case KindNull:
		return 0, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindNumber:
		return fromDecimal[T](v.num)
	case KindString:
		d, err := parseDecimal(v.str)
		if err != nil {
			return 0, err
		}
		return fromDecimal[T](d)
	default:
		return 0, fmt.Errorf("cannot coerce %s to a number", v.Kind())
	}
}

// ReadNumber reads the next value of dec and normalizes it to T under the
// same rules as Coerce. A quoted numeric string is always acceptable; the
// start of an object or array is not.
//
// ReadNumber emits nothing itself: the text decoder reports directive
// failures and LenientNumbers reports its own.
func ReadNumber[T Numeric](dec *jsontext.Decoder) (T, error) {
	typ := reflect.TypeFor[T]().String()
	fail := func(err error) (T, error) {
		return 0, newConversionError(ReasonNumberParse, string(dec.StackPointer()), typ, err)
	}

	switch dec.PeekKind() {
	case '{', '[':
		return fail(fmt.Errorf("unexpected %v where a number was expected", dec.PeekKind()))
	case '0':
		raw, err := dec.ReadValue()
		if err != nil {
			return 0, structuralError(dec, err)
		}
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return fail(err)
		}
		n, err := fromDecimal[T](d)
		if err != nil {
			return fail(err)
		}
		return n, nil
	}

	tok, err := dec.ReadToken()
	if err != nil {
		return 0, structuralError(dec, err)
	}
	switch tok.Kind() {
	case 'n', 'f':
		return 0, nil
	case 't':
		return 1, nil
	case '"':
		d, err := parseDecimal(tok.String())
		if err != nil {
			return fail(err)
		}
		n, err := fromDecimal[T](d)
		if err != nil {
			return fail(err)
		}
		return n, nil
	default:
		return fail(fmt.Errorf("unexpected token %v", tok.Kind()))
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("empty numeric string")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return d, nil
}

func fromDecimal[T Numeric](d decimal.Decimal) (T, error) {
	rt := reflect.TypeFor[T]()
	switch rt.Kind() {
	case reflect.Float32, reflect.Float64:
		f := d.InexactFloat64()
		if math.IsInf(f, 0) || (rt.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32) {
			return 0, fmt.Errorf("%s overflows %s", d, rt)
		}
		return T(f), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !d.IsInteger() {
			return 0, fmt.Errorf("%s is not an integer", d)
		}
		bi := d.BigInt()
		limit := new(big.Int).Lsh(big.NewInt(1), uint(rt.Bits()))
		if bi.Sign() < 0 || bi.Cmp(limit) >= 0 {
			return 0, fmt.Errorf("%s overflows %s", d, rt)
		}
		return T(bi.Uint64()), nil
	default:
		if !d.IsInteger() {
			return 0, fmt.Errorf("%s is not an integer", d)
		}
		bi := d.BigInt()
		limit := new(big.Int).Lsh(big.NewInt(1), uint(rt.Bits()-1))
		if bi.Cmp(limit) >= 0 || bi.Cmp(new(big.Int).Neg(limit)) < 0 {
			return 0, fmt.Errorf("%s overflows %s", d, rt)
		}
		return T(bi.Int64()), nil
	}
}

// LenientNumbers returns unmarshalers that decode every fixed-width Go number
// with the coercion rules of ReadNumber, so a struct field of type int64
// accepts 42, "42" and true alike. Failures go to the bridge set with
// WithBridge.
//
//	json.Unmarshal(data, &v, json.WithUnmarshalers(docwire.LenientNumbers()))
func LenientNumbers(opts ...Option) *json.Unmarshalers {
	b := newOptions(opts).bridge
	return json.JoinUnmarshalers(
		lenient[int](b), lenient[int8](b), lenient[int16](b), lenient[int32](b), lenient[int64](b),
		lenient[uint](b), lenient[uint8](b), lenient[uint16](b), lenient[uint32](b), lenient[uint64](b),
		lenient[float32](b), lenient[float64](b),
	)
}

func lenient[T Numeric](b *Bridge) *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *T) error {
		n, err := ReadNumber[T](dec)
		if err != nil {
			var ce *ConversionError
			if errors.As(err, &ce) {
				b.Fail(ce)
			}
			return err
		}
		*v = n
		return nil
	})
}
