package docwire

import (
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/shopspring/decimal"
)

// EncodeTokens writes v to enc token by token. Only opaque values that json
// renders are buffered, one at a time, so large graphs encode in bounded
// memory. Encoder faults, such as a string holding invalid UTF-8, fail with
// ReasonStructural.
func (c *TextCodec) EncodeTokens(enc *jsontext.Encoder, v Value) error {
	err := c.encodeValue(enc, "", v)
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return err
	}
	path := string(enc.StackPointer())
	var se *jsontext.SyntacticError
	if errors.As(err, &se) {
		path = string(se.JSONPointer)
	}
	return c.fail(ReasonStructural, path, "", err)
}

func (c *TextCodec) encodeValue(enc *jsontext.Encoder, path string, v Value) error {
	switch v.Kind() {
	case KindNull:
		return enc.WriteToken(jsontext.Null)
	case KindBool:
		return enc.WriteToken(jsontext.Bool(v.b))
	case KindString:
		return enc.WriteToken(jsontext.String(v.str))
	case KindNumber:
		if v.width == WidthDouble {
			return enc.WriteToken(jsontext.Float(v.num.InexactFloat64()))
		}
		return enc.WriteValue(jsontext.Value(formatNumber(v.num)))
	case KindTime:
		return enc.WriteToken(jsontext.String(v.t.Format(time.RFC3339Nano)))
	case KindDocument:
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for k, e := range v.doc.All() {
			if err := enc.WriteToken(jsontext.String(k)); err != nil {
				return err
			}
			if err := c.encodeValue(enc, appendPointer(path, k), e); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	case KindArray:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for i, e := range v.arr {
			if err := c.encodeValue(enc, appendPointer(path, fmt.Sprint(i)), e); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case KindAny:
		return c.encodeAny(enc, path, v.any)
	default:
		return c.unsupported(enc, path, v.Kind().String(), fmt.Errorf("unknown kind %s", v.Kind()))
	}
}

// encodeAny renders an opaque application value: self-rendering types
// first, then errors, Go scalars, enumerations by name, and finally generic
// serialization.
func (c *TextCodec) encodeAny(enc *jsontext.Encoder, path string, x any) error {
	switch x := x.(type) {
	case nil:
		return enc.WriteToken(jsontext.Null)
	case Value:
		return c.encodeValue(enc, path, x)
	case *Document:
		return c.encodeValue(enc, path, DocumentValue(x))
	case json.MarshalerTo, json.Marshaler:
		return c.encodeMarshaled(enc, path, x)
	case error:
		return c.encodeError(enc, x)
	case time.Time:
		return enc.WriteToken(jsontext.String(x.Format(time.RFC3339Nano)))
	case bool:
		return enc.WriteToken(jsontext.Bool(x))
	case string:
		return enc.WriteToken(jsontext.String(x))
	case int:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int8:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int16:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int32:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int64:
		return enc.WriteToken(jsontext.Int(x))
	case uint:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint8:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint16:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint32:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint64:
		return enc.WriteToken(jsontext.Uint(x))
	case float32:
		return enc.WriteToken(jsontext.Float(float64(x)))
	case float64:
		return enc.WriteToken(jsontext.Float(x))
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return c.unsupported(enc, path, fmt.Sprintf("%T", x), err)
		}
		return enc.WriteToken(jsontext.String(string(b)))
	case fmt.Stringer:
		if isEnum(x) {
			return enc.WriteToken(jsontext.String(x.String()))
		}
	}

	return c.encodeMarshaled(enc, path, x)
}

// encodeMarshaled renders x on its own first so a failure halfway through
// leaves enc untouched.
func (c *TextCodec) encodeMarshaled(enc *jsontext.Encoder, path string, x any) error {
	b, err := json.Marshal(x)
	if err != nil {
		return c.unsupported(enc, path, fmt.Sprintf("%T", x), err)
	}
	return enc.WriteValue(b)
}

// formatNumber renders d in plain notation while its magnitude is within
// [1e-6, 1e21) and in exponent notation outside it.
func formatNumber(d decimal.Decimal) string {
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return "0"
	}
	digits := new(big.Int).Abs(coef).String()
	trimmed := strings.TrimRight(digits, "0")
	adjusted := int(d.Exponent()) + len(digits) - 1
	if adjusted >= -6 && adjusted < 21 {
		return d.String()
	}

	var sb strings.Builder
	if coef.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(trimmed[:1])
	if len(trimmed) > 1 {
		sb.WriteByte('.')
		sb.WriteString(trimmed[1:])
	}
	sb.WriteByte('e')
	sb.WriteString(strconv.Itoa(adjusted))
	return sb.String()
}

// isEnum reports whether x is a named integer type, the usual shape of a Go
// enumeration.
func isEnum(x any) bool {
	switch reflect.TypeOf(x).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// encodeError renders err as {"type": ..., "message": ..., "cause": ...},
// following the single-error unwrap chain.
func (c *TextCodec) encodeError(enc *jsontext.Encoder, err error) error {
	toks := []jsontext.Token{
		jsontext.BeginObject,
		jsontext.String("type"), jsontext.String(fmt.Sprintf("%T", err)),
		jsontext.String("message"), jsontext.String(err.Error()),
	}
	for _, tok := range toks {
		if werr := enc.WriteToken(tok); werr != nil {
			return werr
		}
	}
	if cause := errors.Unwrap(err); cause != nil {
		if werr := enc.WriteToken(jsontext.String("cause")); werr != nil {
			return werr
		}
		if werr := c.encodeError(enc, cause); werr != nil {
			return werr
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

// unsupported reports a value that cannot be rendered and then either raises
// or writes null, per the configured policy.
func (c *TextCodec) unsupported(enc *jsontext.Encoder, path, typ string, cause error) error {
	err := c.opts.bridge.Fail(newConversionError(ReasonUnsupportedType, path, typ, cause))
	if c.opts.policy != PolicySubstituteNull {
		return err
	}
	c.opts.bridge.Log(slog.LevelWarn, "unsupported value replaced with null", err,
		slog.String("path", path), slog.String("type", typ))
	return enc.WriteToken(jsontext.Null)
}
