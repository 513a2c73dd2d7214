package docwire

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func (c *BinaryCodec) decodeDocument(dr bsonrw.DocumentReader, path string) (*Document, error) {
	doc := NewDocument()
	for {
		key, vr, err := dr.ReadElement()
		if errors.Is(err, bsonrw.ErrEOD) {
			return doc, nil
		}
		if err != nil {
			return nil, c.readFault(path, "", fmt.Errorf("read element: %w", err))
		}
		v, err := c.decodeValue(vr, appendPointer(path, key))
		if err != nil {
			return nil, err
		}
		doc.Set(key, v)
	}
}

// decodeArray reads array elements positionally with the same element
// parser documents use.
func (c *BinaryCodec) decodeArray(ar bsonrw.ArrayReader, path string) (Array, error) {
	arr := make(Array, 0)
	for i := 0; ; i++ {
		vr, err := ar.ReadValue()
		if errors.Is(err, bsonrw.ErrEOA) {
			return arr, nil
		}
		if err != nil {
			return nil, c.readFault(path, "", fmt.Errorf("read array value: %w", err))
		}
		v, err := c.decodeValue(vr, appendPointer(path, fmt.Sprint(i)))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// decodeValue maps the element under vr to a Value. Every branch consumes
// the element, including the zero-length null and undefined ones; skipping
// that read would desynchronize every following sibling.
func (c *BinaryCodec) decodeValue(vr bsonrw.ValueReader, path string) (Value, error) {
	t := vr.Type()
	fault := func(err error) (Value, error) {
		return Value{}, c.readFault(path, t.String(), err)
	}

	switch t {
	case bsontype.EmbeddedDocument:
		dr, err := vr.ReadDocument()
		if err != nil {
			return fault(err)
		}
		doc, err := c.decodeDocument(dr, path)
		if err != nil {
			return Value{}, err
		}
		return DocumentValue(doc), nil
	case bsontype.Array:
		ar, err := vr.ReadArray()
		if err != nil {
			return fault(err)
		}
		arr, err := c.decodeArray(ar, path)
		if err != nil {
			return Value{}, err
		}
		return ArrayValue(arr...), nil
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return fault(err)
		}
		return c.stringValue(s), nil
	case bsontype.ObjectID:
		oid, err := vr.ReadObjectID()
		if err != nil {
			return fault(err)
		}
		return StringValue(oid.Hex()), nil
	case bsontype.Regex:
		pattern, options, err := vr.ReadRegex()
		if err != nil {
			return fault(err)
		}
		return StringValue("/" + pattern + "/" + options), nil
	case bsontype.JavaScript:
		code, err := vr.ReadJavascript()
		if err != nil {
			return fault(err)
		}
		return c.stringValue(code), nil
	case bsontype.Symbol:
		sym, err := vr.ReadSymbol()
		if err != nil {
			return fault(err)
		}
		return c.stringValue(sym), nil
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		if err != nil {
			return fault(err)
		}
		return Int32Value(i), nil
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		if err != nil {
			return fault(err)
		}
		return Int64Value(i), nil
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return fault(err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, c.fail(ReasonNumberParse, path, t.String(), fmt.Errorf("%v is not a finite number", f))
		}
		return Float64Value(f), nil
	case bsontype.Decimal128:
		d128, err := vr.ReadDecimal128()
		if err != nil {
			return fault(err)
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return Value{}, c.fail(ReasonNumberParse, path, t.String(), err)
		}
		return NumberValue(d), nil
	case bsontype.Boolean:
		b, err := vr.ReadBoolean()
		if err != nil {
			return fault(err)
		}
		return BoolValue(b), nil
	case bsontype.DateTime:
		ms, err := vr.ReadDateTime()
		if err != nil {
			return fault(err)
		}
		return Int64Value(ms), nil
	case bsontype.Timestamp:
		ts, inc, err := vr.ReadTimestamp()
		if err != nil {
			return fault(err)
		}
		return uint64Value(uint64(ts)<<32 | uint64(inc)), nil
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return fault(err)
		}
		return NullValue(), nil
	case bsontype.Undefined:
		if err := vr.ReadUndefined(); err != nil {
			return fault(err)
		}
		return NullValue(), nil
	case bsontype.Binary, bsontype.CodeWithScope, bsontype.DBPointer, bsontype.MinKey, bsontype.MaxKey:
		return Value{}, c.fail(ReasonUnsupportedType, path, t.String(), fmt.Errorf("no document mapping for %s", t))
	default:
		return fault(fmt.Errorf("unknown element type %#x", byte(t)))
	}
}

func (c *BinaryCodec) stringValue(s string) Value {
	if c.opts.trim {
		s = strings.TrimSpace(s)
	}
	return StringValue(s)
}

func (c *BinaryCodec) readFault(path, typ string, err error) error {
	return c.fail(ReasonBinaryRead, path, typ, err)
}

func (c *BinaryCodec) fail(reason Reason, path, typ string, err error) error {
	return c.opts.bridge.Fail(newConversionError(reason, path, typ, err))
}
