package docwire

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// elementWriter writes one value into an element slot that is already open.
type elementWriter func(vw bsonrw.ValueWriter) error

func writeNull(vw bsonrw.ValueWriter) error { return vw.WriteNull() }

// encodeDocument writes d inside a document frame. Each entry's encoding is
// resolved before its slot is opened, so a dispatch failure leaves the frame
// in a state where it can still be closed.
func (c *BinaryCodec) encodeDocument(vw bsonrw.ValueWriter, d *Document, path string) error {
	dw, err := vw.WriteDocument()
	if err != nil {
		return c.writeFault(path, "open document", err)
	}

	var failed error
	for k, e := range d.All() {
		p := appendPointer(path, k)
		write, err := c.resolve(e, p)
		if err != nil {
			failed = err
			break
		}
		evw, err := dw.WriteDocumentElement(k)
		if err != nil {
			failed = c.writeFault(p, "open element", err)
			break
		}
		if err := write(evw); err != nil {
			failed = err
			break
		}
	}

	if err := dw.WriteDocumentEnd(); err != nil && failed == nil {
		return c.writeFault(path, "close document", err)
	}
	return failed
}

func (c *BinaryCodec) encodeArray(vw bsonrw.ValueWriter, arr Array, path string) error {
	aw, err := vw.WriteArray()
	if err != nil {
		return c.writeFault(path, "open array", err)
	}

	var failed error
	for i, e := range arr {
		p := appendPointer(path, fmt.Sprint(i))
		write, err := c.resolve(e, p)
		if err != nil {
			failed = err
			break
		}
		evw, err := aw.WriteArrayElement()
		if err != nil {
			failed = c.writeFault(p, "open element", err)
			break
		}
		if err := write(evw); err != nil {
			failed = err
			break
		}
	}

	if err := aw.WriteArrayEnd(); err != nil && failed == nil {
		return c.writeFault(path, "close array", err)
	}
	return failed
}

// resolve picks the element writer for v without touching the stream.
func (c *BinaryCodec) resolve(v Value, path string) (elementWriter, error) {
	switch v.Kind() {
	case KindNull:
		return writeNull, nil
	case KindBool:
		b := v.b
		return func(vw bsonrw.ValueWriter) error { return vw.WriteBoolean(b) }, nil
	case KindString:
		s := v.str
		return func(vw bsonrw.ValueWriter) error { return vw.WriteString(s) }, nil
	case KindNumber:
		return c.resolveNumber(v.num, v.width, path)
	case KindTime:
		ms := v.t.UnixMilli()
		return func(vw bsonrw.ValueWriter) error { return vw.WriteDateTime(ms) }, nil
	case KindDocument:
		d := v.doc
		return func(vw bsonrw.ValueWriter) error { return c.encodeDocument(vw, d, path) }, nil
	case KindArray:
		arr := v.arr
		return func(vw bsonrw.ValueWriter) error { return c.encodeArray(vw, arr, path) }, nil
	case KindAny:
		return c.resolveAny(v.any, path)
	default:
		return c.unsupported(path, v.Kind().String(), fmt.Errorf("unknown kind %s", v.Kind()))
	}
}

func (c *BinaryCodec) resolveNumber(d decimal.Decimal, width Width, path string) (elementWriter, error) {
	switch width {
	case WidthInt32:
		i, err := fromDecimal[int32](d)
		if err != nil {
			return nil, c.fail(ReasonNumberParse, path, width.String(), err)
		}
		return func(vw bsonrw.ValueWriter) error { return vw.WriteInt32(i) }, nil
	case WidthInt64:
		i, err := fromDecimal[int64](d)
		if err != nil {
			return nil, c.fail(ReasonNumberParse, path, width.String(), err)
		}
		return func(vw bsonrw.ValueWriter) error { return vw.WriteInt64(i) }, nil
	case WidthDouble:
		f := d.InexactFloat64()
		return func(vw bsonrw.ValueWriter) error { return vw.WriteDouble(f) }, nil
	default:
		d128, err := primitive.ParseDecimal128(d.String())
		if err != nil {
			return nil, c.fail(ReasonNumberParse, path, width.String(), err)
		}
		return func(vw bsonrw.ValueWriter) error { return vw.WriteDecimal128(d128) }, nil
	}
}

// resolveAny maps Go scalars carried by AnyValue onto elements of matching
// width. Everything else has no binary mapping.
func (c *BinaryCodec) resolveAny(x any, path string) (elementWriter, error) {
	switch x := x.(type) {
	case nil:
		return writeNull, nil
	case Value:
		return c.resolve(x, path)
	case *Document:
		return c.resolve(DocumentValue(x), path)
	case bool:
		return c.resolve(BoolValue(x), path)
	case string:
		return c.resolve(StringValue(x), path)
	case time.Time:
		return c.resolve(TimeValue(x), path)
	case decimal.Decimal:
		return c.resolveNumber(x, WidthDecimal, path)
	case primitive.ObjectID:
		return func(vw bsonrw.ValueWriter) error { return vw.WriteObjectID(x) }, nil
	case int8, int16, int32, uint8, uint16, int, int64, uint32:
		v, _ := ValueOf(x)
		return c.resolve(v, path)
	case uint:
		return c.resolveUint(uint64(x), path)
	case uint64:
		return c.resolveUint(x, path)
	case float32:
		return c.resolveAny(float64(x), path)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, c.fail(ReasonNumberParse, path, "float64", fmt.Errorf("%v is not a finite number", x))
		}
		return func(vw bsonrw.ValueWriter) error { return vw.WriteDouble(x) }, nil
	}
	return c.unsupported(path, fmt.Sprintf("%T", x), errors.New("no binary mapping"))
}

func (c *BinaryCodec) resolveUint(u uint64, path string) (elementWriter, error) {
	if u <= math.MaxInt64 {
		return c.resolve(Int64Value(int64(u)), path)
	}
	return c.resolveNumber(decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0), WidthDecimal, path)
}

// unsupported reports a value with no binary mapping and either raises or
// substitutes null, per the configured policy.
func (c *BinaryCodec) unsupported(path, typ string, cause error) (elementWriter, error) {
	err := c.fail(ReasonUnsupportedType, path, typ, cause)
	if c.opts.policy != PolicySubstituteNull {
		return nil, err
	}
	c.opts.bridge.Log(slog.LevelWarn, "unsupported value replaced with null", err,
		slog.String("path", path), slog.String("type", typ))
	return writeNull, nil
}

// writeFault reports a writer that refused a transition, which leaves the
// output unframed.
func (c *BinaryCodec) writeFault(path, op string, err error) error {
	return c.fail(ReasonStructural, path, "", fmt.Errorf("%s: %w", op, err))
}
