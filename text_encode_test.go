package docwire

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

func (c color) String() string {
	switch c {
	case 1:
		return "red"
	default:
		return "unknown"
	}
}

type point struct{ X, Y int }

func (p point) MarshalJSONTo(enc *jsontext.Encoder) error {
	return enc.WriteToken(jsontext.String(fmt.Sprintf("%d,%d", p.X, p.Y)))
}

type level struct{ name string }

func (l level) MarshalText() ([]byte, error) { return []byte(strings.ToUpper(l.name)), nil }

func TestTextCodec_Marshal(t *testing.T) {
	c := NewTextCodec()

	t.Run("document in insertion order", func(t *testing.T) {
		d := NewDocument(
			Entry{Key: "z", Value: Int32Value(1)},
			Entry{Key: "a", Value: ArrayValue(BoolValue(true), NullValue(), StringValue("x\n\"q\""))},
			Entry{Key: "m", Value: DocumentValue(NewDocument(Entry{Key: "d", Value: Float64Value(1.5)}))},
		)
		out, err := c.MarshalDocument(d)
		require.NoError(t, err)
		assert.Equal(t, `{"z":1,"a":[true,null,"x\n\"q\""],"m":{"d":1.5}}`, string(out))
	})

	t.Run("numbers are minimal and exact", func(t *testing.T) {
		cases := map[string]Value{
			"9007199254740993": Int64Value(9007199254740993),
			"0.1":              NumberValue(decimal.RequireFromString("0.100")),
			"-2147483648":      Int32Value(-2147483648),
			"2":                Float64Value(2),
		}
		for want, v := range cases {
			out, err := c.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, want, string(out))
		}
	})

	t.Run("large magnitudes use exponent notation", func(t *testing.T) {
		cases := map[string]string{
			"1e400":     "1e400",
			"1.23e34":   "1.23e34",
			"-1.25e-30": "-1.25e-30",
			"1e-7":      "1e-7",
			"0.000001":  "0.000001",
			"1e20":      "100000000000000000000",
			"0":         "0",
		}
		for in, want := range cases {
			d := decimal.RequireFromString(in)
			out, err := c.Marshal(NumberValue(d))
			require.NoError(t, err, in)
			assert.Equal(t, want, string(out), in)

			back, err := c.Unmarshal(out)
			require.NoError(t, err, in)
			assert.True(t, back.Equal(NumberValue(d)), in)
		}
	})

	t.Run("invalid UTF-8 is a structural failure", func(t *testing.T) {
		b := NewBridge()
		var got []*ConversionError
		b.OnFailure(func(err *ConversionError) { got = append(got, err) })

		d := NewDocument(Entry{Key: "s", Value: StringValue("a\xffb")})
		_, err := NewTextCodec(WithBridge(b)).MarshalDocument(d)
		require.ErrorIs(t, err, ErrStructural)
		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "/s", ce.Path)
		require.Len(t, got, 1)
	})

	t.Run("time renders as RFC 3339", func(t *testing.T) {
		out, err := c.Marshal(TimeValue(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		assert.Equal(t, `"2024-05-01T10:00:00Z"`, string(out))
	})

	t.Run("encode appends newline", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf, StringValue("x")))
		assert.Equal(t, "\"x\"\n", buf.String())
	})

	t.Run("indent", func(t *testing.T) {
		out, err := NewTextCodec(WithIndent("  ")).MarshalDocument(NewDocument(Entry{Key: "a", Value: Int32Value(1)}))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), "{\n  \"a\":"), string(out))
		assert.True(t, strings.HasSuffix(string(out), "\n}"), string(out))
	})

	t.Run("nil document is empty", func(t *testing.T) {
		out, err := c.MarshalDocument(nil)
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(out))
	})
}

func TestTextCodec_MarshalAny(t *testing.T) {
	c := NewTextCodec()
	marshal := func(t *testing.T, x any) string {
		t.Helper()
		out, err := c.Marshal(AnyValue(x))
		require.NoError(t, err)
		return string(out)
	}

	t.Run("scalars", func(t *testing.T) {
		assert.Equal(t, `7`, marshal(t, uint8(7)))
		assert.Equal(t, `-7`, marshal(t, int16(-7)))
		assert.Equal(t, `"s"`, marshal(t, "s"))
		assert.Equal(t, `null`, marshal(t, nil))
	})

	t.Run("enumerations render by name", func(t *testing.T) {
		assert.Equal(t, `"red"`, marshal(t, color(1)))
	})

	t.Run("self rendering types", func(t *testing.T) {
		assert.Equal(t, `"1,2"`, marshal(t, point{X: 1, Y: 2}))
		assert.Equal(t, `"WARN"`, marshal(t, level{name: "warn"}))
	})

	t.Run("errors render with their cause chain", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", errors.New("inner"))
		assert.Equal(t,
			`{"type":"*fmt.wrapError","message":"outer: inner","cause":{"type":"*errors.errorString","message":"inner"}}`,
			marshal(t, err))
	})

	t.Run("generic serialization fallback", func(t *testing.T) {
		type record struct {
			Name string `json:"name"`
			Tags []int  `json:"tags"`
		}
		assert.Equal(t, `{"name":"n","tags":[1,2]}`, marshal(t, record{Name: "n", Tags: []int{1, 2}}))
	})

	t.Run("nested document and value", func(t *testing.T) {
		assert.Equal(t, `{"a":true}`, marshal(t, NewDocument(Entry{Key: "a", Value: BoolValue(true)})))
		assert.Equal(t, `"v"`, marshal(t, StringValue("v")))
	})
}

func TestTextCodec_Unsupported(t *testing.T) {
	doc := NewDocument(
		Entry{Key: "ok", Value: Int32Value(1)},
		Entry{Key: "ch", Value: AnyValue(make(chan int))},
	)

	t.Run("raise", func(t *testing.T) {
		b := NewBridge()
		var got []*ConversionError
		b.OnFailure(func(err *ConversionError) { got = append(got, err) })

		_, err := NewTextCodec(WithBridge(b)).MarshalDocument(doc)
		require.ErrorIs(t, err, ErrUnsupportedType)
		var ce *ConversionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "/ch", ce.Path)
		assert.Equal(t, "chan int", ce.Type)
		require.Len(t, got, 1)
	})

	t.Run("field without a mapping fails the whole value", func(t *testing.T) {
		type holder struct {
			Name string
			C    chan int
		}
		d := NewDocument(
			Entry{Key: "a", Value: AnyValue(holder{Name: "n"})},
			Entry{Key: "b", Value: BoolValue(true)},
		)

		_, err := NewTextCodec().MarshalDocument(d)
		require.ErrorIs(t, err, ErrUnsupportedType)

		b := NewBridge()
		var failures int
		b.OnFailure(func(*ConversionError) { failures++ })
		out, err := NewTextCodec(WithBridge(b), WithUnsupportedPolicy(PolicySubstituteNull)).MarshalDocument(d)
		require.NoError(t, err)
		assert.Equal(t, `{"a":null,"b":true}`, string(out))
		assert.Equal(t, 1, failures)
	})

	t.Run("substitute null", func(t *testing.T) {
		b := NewBridge()
		var warned bool
		b.OnLog(func(ev LogEvent) { warned = warned || ev.Message == "unsupported value replaced with null" })

		out, err := NewTextCodec(WithBridge(b), WithUnsupportedPolicy(PolicySubstituteNull)).MarshalDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, `{"ok":1,"ch":null}`, string(out))
		assert.True(t, warned)
	})
}
