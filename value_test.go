package docwire

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	t.Run("native scalars keep their width", func(t *testing.T) {
		cases := []struct {
			in    any
			kind  Kind
			width Width
		}{
			{nil, KindNull, WidthDecimal},
			{true, KindBool, WidthDecimal},
			{"s", KindString, WidthDecimal},
			{int8(1), KindNumber, WidthInt32},
			{int16(1), KindNumber, WidthInt32},
			{int32(1), KindNumber, WidthInt32},
			{uint16(1), KindNumber, WidthInt32},
			{1, KindNumber, WidthInt64},
			{int64(1), KindNumber, WidthInt64},
			{uint32(1), KindNumber, WidthInt64},
			{uint64(1), KindNumber, WidthInt64},
			{uint64(math.MaxUint64), KindNumber, WidthDecimal},
			{1.5, KindNumber, WidthDouble},
			{float32(1.5), KindNumber, WidthDouble},
			{decimal.RequireFromString("1.25"), KindNumber, WidthDecimal},
			{time.Unix(0, 0), KindTime, WidthDecimal},
		}
		for _, tc := range cases {
			v, err := ValueOf(tc.in)
			require.NoError(t, err, "%T", tc.in)
			assert.Equal(t, tc.kind, v.Kind(), "%T", tc.in)
			assert.Equal(t, tc.width, v.Width(), "%T", tc.in)
		}
	})

	t.Run("max uint64 survives as decimal", func(t *testing.T) {
		v, err := ValueOf(uint64(math.MaxUint64))
		require.NoError(t, err)
		n, _ := v.AsNumber()
		require.Equal(t, "18446744073709551615", n.String())
	})

	t.Run("slices of any convert recursively", func(t *testing.T) {
		v, err := ValueOf([]any{1, "two", []any{true}})
		require.NoError(t, err)
		want := ArrayValue(Int64Value(1), StringValue("two"), ArrayValue(BoolValue(true)))
		require.True(t, v.Equal(want), v.String())
	})

	t.Run("non-finite floats are rejected", func(t *testing.T) {
		_, err := ValueOf(math.NaN())
		require.ErrorIs(t, err, ErrNumberParse)
		_, err = ValueOf([]any{math.Inf(1)})
		require.ErrorIs(t, err, ErrNumberParse)
	})

	t.Run("unknown types become opaque", func(t *testing.T) {
		type custom struct{ A int }
		v, err := ValueOf(custom{A: 1})
		require.NoError(t, err)
		require.Equal(t, KindAny, v.Kind())
		x, ok := v.AsAny()
		require.True(t, ok)
		require.Equal(t, custom{A: 1}, x)
	})

	t.Run("document and value pass through", func(t *testing.T) {
		d := NewDocument()
		v, err := ValueOf(d)
		require.NoError(t, err)
		got, ok := v.AsDocument()
		require.True(t, ok)
		require.Same(t, d, got)

		v2, err := ValueOf(StringValue("x"))
		require.NoError(t, err)
		require.True(t, v2.Equal(StringValue("x")))
	})
}

func TestValueEqual(t *testing.T) {
	t.Run("numbers compare by value not width", func(t *testing.T) {
		require.True(t, Int32Value(7).Equal(NumberValue(decimal.RequireFromString("7.00"))))
		require.True(t, Int64Value(7).Equal(Float64Value(7)))
		require.False(t, Int64Value(7).Equal(Int64Value(8)))
	})

	t.Run("kinds must match", func(t *testing.T) {
		require.False(t, StringValue("1").Equal(Int32Value(1)))
		require.False(t, NullValue().Equal(BoolValue(false)))
	})

	t.Run("arrays compare element wise", func(t *testing.T) {
		require.True(t, ArrayValue(Int32Value(1)).Equal(ArrayValue(Int64Value(1))))
		require.False(t, ArrayValue(Int32Value(1)).Equal(ArrayValue(Int32Value(1), Int32Value(2))))
	})

	t.Run("times compare by instant", func(t *testing.T) {
		utc := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		require.True(t, TimeValue(utc).Equal(TimeValue(utc.In(time.FixedZone("x", 3600)))))
	})

	t.Run("opaque values compare deeply", func(t *testing.T) {
		require.True(t, AnyValue([]int{1}).Equal(AnyValue([]int{1})))
		require.False(t, AnyValue(errors.New("a")).Equal(AnyValue(1)))
	})
}

func TestValueAccessors(t *testing.T) {
	t.Run("zero value is null", func(t *testing.T) {
		var v Value
		require.True(t, v.IsNull())
		require.Equal(t, KindNull, v.Kind())
	})

	t.Run("accessors report kind mismatch", func(t *testing.T) {
		v := StringValue("x")
		_, ok := v.AsBool()
		require.False(t, ok)
		_, ok = v.AsNumber()
		require.False(t, ok)
		s, ok := v.AsString()
		require.True(t, ok)
		require.Equal(t, "x", s)
	})

	t.Run("nil document value is empty", func(t *testing.T) {
		d, ok := DocumentValue(nil).AsDocument()
		require.True(t, ok)
		require.Equal(t, 0, d.Len())
	})

	t.Run("string renders nested structure", func(t *testing.T) {
		d := NewDocument(
			Entry{Key: "a", Value: ArrayValue(Int32Value(1), NullValue())},
			Entry{Key: "b", Value: StringValue("x")},
		)
		require.Equal(t, `{"a": [1, null], "b": "x"}`, DocumentValue(d).String())
	})

	t.Run("kind and width names", func(t *testing.T) {
		require.Equal(t, "document", KindDocument.String())
		require.Equal(t, "kind(99)", Kind(99).String())
		require.Equal(t, "int64", WidthInt64.String())
		require.Equal(t, "decimal", WidthDecimal.String())
	})
}
