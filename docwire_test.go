package docwire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	t.Run("zero value is an empty document", func(t *testing.T) {
		var d Document
		require.Equal(t, 0, d.Len())
		_, ok := d.Get("missing")
		require.False(t, ok)
	})

	t.Run("nil document reads as empty", func(t *testing.T) {
		var d *Document
		require.Equal(t, 0, d.Len())
		require.False(t, d.Has("a"))
		require.Empty(t, d.Keys())
		require.Nil(t, d.Entries())
	})

	t.Run("single entry document", func(t *testing.T) {
		d := NewDocument(Entry{Key: "key", Value: StringValue("value")})
		require.Equal(t, 1, d.Len())
		v, ok := d.Get("key")
		require.True(t, ok)
		require.True(t, v.Equal(StringValue("value")))
	})

	t.Run("multiple entry document preserves order", func(t *testing.T) {
		d := NewDocument(
			Entry{Key: "first", Value: Int32Value(1)},
			Entry{Key: "second", Value: Int32Value(2)},
			Entry{Key: "third", Value: Int32Value(3)},
		)
		require.Equal(t, []string{"first", "second", "third"}, d.Keys())
	})

	t.Run("set replaces existing key in place", func(t *testing.T) {
		d := NewDocument()
		d.Set("a", Int32Value(1))
		d.Set("b", Int32Value(2))
		d.Set("a", StringValue("again"))
		require.Equal(t, []string{"a", "b"}, d.Keys())
		v, _ := d.Get("a")
		require.True(t, v.Equal(StringValue("again")))
	})

	t.Run("duplicate keys in constructor keep first position", func(t *testing.T) {
		d := NewDocument(
			Entry{Key: "k", Value: Int32Value(1)},
			Entry{Key: "other", Value: NullValue()},
			Entry{Key: "k", Value: Int32Value(2)},
		)
		require.Equal(t, 2, d.Len())
		require.Equal(t, "k", d.Entries()[0].Key)
		require.True(t, d.Entries()[0].Value.Equal(Int32Value(2)))
	})

	t.Run("delete removes key", func(t *testing.T) {
		d := NewDocument(Entry{Key: "a", Value: NullValue()}, Entry{Key: "b", Value: NullValue()})
		require.True(t, d.Delete("a"))
		require.False(t, d.Delete("a"))
		require.Equal(t, []string{"b"}, d.Keys())
	})

	t.Run("all stops when yield returns false", func(t *testing.T) {
		d := NewDocument(
			Entry{Key: "a", Value: NullValue()},
			Entry{Key: "b", Value: NullValue()},
			Entry{Key: "c", Value: NullValue()},
		)
		var seen []string
		for k := range d.All() {
			seen = append(seen, k)
			if k == "b" {
				break
			}
		}
		require.Equal(t, []string{"a", "b"}, seen)
	})

	t.Run("entries returns a copy", func(t *testing.T) {
		d := NewDocument(Entry{Key: "a", Value: Int32Value(1)})
		entries := d.Entries()
		entries[0].Key = "mutated"
		require.True(t, d.Has("a"))
	})

	t.Run("clone is deep", func(t *testing.T) {
		inner := NewDocument(Entry{Key: "x", Value: Int32Value(1)})
		d := NewDocument(Entry{Key: "inner", Value: DocumentValue(inner)})
		clone := d.Clone()
		inner.Set("x", Int32Value(2))

		v, _ := clone.Get("inner")
		cd, ok := v.AsDocument()
		require.True(t, ok)
		x, _ := cd.Get("x")
		require.True(t, x.Equal(Int32Value(1)))
	})

	t.Run("equal is order sensitive", func(t *testing.T) {
		a := NewDocument(Entry{Key: "a", Value: NullValue()}, Entry{Key: "b", Value: NullValue()})
		b := NewDocument(Entry{Key: "b", Value: NullValue()}, Entry{Key: "a", Value: NullValue()})
		require.False(t, a.Equal(b))
		require.True(t, a.Equal(a.Clone()))
	})
}

func TestArray(t *testing.T) {
	t.Run("array value of nothing is empty not nil", func(t *testing.T) {
		arr, ok := ArrayValue().AsArray()
		require.True(t, ok)
		require.NotNil(t, arr)
		require.Len(t, arr, 0)
	})

	t.Run("array can contain any value kinds", func(t *testing.T) {
		nested := NewDocument(Entry{Key: "key", Value: StringValue("value")})
		v := ArrayValue(
			StringValue("string"),
			Int64Value(42),
			BoolValue(true),
			NullValue(),
			DocumentValue(nested),
			ArrayValue(Int32Value(1), Int32Value(2)),
		)
		arr, _ := v.AsArray()
		require.Len(t, arr, 6)
		require.Equal(t, KindString, arr[0].Kind())
		require.Equal(t, KindNumber, arr[1].Kind())
		require.Equal(t, KindBool, arr[2].Kind())
		require.Equal(t, KindNull, arr[3].Kind())
		require.Equal(t, KindDocument, arr[4].Kind())
		require.Equal(t, KindArray, arr[5].Kind())
	})
}

func TestEntry(t *testing.T) {
	t.Run("empty key is allowed", func(t *testing.T) {
		d := NewDocument(Entry{Key: "", Value: StringValue("value")})
		v, ok := d.Get("")
		require.True(t, ok)
		require.True(t, v.Equal(StringValue("value")))
	})

	t.Run("zero value entry holds null", func(t *testing.T) {
		var e Entry
		require.True(t, e.Value.IsNull())
	})
}
