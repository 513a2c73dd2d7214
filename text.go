package docwire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tidwall/jsonc"
)

// TextCodec translates values to and from JSON text. Input may carry `//`
// and `/* */` comments, trailing commas and a bare top-level scalar.
//
// A TextCodec is immutable and safe for concurrent use; the decoders and
// encoders it drives are not.
type TextCodec struct {
	opts options
}

// NewTextCodec returns a text codec configured by opts.
func NewTextCodec(opts ...Option) *TextCodec {
	return &TextCodec{opts: newOptions(opts)}
}

// Unmarshal decodes exactly one value from data.
func (c *TextCodec) Unmarshal(data []byte) (Value, error) {
	stripped := jsonc.ToJSON(data)
	if off := danglingComma(data, stripped); off >= 0 {
		return Value{}, c.fail(ReasonStructural, "", "", fmt.Errorf("comma without a preceding element at offset %d", off))
	}
	dec := jsontext.NewDecoder(bytes.NewReader(stripped))
	v, err := c.DecodeTokens(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return Value{}, c.structural(dec, err)
	}

	if s, ok := v.AsString(); ok && c.opts.embedded {
		return c.unwrapEmbedded(v, s), nil
	}
	return v, nil
}

// danglingComma returns the offset of a comma that jsonc removed as trailing
// even though it directly follows '[' or '{', as in "[,]". It returns -1
// otherwise. jsonc keeps offsets, so src and stripped line up byte for byte.
func danglingComma(src, stripped []byte) int {
	for i := range src {
		if src[i] != ',' || stripped[i] != ' ' {
			continue
		}
		j := i - 1
		for j >= 0 && isSpace(src[j]) {
			j--
		}
		if j >= 0 && (src[j] == '[' || src[j] == '{') && stripped[j] == src[j] {
			return i
		}
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// unwrapEmbedded decodes a top-level string that carries a textual object or
// array. Content that does not parse stays a string.
func (c *TextCodec) unwrapEmbedded(v Value, s string) Value {
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return v
	}
	inner := &TextCodec{opts: c.opts}
	inner.opts.embedded = false
	inner.opts.bridge = nil
	out, err := inner.Unmarshal(trimmed)
	if err != nil {
		c.opts.bridge.Log(slog.LevelDebug, "embedded payload kept as string", err, slog.Int("length", len(s)))
		return v
	}
	return out
}

// Decode reads r to the end and decodes one value from it.
func (c *TextCodec) Decode(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Value{}, c.fail(ReasonStructural, "", "", fmt.Errorf("read text: %w", err))
	}
	return c.Unmarshal(data)
}

// DecodeDocument decodes one value from r and requires it to be a document.
func (c *TextCodec) DecodeDocument(r io.Reader) (*Document, error) {
	v, err := c.Decode(r)
	if err != nil {
		return nil, err
	}
	return c.asDocument(v)
}

// UnmarshalDocument is DecodeDocument over a byte slice.
func (c *TextCodec) UnmarshalDocument(data []byte) (*Document, error) {
	v, err := c.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return c.asDocument(v)
}

func (c *TextCodec) asDocument(v Value) (*Document, error) {
	d, ok := v.AsDocument()
	if !ok {
		return nil, c.fail(ReasonStructural, "", v.Kind().String(), fmt.Errorf("expected document, got %s", v.Kind()))
	}
	return d, nil
}

func (c *TextCodec) encoderOptions() []jsontext.Options {
	if c.opts.indent == "" {
		return nil
	}
	return []jsontext.Options{jsontext.WithIndent(c.opts.indent)}
}

// Encode streams v to w as JSON text followed by a newline.
func (c *TextCodec) Encode(w io.Writer, v Value) error {
	enc := jsontext.NewEncoder(w, c.encoderOptions()...)
	return c.EncodeTokens(enc, v)
}

// EncodeDocument streams d to w.
func (c *TextCodec) EncodeDocument(w io.Writer, d *Document) error {
	return c.Encode(w, DocumentValue(d))
}

// Marshal returns the JSON text of v.
func (c *TextCodec) Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalDocument returns the JSON text of d.
func (c *TextCodec) MarshalDocument(d *Document) ([]byte, error) {
	return c.Marshal(DocumentValue(d))
}

// Unmarshalers returns json/v2 unmarshalers decoding into *Value, *Document
// and *Array with a text codec built from opts:
//
//	var msg struct {
//		ID      string            `json:"id"`
//		Payload *docwire.Document `json:"payload"`
//	}
//	err := json.Unmarshal(data, &msg, json.WithUnmarshalers(docwire.Unmarshalers()))
func Unmarshalers(opts ...Option) *json.Unmarshalers {
	c := NewTextCodec(opts...)
	return json.JoinUnmarshalers(
		json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Value) error {
			val, err := c.DecodeTokens(dec)
			if err != nil {
				return err
			}
			*v = val
			return nil
		}),
		json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Document) error {
			if dec.PeekKind() == 'n' {
				return json.SkipFunc
			}
			if dec.PeekKind() != '{' {
				return c.structural(dec, fmt.Errorf("expected object, got %v", dec.PeekKind()))
			}
			val, err := c.decodeDocument(dec)
			if err != nil {
				return err
			}
			doc, err := c.asDocument(val)
			if err != nil {
				return err
			}
			*v = *doc
			return nil
		}),
		json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *Array) error {
			if dec.PeekKind() == 'n' {
				return json.SkipFunc
			}
			if dec.PeekKind() != '[' {
				return c.structural(dec, fmt.Errorf("expected array, got %v", dec.PeekKind()))
			}
			val, err := c.decodeArray(dec)
			if err != nil {
				return err
			}
			*v, _ = val.AsArray()
			return nil
		}),
	)
}

// Marshalers returns json/v2 marshalers encoding Value, *Document and Array
// with a text codec built from opts.
func Marshalers(opts ...Option) *json.Marshalers {
	c := NewTextCodec(opts...)
	return json.JoinMarshalers(
		json.MarshalToFunc(func(enc *jsontext.Encoder, v Value) error {
			return c.EncodeTokens(enc, v)
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, v *Document) error {
			if v == nil {
				return enc.WriteToken(jsontext.Null)
			}
			return c.EncodeTokens(enc, DocumentValue(v))
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, v Array) error {
			if v == nil {
				return enc.WriteToken(jsontext.Null)
			}
			return c.EncodeTokens(enc, ArrayValue(v...))
		}),
	)
}
