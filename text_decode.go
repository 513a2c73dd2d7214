package docwire

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/shopspring/decimal"
)

// DecodeTokens reads the next value from dec and builds it into a Value.
// Objects become documents, arrays become arrays and every number becomes a
// decimal Number. The decoder is left positioned after the value, so a caller
// may decode a sequence of values from one stream.
func (c *TextCodec) DecodeTokens(dec *jsontext.Decoder) (Value, error) {
	return c.decodeValue(dec)
}

func (c *TextCodec) decodeValue(dec *jsontext.Decoder) (Value, error) {
	switch dec.PeekKind() {
	case '{':
		return c.decodeDocument(dec)
	case '[':
		return c.decodeArray(dec)
	default:
		return c.decodeScalar(dec)
	}
}

// decodeDocument decodes a JSON object into a document or, when a registry
// is configured and the first key names a directive, into the directive's
// value.
func (c *TextCodec) decodeDocument(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return Value{}, c.structural(dec, fmt.Errorf("read object open: %w", err))
	}
	doc := NewDocument()
	first := true
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, c.structural(dec, fmt.Errorf("read object key: %w", err))
		}
		key := tok.String()
		if first && len(key) > 1 && key[0] == '$' && c.opts.registry.Lookup(key[1:]) {
			return c.decodeDirective(dec, key)
		}
		first = false

		v, err := c.decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		doc.Set(key, v)
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return Value{}, c.structural(dec, fmt.Errorf("read object close: %w", err))
	}
	return DocumentValue(doc), nil
}

func (c *TextCodec) decodeDirective(dec *jsontext.Decoder, key string) (Value, error) {
	path := string(dec.StackPointer())
	v, err := c.opts.registry.Exec(key[1:], dec)
	if err != nil {
		reason := ReasonStructural
		var ce *ConversionError
		if errors.As(err, &ce) {
			reason = ce.Reason
		}
		return Value{}, c.fail(reason, path, key, err)
	}

	// skip any extra fields in the object. this is necessary to ensure we
	// don't leave the decoder in an invalid state.
	for dec.PeekKind() != '}' {
		if err := dec.SkipValue(); err != nil {
			return Value{}, c.structural(dec, fmt.Errorf("directive %q skip extra field: %w", key, err))
		}
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return Value{}, c.structural(dec, fmt.Errorf("directive %q read object close: %w", key, err))
	}
	return v, nil
}

func (c *TextCodec) decodeArray(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return Value{}, c.structural(dec, fmt.Errorf("read array open: %w", err))
	}
	arr := make(Array, 0)
	for dec.PeekKind() != ']' {
		elem, err := c.decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return Value{}, c.structural(dec, fmt.Errorf("read array close: %w", err))
	}
	return ArrayValue(arr...), nil
}

func (c *TextCodec) decodeScalar(dec *jsontext.Decoder) (Value, error) {
	if dec.PeekKind() == '0' {
		raw, err := dec.ReadValue()
		if err != nil {
			return Value{}, c.structural(dec, fmt.Errorf("read number: %w", err))
		}
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return Value{}, c.fail(ReasonNumberParse, string(dec.StackPointer()), "number", err)
		}
		return NumberValue(d), nil
	}

	tok, err := dec.ReadToken()
	if err != nil {
		return Value{}, c.structural(dec, fmt.Errorf("read value: %w", err))
	}
	switch tok.Kind() {
	case 'n':
		return NullValue(), nil
	case 't', 'f':
		return BoolValue(tok.Bool()), nil
	case '"':
		s := tok.String()
		if c.opts.trim {
			s = strings.TrimSpace(s)
		}
		return StringValue(s), nil
	default:
		return Value{}, c.structural(dec, fmt.Errorf("unexpected token %v", tok.Kind()))
	}
}

func (c *TextCodec) structural(dec *jsontext.Decoder, err error) error {
	return c.opts.bridge.Fail(structuralError(dec, err))
}

func (c *TextCodec) fail(reason Reason, path, typ string, err error) error {
	return c.opts.bridge.Fail(newConversionError(reason, path, typ, err))
}

// structuralError wraps a token stream failure, preferring the location
// reported by a syntactic error over the decoder's current position.
func structuralError(dec *jsontext.Decoder, err error) *ConversionError {
	path := string(dec.StackPointer())
	var se *jsontext.SyntacticError
	if errors.As(err, &se) {
		path = string(se.JSONPointer)
	}
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %w", err, io.ErrUnexpectedEOF)
	}
	return newConversionError(ReasonStructural, path, "", err)
}
