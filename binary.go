package docwire

import (
	"bytes"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// BinaryCodec translates documents to and from BSON.
//
// A BinaryCodec is immutable and safe for concurrent use. The cursors and
// writers passed to DecodeReader and EncodeTo are single-owner.
type BinaryCodec struct {
	opts options
}

// NewBinaryCodec returns a binary codec configured by opts. WithRegistry,
// WithIndent and WithEmbeddedPayloads have no effect on it.
func NewBinaryCodec(opts ...Option) *BinaryCodec {
	return &BinaryCodec{opts: newOptions(opts)}
}

// Unmarshal decodes one BSON document from data.
func (c *BinaryCodec) Unmarshal(data []byte) (*Document, error) {
	return c.DecodeReader(bsonrw.NewBSONDocumentReader(data))
}

// Decode reads one length-prefixed BSON document from r and decodes it.
func (c *BinaryCodec) Decode(r io.Reader) (*Document, error) {
	raw, err := bson.NewFromIOReader(r)
	if err != nil {
		return nil, c.readFault("", "", fmt.Errorf("read document: %w", err))
	}
	return c.Unmarshal(raw)
}

// DecodeReader decodes the document under vr.
func (c *BinaryCodec) DecodeReader(vr bsonrw.ValueReader) (*Document, error) {
	dr, err := vr.ReadDocument()
	if err != nil {
		return nil, c.readFault("", vr.Type().String(), fmt.Errorf("read document: %w", err))
	}
	return c.decodeDocument(dr, "")
}

// Marshal encodes d as one BSON document. Nothing is returned on failure.
func (c *BinaryCodec) Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes d to w as one BSON document. w receives nothing if encoding
// fails.
func (c *BinaryCodec) Encode(w io.Writer, d *Document) error {
	var buf bytes.Buffer
	vw, err := bsonrw.NewBSONValueWriter(&buf)
	if err != nil {
		return c.writeFault("", "new value writer", err)
	}
	if err := c.EncodeTo(vw, d); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return c.writeFault("", "write document", err)
	}
	return nil
}

// EncodeTo writes d through vw. If a value fails to encode, every document
// and array frame opened so far is still closed before the error is
// returned, so vw never holds an unbalanced stream.
func (c *BinaryCodec) EncodeTo(vw bsonrw.ValueWriter, d *Document) error {
	return c.encodeDocument(vw, d, "")
}
