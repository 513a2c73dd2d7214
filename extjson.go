package docwire

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directives for MongoDB Extended JSON wrappers. With them registered the
// text decoder keeps the width of numbers written by other Extended JSON
// producers:
//
//	{"$numberLong": "9007199254740993"}                  // int64
//	{"$numberDecimal": "0.1"}                            // decimal
//	{"$date": "2024-05-01T10:00:00Z"}                    // relaxed date
//	{"$date": {"$numberLong": "1714557600000"}}          // canonical date
//	{"$oid": "65f1c0ffee0000000000beef"}                 // object id
var (
	NumberIntDirective     = NewDirective("ext.numberInt", ReadNumber[int32])
	NumberLongDirective    = NewDirective("ext.numberLong", ReadNumber[int64])
	NumberDoubleDirective  = NewDirective("ext.numberDouble", ReadNumber[float64])
	NumberDecimalDirective = NewDirective("ext.numberDecimal", decodeDecimal)
	DateDirective          = NewDirective("ext.date", decodeDate)
	ObjectIDDirective      = NewDirective("ext.oid", decodeObjectID)
)

// Extended groups every Extended JSON directive.
func Extended() Registration {
	return Group(
		NumberIntDirective,
		NumberLongDirective,
		NumberDoubleDirective,
		NumberDecimalDirective,
		DateDirective,
		ObjectIDDirective,
	)
}

func decodeDecimal(dec *jsontext.Decoder) (decimal.Decimal, error) {
	var s string
	if err := json.UnmarshalDecode(dec, &s); err != nil {
		return decimal.Decimal{}, err
	}
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Decimal{}, newConversionError(ReasonNumberParse, "", "decimal", err)
	}
	return d, nil
}

// decodeDate accepts an RFC 3339 string, a millisecond number, or the
// canonical {"$numberLong": "<ms>"} object.
func decodeDate(dec *jsontext.Decoder) (time.Time, error) {
	switch dec.PeekKind() {
	case '"':
		var s string
		if err := json.UnmarshalDecode(dec, &s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case '{':
		ms, err := decodeCanonicalMillis(dec)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		ms, err := ReadNumber[int64](dec)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}
}

func decodeCanonicalMillis(dec *jsontext.Decoder) (int64, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return 0, err
	}
	var (
		ms    int64
		found bool
	)
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return 0, err
		}
		if tok.String() != "$numberLong" {
			if err := dec.SkipValue(); err != nil {
				return 0, err
			}
			continue
		}
		if ms, err = ReadNumber[int64](dec); err != nil {
			return 0, err
		}
		found = true
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return 0, err
	}
	if !found {
		return 0, errors.New("missing $numberLong in canonical date")
	}
	return ms, nil
}

func decodeObjectID(dec *jsontext.Decoder) (primitive.ObjectID, error) {
	var s string
	if err := json.UnmarshalDecode(dec, &s); err != nil {
		return primitive.ObjectID{}, err
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.ObjectID{}, fmt.Errorf("object id %q: %w", s, err)
	}
	return oid, nil
}
