package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which member of the Value sum a cell holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindJSON
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single cell value. It is a closed sum over the shapes a
// relational cell can take on the wire: SQL NULL, boolean, numeric, text,
// and structured JSON. Numbers are kept as their literal form (json.Number)
// so 64-bit integers survive round-trips without float truncation.
//
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	text string // shared by KindText and KindJSON (canonical JSON)
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value holding the given literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int returns a numeric Value for i.
func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// Float returns a numeric Value for f, formatted the way encoding/json
// would emit it.
func Float(f float64) Value {
	b, err := json.Marshal(f)
	if err != nil {
		// NaN or infinity; keep the strconv form as text since SQL has
		// no JSON representation for it.
		return Value{kind: KindText, text: strconv.FormatFloat(f, 'g', -1, 64)}
	}
	return Value{kind: KindNumber, num: json.Number(b)}
}

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// JSON returns a structured Value holding the canonical (compact) form of
// raw. It fails when raw is not valid JSON.
func JSON(raw string) (Value, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return Value{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return Value{kind: KindJSON, text: buf.String()}, nil
}

// Kind reports which member of the sum v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String returns the canonical string form of v. This form feeds the CSV
// codec, search matching, and no-op edit detection:
//
//	Null   -> ""
//	Bool   -> "true" / "false"
//	Number -> the numeric literal
//	Text   -> the text itself
//	JSON   -> compact JSON
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.num.String()
	default:
		return v.text
	}
}

// Equal reports whether two values have the same kind and canonical form.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.String() == o.String()
}

// Native returns the Go value drivers bind for v: nil, bool, json.Number,
// or string. JSON documents bind as their compact text.
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	default:
		return v.text
	}
}

// MarshalJSON emits the natural JSON representation of the cell: null,
// true/false, a bare number, a quoted string, or the embedded JSON document.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindJSON:
		return []byte(v.text), nil
	default:
		return json.Marshal(v.text)
	}
}

// UnmarshalJSON reverses MarshalJSON: JSON null, booleans, numbers and
// strings map onto their kinds; objects and arrays become KindJSON in
// canonical form.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty JSON value")
	}
	switch trimmed[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '{', '[':
		jv, err := JSON(string(trimmed))
		if err != nil {
			return err
		}
		*v = jv
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*v = Number(n)
		return nil
	}
}

// ValueFromAny converts a driver-returned Go value into a Value. Unknown
// types fall back to their fmt representation as text.
func ValueFromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint64:
		return Number(json.Number(strconv.FormatUint(x, 10)))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case json.Number:
		return Number(x)
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	case time.Time:
		return Text(x.Format(time.RFC3339Nano))
	default:
		return Text(fmt.Sprint(x))
	}
}
