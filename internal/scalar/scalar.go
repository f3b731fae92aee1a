// Package scalar defines the value types the cache accepts (text, integer,
// float and raw bytes), their wire form in the backing store, and the
// versioned encoding used to record call arguments.
package scalar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Belphemur/callcache/internal/apperrors"
)

// Kind identifies the type of a Value.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt
	KindFloat
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func parseKind(s string) (Kind, bool) {
	switch s {
	case "str":
		return KindString, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "bytes":
		return KindBytes, true
	}
	return 0, false
}

// Value is an immutable scalar. The zero Value is invalid.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    []byte
}

func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bytes(b []byte) Value { return Value{kind: KindBytes, b: append([]byte(nil), b...)} }

func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was built by one of the constructors.
func (v Value) IsValid() bool { return v.kind != 0 }

// Of converts a Go value into a Value. A string that is not valid UTF-8 becomes a
// bytes Value. Unsigned integers above math.MaxInt64, booleans, nil and composite
// types are rejected with *apperrors.ErrUnsupportedValue.
func Of(data any) (Value, error) {
	switch d := data.(type) {
	case Value:
		if !d.IsValid() {
			return Value{}, &apperrors.ErrUnsupportedValue{Type: "invalid scalar.Value"}
		}
		return d, nil
	case string:
		if !utf8.ValidString(d) {
			return Bytes([]byte(d)), nil
		}
		return String(d), nil
	case []byte:
		return Bytes(d), nil
	case int:
		return Int(int64(d)), nil
	case int8:
		return Int(int64(d)), nil
	case int16:
		return Int(int64(d)), nil
	case int32:
		return Int(int64(d)), nil
	case int64:
		return Int(d), nil
	case uint8:
		return Int(int64(d)), nil
	case uint16:
		return Int(int64(d)), nil
	case uint32:
		return Int(int64(d)), nil
	case uint:
		return ofUnsigned(uint64(d), data)
	case uint64:
		return ofUnsigned(d, data)
	case float32:
		return Float(float64(d)), nil
	case float64:
		return Float(d), nil
	default:
		return Value{}, &apperrors.ErrUnsupportedValue{Type: fmt.Sprintf("%T", data)}
	}
}

func ofUnsigned(u uint64, data any) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, &apperrors.ErrUnsupportedValue{Type: fmt.Sprintf("%T above MaxInt64", data)}
	}
	return Int(int64(u)), nil
}

// Raw returns the bytes written to the store for v: UTF-8 text, base-10 integers,
// shortest round-trip floats, and raw bytes unchanged.
func (v Value) Raw() []byte {
	switch v.kind {
	case KindString:
		return []byte(v.s)
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10)
	case KindFloat:
		return strconv.AppendFloat(nil, v.f, 'g', -1, 64)
	case KindBytes:
		return append([]byte(nil), v.b...)
	default:
		return nil
	}
}

// Interface returns the Go value held by v.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBytes:
		return append([]byte(nil), v.b...)
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBytes:
		return string(v.b) == string(o.b)
	}
	return true
}

// Repr renders v as a literal: quoted text, b-prefixed quoted bytes, bare numbers.
// Integral floats keep a ".0" suffix so they never read as integers.
func (v Value) Repr() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindBytes:
		return "b" + strconv.Quote(string(v.b))
	case KindInt:
		return string(v.Raw())
	case KindFloat:
		raw := string(v.Raw())
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) || strings.ContainsAny(raw, ".e") {
			return raw
		}
		return raw + ".0"
	default:
		return "<invalid>"
	}
}
