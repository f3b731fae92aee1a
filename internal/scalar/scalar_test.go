package scalar

import (
	"errors"
	"math"
	"testing"

	"github.com/Belphemur/callcache/internal/apperrors"
)

func TestOf_SupportedTypes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		kind Kind
		raw  string
	}{
		{name: "string", in: "bar", kind: KindString, raw: "bar"},
		{name: "bytes", in: []byte("foo"), kind: KindBytes, raw: "foo"},
		{name: "int", in: 123, kind: KindInt, raw: "123"},
		{name: "negative int64", in: int64(-7), kind: KindInt, raw: "-7"},
		{name: "uint8", in: uint8(255), kind: KindInt, raw: "255"},
		{name: "float64", in: 3.14, kind: KindFloat, raw: "3.14"},
		{name: "float32", in: float32(0.5), kind: KindFloat, raw: "0.5"},
		{name: "large float", in: 1e21, kind: KindFloat, raw: "1e+21"},
		{name: "utf8 string", in: "café", kind: KindString, raw: "café"},
		{name: "invalid utf8 string", in: "a\xffb", kind: KindBytes, raw: "a\xffb"},
		{name: "uint", in: uint(9), kind: KindInt, raw: "9"},
		{name: "max uint64", in: uint64(math.MaxInt64), kind: KindInt, raw: "9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := Of(tt.in)
			if err != nil {
				t.Fatalf("Of(%v): %v", tt.in, err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("Kind = %s, want %s", v.Kind(), tt.kind)
			}
			if got := string(v.Raw()); got != tt.raw {
				t.Errorf("Raw = %q, want %q", got, tt.raw)
			}
		})
	}
}

func TestOf_Unsupported(t *testing.T) {
	t.Parallel()
	for _, in := range []any{true, nil, []string{"a"}, map[string]int{}, struct{}{}, Value{}, uint64(math.MaxInt64) + 1, uint(math.MaxUint)} {
		_, err := Of(in)
		if !errors.Is(err, &apperrors.ErrUnsupportedValue{}) {
			t.Errorf("Of(%#v): expected ErrUnsupportedValue, got %v", in, err)
		}
	}
}

func TestBytes_CopiesInput(t *testing.T) {
	t.Parallel()
	in := []byte("abc")
	v := Bytes(in)
	in[0] = 'x'
	if string(v.Raw()) != "abc" {
		t.Fatalf("Expected Value to be immutable, got %q", v.Raw())
	}
}

func TestValue_Repr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		v    Value
		want string
	}{
		{String("first"), `"first"`},
		{String(`say "hi"`), `"say \"hi\""`},
		{Bytes([]byte("hello")), `b"hello"`},
		{Int(42), "42"},
		{Float(2.5), "2.5"},
		{Float(1), "1.0"},
		{Float(-3), "-3.0"},
		{Float(1e21), "1e+21"},
		{Float(math.Inf(1)), "+Inf"},
		{Value{}, "<invalid>"},
	}
	for _, tt := range tests {
		if got := tt.v.Repr(); got != tt.want {
			t.Errorf("Repr() = %s, want %s", got, tt.want)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	t.Parallel()
	if !String("a").Equal(String("a")) {
		t.Error("Expected equal strings")
	}
	if String("1").Equal(Int(1)) {
		t.Error("Expected different kinds to differ")
	}
	if !Bytes([]byte{0, 1}).Equal(Bytes([]byte{0, 1})) {
		t.Error("Expected equal bytes")
	}
}
