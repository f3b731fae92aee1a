package scalar

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ArgsVersion is the version tag written into every encoded argument list.
//
// Version 1 layout:
//
//	{"v":1,"args":[{"t":"str","v":"first"},{"t":"int","v":"42"},{"t":"bytes","v":"aGk="}]}
//
// Every "v" is a JSON string: integers and floats in their store form, bytes in
// standard base64. Text must be valid UTF-8; other byte strings are encoded as
// bytes. Decoding never evaluates the payload. Unknown or duplicated keys, unknown
// types and malformed payloads are all rejected.
const ArgsVersion = 1

var (
	ErrInvalidArgsJSON        = errors.New("arguments are not valid JSON")
	ErrUnsupportedArgsVersion = errors.New("unsupported arguments version")
	ErrInvalidArgument        = errors.New("invalid argument")
)

// EncodeArgs serializes positional arguments into the versioned textual form.
func EncodeArgs(args []Value) ([]byte, error) {
	buf := []byte(`{"v":` + strconv.Itoa(ArgsVersion) + `,"args":[]}`)
	for i, a := range args {
		elem, err := encodeArg(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if buf, err = sjson.SetRawBytes(buf, "args.-1", elem); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return buf, nil
}

func encodeArg(a Value) ([]byte, error) {
	var payload string
	switch a.kind {
	case KindString:
		if !utf8.ValidString(a.s) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidArgument)
		}
		payload = a.s
	case KindInt, KindFloat:
		payload = string(a.Raw())
	case KindBytes:
		payload = base64.StdEncoding.EncodeToString(a.b)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, a.kind)
	}

	elem, err := sjson.SetBytes([]byte(`{}`), "t", a.kind.String())
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(elem, "v", payload)
}

// DecodeArgs is the exact inverse of EncodeArgs.
func DecodeArgs(data []byte) ([]Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidArgsJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidArgsJSON)
	}
	if err := onlyKeys(root, "v", "args"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgsJSON, err)
	}

	version := root.Get("v")
	if version.Type != gjson.Number || version.Raw != strconv.Itoa(ArgsVersion) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedArgsVersion, version.Raw)
	}

	list := root.Get("args")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: missing args array", ErrInvalidArgsJSON)
	}

	elems := list.Array()
	args := make([]Value, 0, len(elems))
	for i, elem := range elems {
		v, err := decodeArg(elem)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args = append(args, v)
	}
	return args, nil
}

func decodeArg(elem gjson.Result) (Value, error) {
	if !elem.IsObject() {
		return Value{}, fmt.Errorf("%w: not an object", ErrInvalidArgument)
	}
	if err := onlyKeys(elem, "t", "v"); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	tag, payload := elem.Get("t"), elem.Get("v")
	if tag.Type != gjson.String || payload.Type != gjson.String {
		return Value{}, fmt.Errorf("%w: type and value must be strings", ErrInvalidArgument)
	}

	kind, ok := parseKind(tag.Str)
	if !ok {
		return Value{}, fmt.Errorf("%w: unknown type %q", ErrInvalidArgument, tag.Str)
	}

	switch kind {
	case KindString:
		return String(payload.Str), nil
	case KindInt:
		i, err := strconv.ParseInt(payload.Str, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(payload.Str, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return Float(f), nil
	default:
		b, err := base64.StdEncoding.DecodeString(payload.Str)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return Bytes(b), nil
	}
}

// onlyKeys fails when obj holds a key outside allowed or the same key twice.
func onlyKeys(obj gjson.Result, allowed ...string) error {
	var err error
	seen := make(map[string]bool, len(allowed))
	obj.ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		switch {
		case !slices.Contains(allowed, name):
			err = fmt.Errorf("unexpected key %q", name)
		case seen[name]:
			err = fmt.Errorf("duplicate key %q", name)
		}
		seen[name] = true
		return err == nil
	})
	return err
}

// FormatArgs renders arguments as a tuple literal, e.g. ("first",) or ("a", 1).
func FormatArgs(args []Value) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Repr())
	}
	if len(args) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteByte(')')
	return sb.String()
}
