package valuecache

import (
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DecodeFunc converts the raw bytes of a stored value into T.
type DecodeFunc[T any] func(raw []byte) (T, error)

// DecodeRaw returns the bytes unchanged.
func DecodeRaw(raw []byte) ([]byte, error) {
	return raw, nil
}

// DecodeString validates raw as UTF-8 and returns it as text.
func DecodeString(raw []byte) (string, error) {
	out, _, err := transform.Bytes(encoding.UTF8Validator, raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func DecodeInt(raw []byte) (int64, error) {
	return strconv.ParseInt(string(raw), 10, 64)
}

func DecodeFloat(raw []byte) (float64, error) {
	return strconv.ParseFloat(string(raw), 64)
}
