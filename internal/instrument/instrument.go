// Package instrument layers durable call counting and call history around an
// operation without touching the operation itself. Both wrappers take the
// operation's stable name explicitly; it becomes the store key for the counter
// and the prefix of the two history lists.
//
// Neither wrapper locks. The counter increment, the history appends and the
// wrapped call are separate store operations, so a concurrent reader can see a
// counter ahead of the history, and concurrent callers of the same operation
// can interleave their input and output appends. Callers that need
// inputs[i] to match outputs[i] must serialize calls to the operation.
package instrument

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Belphemur/callcache/internal/config"
	"github.com/Belphemur/callcache/internal/scalar"
	"github.com/Belphemur/callcache/internal/store"
)

const (
	inputsSuffix  = ":inputs"
	outputsSuffix = ":outputs"
)

// Func is an operation taking positional scalar arguments and returning one scalar.
type Func func(ctx context.Context, args ...scalar.Value) (scalar.Value, error)

// CounterKey returns the store key of the invocation counter for name.
func CounterKey(name string) string {
	return name
}

// InputsKey returns the store key of the recorded inputs list for name.
func InputsKey(name string) string {
	return name + inputsSuffix
}

// OutputsKey returns the store key of the recorded outputs list for name.
func OutputsKey(name string) string {
	return name + outputsSuffix
}

// CountCalls wraps fn so every call first increments the counter for name.
// The increment happens before fn runs and is not undone when fn fails, so the
// counter reflects attempts rather than successes. A failed increment aborts the
// call without running fn.
func CountCalls(s store.Store, name string, fn Func) Func {
	return func(ctx context.Context, args ...scalar.Value) (scalar.Value, error) {
		n, err := s.Incr(ctx, CounterKey(name))
		if err != nil {
			return scalar.Value{}, fmt.Errorf("counting call to %s: %w", name, err)
		}
		CallsTotal.WithLabelValues(name).Inc()

		logger := config.GetLogger()
		logger.Debug().Str("operation", name).Int64("count", n).Msg("Call counted")

		return fn(ctx, args...)
	}
}

// RecordHistory wraps fn so every call appends its encoded arguments to the inputs list
// before running fn, and its result to the outputs list afterwards. When fn fails the
// error is returned and no output is appended, leaving the inputs list one entry longer.
func RecordHistory(s store.Store, name string, fn Func) Func {
	return func(ctx context.Context, args ...scalar.Value) (scalar.Value, error) {
		encoded, err := scalar.EncodeArgs(args)
		if err != nil {
			return scalar.Value{}, fmt.Errorf("encoding arguments of %s: %w", name, err)
		}
		if err := s.Append(ctx, InputsKey(name), encoded); err != nil {
			return scalar.Value{}, fmt.Errorf("recording input of %s: %w", name, err)
		}

		result, err := fn(ctx, args...)
		if err != nil {
			return result, err
		}

		if err := s.Append(ctx, OutputsKey(name), result.Raw()); err != nil {
			return scalar.Value{}, fmt.Errorf("recording output of %s: %w", name, err)
		}
		return result, nil
	}
}

// Calls reads the invocation counter for name. An operation never called reads zero.
func Calls(ctx context.Context, s store.Store, name string) (int64, error) {
	raw, ok, err := s.Get(ctx, CounterKey(name))
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter for %s: %w", name, err)
	}
	return n, nil
}
