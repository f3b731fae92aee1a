// Package replay reconstructs a readable call trace from the history lists
// written by instrument.RecordHistory.
package replay

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/Belphemur/callcache/internal/apperrors"
	"github.com/Belphemur/callcache/internal/instrument"
	"github.com/Belphemur/callcache/internal/scalar"
	"github.com/Belphemur/callcache/internal/store"
)

// Call is one recorded invocation.
type Call struct {
	Args []scalar.Value
	// Output is the raw recorded result. It is nil when the call has no recorded output.
	Output []byte
}

// Trace is the recorded history of one operation.
type Trace struct {
	Operation string
	// Calls holds one entry per recorded input, in call order.
	Calls []Call
	// Completed is the number of calls paired with an output.
	Completed int
}

// Load reads both history lists of operation and parses every input entry.
// An input that cannot be decoded fails the whole load with
// *apperrors.ErrMalformedHistoryEntry. Outputs beyond the number of inputs are ignored.
func Load(ctx context.Context, s store.Store, operation string) (*Trace, error) {
	inputs, err := s.Range(ctx, instrument.InputsKey(operation), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading inputs of %s: %w", operation, err)
	}
	outputs, err := s.Range(ctx, instrument.OutputsKey(operation), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("reading outputs of %s: %w", operation, err)
	}

	trace := &Trace{
		Operation: operation,
		Calls:     make([]Call, len(inputs)),
		Completed: min(len(inputs), len(outputs)),
	}
	for i, entry := range inputs {
		args, err := scalar.DecodeArgs(entry)
		if err != nil {
			return nil, &apperrors.ErrMalformedHistoryEntry{Operation: operation, Index: i, Err: err}
		}
		trace.Calls[i].Args = args
		if i < len(outputs) {
			trace.Calls[i].Output = outputs[i]
		}
	}
	return trace, nil
}

// WriteTo prints the summary line followed by one line per completed call:
//
//	Cache.store was called 3 times:
//	Cache.store(*("first",)) -> 0b1a...
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := fmt.Fprintf(w, "%s was called %d times:\n", t.Operation, len(t.Calls))
	total += int64(n)
	if err != nil {
		return total, err
	}

	for _, call := range t.Calls[:t.Completed] {
		n, err := fmt.Fprintf(w, "%s(*%s) -> %s\n", t.Operation, scalar.FormatArgs(call.Args), decodeOutput(call.Output))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// decodeOutput renders a recorded output as text, falling back to a quoted
// byte literal when it is not valid UTF-8.
func decodeOutput(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return "b" + strconv.Quote(string(raw))
}

// Replay loads the history of operation and writes it to w. Nothing is written
// when the history cannot be loaded.
func Replay(ctx context.Context, s store.Store, operation string, w io.Writer) error {
	trace, err := Load(ctx, s, operation)
	if err != nil {
		return err
	}
	_, err = trace.WriteTo(w)
	return err
}
