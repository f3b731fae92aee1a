package instrument

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Belphemur/callcache/internal/scalar"
	"github.com/Belphemur/callcache/internal/store"
)

const opName = "Cache.store"

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.New("memory", store.ProviderConfig{Size: 100})
	if err != nil {
		t.Fatalf("New memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// echo returns its first argument's text prefixed by "out-".
func echo(_ context.Context, args ...scalar.Value) (scalar.Value, error) {
	return scalar.String(fmt.Sprintf("out-%s", args[0].Raw())), nil
}

func readList(t *testing.T, s store.Store, key string) []string {
	t.Helper()
	entries, err := s.Range(context.Background(), key, 0, -1)
	if err != nil {
		t.Fatalf("Range %s: %v", key, err)
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e)
	}
	return out
}

func TestCountCalls_CountsEveryCall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fn := CountCalls(s, opName, echo)

	for i := 0; i < 3; i++ {
		if _, err := fn(ctx, scalar.String("x")); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	n, err := Calls(ctx, s, opName)
	if err != nil {
		t.Fatalf("Calls: %v", err)
	}
	if n != 3 {
		t.Fatalf("Expected counter 3, got %d", n)
	}
}

func TestCountCalls_CountsFailedAttempts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	fn := CountCalls(s, opName, func(context.Context, ...scalar.Value) (scalar.Value, error) {
		return scalar.Value{}, boom
	})

	if _, err := fn(ctx); !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped operation error, got %v", err)
	}
	if n, _ := Calls(ctx, s, opName); n != 1 {
		t.Fatalf("Expected failed call to be counted, got %d", n)
	}
}

func TestCountCalls_IncrementsBeforeExecution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var seen int64
	fn := CountCalls(s, opName, func(ctx context.Context, _ ...scalar.Value) (scalar.Value, error) {
		seen, _ = Calls(ctx, s, opName)
		return scalar.String("ok"), nil
	})
	_, _ = fn(ctx)

	if seen != 1 {
		t.Fatalf("Expected counter to read 1 inside the wrapped call, got %d", seen)
	}
}

func TestCountCalls_Metric(t *testing.T) {
	s := newTestStore(t)
	fn := CountCalls(s, "metric.op", echo)

	before := getCounterVecValue(CallsTotal, "metric.op")
	_, _ = fn(context.Background(), scalar.String("x"))
	after := getCounterVecValue(CallsTotal, "metric.op")

	if after != before+1 {
		t.Errorf("Expected calls metric to increment by 1, got diff %.0f", after-before)
	}
}

func TestCountCalls_StoreFailureSkipsCall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.Append(ctx, CounterKey(opName), []byte("not a counter"))

	called := false
	fn := CountCalls(s, opName, func(context.Context, ...scalar.Value) (scalar.Value, error) {
		called = true
		return scalar.String("ok"), nil
	})
	if _, err := fn(ctx); err == nil {
		t.Fatal("Expected error when the counter cannot be incremented")
	}
	if called {
		t.Fatal("Expected wrapped operation not to run")
	}
}

func TestCalls_NeverCalled(t *testing.T) {
	s := newTestStore(t)
	n, err := Calls(context.Background(), s, "never")
	if err != nil || n != 0 {
		t.Fatalf("Expected 0, nil; got %d, %v", n, err)
	}
}

func TestRecordHistory_Correlation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fn := RecordHistory(s, opName, echo)

	inputs := []string{"first", "second", "third"}
	results := make([]string, len(inputs))
	for i, in := range inputs {
		out, err := fn(ctx, scalar.String(in))
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		results[i] = string(out.Raw())
	}

	gotInputs := readList(t, s, InputsKey(opName))
	gotOutputs := readList(t, s, OutputsKey(opName))
	if len(gotInputs) != 3 || len(gotOutputs) != 3 {
		t.Fatalf("Expected 3 inputs and 3 outputs, got %d and %d", len(gotInputs), len(gotOutputs))
	}

	for i := range inputs {
		args, err := scalar.DecodeArgs([]byte(gotInputs[i]))
		if err != nil {
			t.Fatalf("DecodeArgs %d: %v", i, err)
		}
		if len(args) != 1 || !args[0].Equal(scalar.String(inputs[i])) {
			t.Errorf("input %d: got %v", i, gotInputs[i])
		}
		if gotOutputs[i] != results[i] {
			t.Errorf("output %d: got %q, want %q", i, gotOutputs[i], results[i])
		}
	}
}

func TestRecordHistory_FailureLeavesInputOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	fn := RecordHistory(s, opName, func(context.Context, ...scalar.Value) (scalar.Value, error) {
		return scalar.Value{}, boom
	})

	if _, err := fn(ctx, scalar.Int(1)); !errors.Is(err, boom) {
		t.Fatalf("Expected operation error, got %v", err)
	}
	if n := len(readList(t, s, InputsKey(opName))); n != 1 {
		t.Fatalf("Expected 1 input, got %d", n)
	}
	if n := len(readList(t, s, OutputsKey(opName))); n != 0 {
		t.Fatalf("Expected 0 outputs, got %d", n)
	}
}

func TestRecordHistory_InvalidArgument(t *testing.T) {
	tests := []struct {
		name string
		arg  scalar.Value
	}{
		{name: "zero value", arg: scalar.Value{}},
		{name: "text not utf8", arg: scalar.String("a\xffb")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			called := false
			fn := RecordHistory(s, opName, func(context.Context, ...scalar.Value) (scalar.Value, error) {
				called = true
				return scalar.String("ok"), nil
			})

			if _, err := fn(context.Background(), tt.arg); !errors.Is(err, scalar.ErrInvalidArgument) {
				t.Fatalf("Expected ErrInvalidArgument, got %v", err)
			}
			if called {
				t.Fatal("Expected wrapped operation not to run")
			}
			if inputs := readList(t, s, InputsKey(opName)); len(inputs) != 0 {
				t.Fatalf("Expected no recorded input, got %v", inputs)
			}
		})
	}
}

// opLog records the order of counter and list writes reaching the store.
type opLog struct {
	store.Store
	ops []string
}

func (l *opLog) Incr(ctx context.Context, key string) (int64, error) {
	l.ops = append(l.ops, "incr "+key)
	return l.Store.Incr(ctx, key)
}

func (l *opLog) Append(ctx context.Context, key string, entry []byte) error {
	l.ops = append(l.ops, "append "+key)
	return l.Store.Append(ctx, key, entry)
}

func TestComposition_IncrementPrecedesInputAppend(t *testing.T) {
	log := &opLog{Store: newTestStore(t)}
	ctx := context.Background()

	fn := CountCalls(log, opName, RecordHistory(log, opName, echo))
	for _, in := range []string{"first", "second"} {
		if _, err := fn(ctx, scalar.String(in)); err != nil {
			t.Fatalf("call: %v", err)
		}
	}

	want := []string{
		"incr Cache.store", "append Cache.store:inputs", "append Cache.store:outputs",
		"incr Cache.store", "append Cache.store:inputs", "append Cache.store:outputs",
	}
	if len(log.ops) != len(want) {
		t.Fatalf("Expected %d store writes, got %v", len(want), log.ops)
	}
	for i := range want {
		if log.ops[i] != want[i] {
			t.Errorf("write %d: got %q, want %q", i, log.ops[i], want[i])
		}
	}
}

func TestKeys(t *testing.T) {
	if InputsKey("Cache.store") != "Cache.store:inputs" {
		t.Errorf("unexpected inputs key %q", InputsKey("Cache.store"))
	}
	if OutputsKey("Cache.store") != "Cache.store:outputs" {
		t.Errorf("unexpected outputs key %q", OutputsKey("Cache.store"))
	}
	if CounterKey("Cache.store") != "Cache.store" {
		t.Errorf("unexpected counter key %q", CounterKey("Cache.store"))
	}
}
