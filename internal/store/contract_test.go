package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Belphemur/callcache/internal/apperrors"
)

// runStoreContract exercises the behaviour every provider must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		val, ok, err := s.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if ok || val != nil {
			t.Fatalf("Expected miss, got %q, %v", val, ok)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "k", []byte("hello")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		val, ok, err := s.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("Get: %q %v %v", val, ok, err)
		}
		if string(val) != "hello" {
			t.Fatalf("Expected 'hello', got %q", val)
		}
	})

	t.Run("IncrCreatesAtZero", func(t *testing.T) {
		s := newStore(t)
		for want := int64(1); want <= 3; want++ {
			n, err := s.Incr(ctx, "counter")
			if err != nil {
				t.Fatalf("Incr: %v", err)
			}
			if n != want {
				t.Fatalf("Expected %d, got %d", want, n)
			}
		}
		val, _, _ := s.Get(ctx, "counter")
		if string(val) != "3" {
			t.Fatalf("Expected counter to read '3', got %q", val)
		}
	})

	t.Run("IncrNonInteger", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "text", []byte("abc"))
		_, err := s.Incr(ctx, "text")
		if !errors.Is(err, &apperrors.ErrStoreUnavailable{}) {
			t.Fatalf("Expected ErrStoreUnavailable, got %v", err)
		}
	})

	t.Run("AppendRange", func(t *testing.T) {
		s := newStore(t)
		for _, v := range []string{"a", "b", "c"} {
			if err := s.Append(ctx, "list", []byte(v)); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		all, err := s.Range(ctx, "list", 0, -1)
		if err != nil {
			t.Fatalf("Range: %v", err)
		}
		if len(all) != 3 || string(all[0]) != "a" || string(all[2]) != "c" {
			t.Fatalf("Unexpected range result: %q", all)
		}

		tail, _ := s.Range(ctx, "list", -2, -1)
		if len(tail) != 2 || string(tail[0]) != "b" {
			t.Fatalf("Unexpected tail: %q", tail)
		}

		empty, _ := s.Range(ctx, "list", 5, 10)
		if len(empty) != 0 {
			t.Fatalf("Expected empty range, got %q", empty)
		}
	})

	t.Run("RangeMissingList", func(t *testing.T) {
		s := newStore(t)
		entries, err := s.Range(ctx, "nothing", 0, -1)
		if err != nil {
			t.Fatalf("Range: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("Expected no entries, got %q", entries)
		}
	})

	t.Run("GetOnList", func(t *testing.T) {
		s := newStore(t)
		_ = s.Append(ctx, "list", []byte("x"))
		_, _, err := s.Get(ctx, "list")
		if !errors.Is(err, &apperrors.ErrStoreUnavailable{}) {
			t.Fatalf("Expected ErrStoreUnavailable for wrong type, got %v", err)
		}
	})

	t.Run("Flush", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "a", []byte("1"))
		_ = s.Append(ctx, "b", []byte("2"))
		if err := s.Flush(ctx); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "a"); ok {
			t.Fatal("Expected 'a' to be gone after Flush")
		}
		if entries, _ := s.Range(ctx, "b", 0, -1); len(entries) != 0 {
			t.Fatal("Expected list 'b' to be gone after Flush")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}
