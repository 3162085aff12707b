package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func TestAcquireExhaustsBucket(t *testing.T) {
	l := New(map[string]BucketConfig{
		"routing": {Capacity: 5, RefillPerSec: 1},
	}, BucketConfig{})

	for i := 0; i < 5; i++ {
		if err := l.Acquire("routing"); err != nil {
			t.Fatalf("acquire %d: unexpected error: %v", i+1, err)
		}
	}

	err := l.Acquire("routing")
	var blocked Blocked
	if !errors.As(err, &blocked) {
		t.Fatalf("expected Blocked on 6th acquire, got %v", err)
	}
	if blocked.RetryAfter < 500*time.Millisecond || blocked.RetryAfter > 1500*time.Millisecond {
		t.Fatalf("expected retry-after near 1s, got %s", blocked.RetryAfter)
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	l := New(map[string]BucketConfig{
		"routing": {Capacity: 1, RefillPerSec: 0.001},
		"llm":     {Capacity: 1, RefillPerSec: 0.001},
	}, BucketConfig{})

	if err := l.Acquire("routing"); err != nil {
		t.Fatalf("routing acquire: %v", err)
	}
	if err := l.Acquire("llm"); err != nil {
		t.Fatalf("llm bucket should be untouched by routing drain: %v", err)
	}
	if err := l.Acquire("routing"); err == nil {
		t.Fatalf("expected routing bucket to be empty")
	}
}

func TestUnknownProviderUsesFallback(t *testing.T) {
	l := New(nil, BucketConfig{Capacity: 2, RefillPerSec: 0.001})
	if err := l.Acquire("mail"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire("mail"); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if err := l.Acquire("mail"); err == nil {
		t.Fatalf("expected fallback bucket to be exhausted")
	}
}
