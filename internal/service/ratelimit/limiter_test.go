package ratelimit

import (
	"testing"
	"time"
)

func TestAcquireWithinBurst(t *testing.T) {
	l := New(1, 3)
	for i := 0; i < 3; i++ {
		if d := l.Acquire(); d != 0 {
			t.Fatalf("call %d: expected zero wait, got %v", i, d)
		}
	}
}

func TestAcquireDrainedBucketReturnsWait(t *testing.T) {
	l := New(2, 1) // 2 tokens/s, burst 1
	if d := l.Acquire(); d != 0 {
		t.Fatalf("first acquire should not wait, got %v", d)
	}
	d := l.Acquire()
	if d <= 0 {
		t.Fatalf("drained bucket should return a wait, got %v", d)
	}
	// one token at 2/s accrues in ~500ms
	if d > 600*time.Millisecond {
		t.Fatalf("wait too long for rate 2/s: %v", d)
	}
}

func TestAcquireRefillsOverTime(t *testing.T) {
	l := New(100, 1)
	l.Acquire()
	time.Sleep(20 * time.Millisecond) // >1 token at 100/s
	if d := l.Acquire(); d != 0 {
		t.Fatalf("bucket should have refilled, got wait %v", d)
	}
}

func TestAcquireConcurrent(t *testing.T) {
	l := New(1000, 50)
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 5; j++ {
				l.Acquire()
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tokens < 0 {
		t.Fatalf("token count went negative: %v", l.tokens)
	}
}
