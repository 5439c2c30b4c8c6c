package logsink

import (
	"testing"
	"time"
)

func TestTokenBucketAdmitsWithinRate(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(10, now) // 10/sec, bucket starts full

	for i := 0; i < 10; i++ {
		if !b.admit(now) {
			t.Fatalf("admit %d: expected admission while allowance remains", i)
		}
	}
	if b.admit(now) {
		t.Fatal("11th admit at the same instant should be dropped, allowance exhausted")
	}
	if b.dropped != 1 {
		t.Fatalf("expected 1 dropped event, got %d", b.dropped)
	}
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(10, now)
	for i := 0; i < 10; i++ {
		b.admit(now)
	}

	later := now.Add(200 * time.Millisecond) // refills ~2 tokens at 10/sec
	if !b.admit(later) {
		t.Fatal("expected admission after enough time has elapsed to refill")
	}
}

func TestTokenBucketMaybeReportOncePerSecond(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(1, now)
	b.admit(now)
	b.admit(now) // dropped, allowance exhausted

	if _, ok := b.maybeReport(now); ok {
		t.Fatal("maybeReport should not fire before a second has elapsed")
	}

	later := now.Add(1100 * time.Millisecond)
	n, ok := b.maybeReport(later)
	if !ok || n != 1 {
		t.Fatalf("expected a report of 1 dropped event after 1s, got n=%d ok=%v", n, ok)
	}

	n, ok = b.maybeReport(later.Add(2 * time.Second))
	if ok {
		t.Fatalf("expected no report when nothing new was dropped, got n=%d", n)
	}
}

func TestTokenBucketSetRateCapsAllowance(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(100, now)
	b.setRate(5)
	if b.allowance > 5 {
		t.Fatalf("setRate should cap existing allowance to the new rate, got %v", b.allowance)
	}
}
