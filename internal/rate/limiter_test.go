package rate

import (
	"testing"
	"time"
)

func TestWindowLimiter(t *testing.T) {
	current := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	l := NewWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return current }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("10.0.0.1"); !ok {
			t.Fatalf("expected hit %d to be allowed", i+1)
		}
	}
	ok, retry := l.Allow("10.0.0.1")
	if ok {
		t.Fatalf("expected third hit to be limited")
	}
	if retry != time.Minute {
		t.Fatalf("expected retry after 1m, got %s", retry)
	}
	if ok, _ := l.Allow("10.0.0.2"); !ok {
		t.Fatalf("expected other key to be allowed")
	}

	current = current.Add(61 * time.Second)
	if ok, _ := l.Allow("10.0.0.1"); !ok {
		t.Fatalf("expected hit after window to be allowed")
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var l *WindowLimiter
	if ok, _ := l.Allow("any"); !ok {
		t.Fatalf("expected nil limiter to allow")
	}
}
