package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	burst := 1

	interval := 10 * time.Millisecond
	lim := Every(interval)
	r := NewLimiter(burst, 100, lim)

	tooshort := 1 * time.Millisecond

	client := "user-1"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := r.Allow(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterIsolatesClients(t *testing.T) {
	interval := 100 * time.Millisecond
	r := NewLimiter(1, 100, Every(interval))

	if !r.Allow("user-1") {
		t.Fatal("first call for user-1 should pass")
	}
	if r.Allow("user-1") {
		t.Fatal("second immediate call for user-1 should be limited")
	}
	if !r.Allow("user-2") {
		t.Fatal("user-2 has its own bucket and should pass")
	}
}
