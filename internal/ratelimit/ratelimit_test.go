package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesBurst(t *testing.T) {
	now := time.Unix(1755000000, 0)
	l := New(WithNow(func() time.Time { return now }))
	l.AddRule(Rule{Name: "get_orderbook", PerMin: 60, Burst: 3})

	for i := 0; i < 3; i++ {
		if !l.Allow("get_orderbook") {
			t.Fatalf("call %d should pass within burst", i)
		}
	}
	if l.Allow("get_orderbook") {
		t.Fatal("expected rejection once burst is spent")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	now := time.Unix(1755000000, 0)
	l := New(WithNow(func() time.Time { return now }))
	l.AddRule(Rule{Name: "public", PerMin: 60, Burst: 1})

	if !l.Allow("public") {
		t.Fatal("first call should pass")
	}
	if l.Allow("public") {
		t.Fatal("second immediate call should be rejected")
	}

	// 60/min refills one token per second.
	now = now.Add(1100 * time.Millisecond)
	if !l.Allow("public") {
		t.Fatal("expected token back after refill interval")
	}
}

func TestAllowUnknownRulePasses(t *testing.T) {
	l := New()
	if !l.Allow("unregistered") {
		t.Error("unknown rules must not block")
	}
}

func TestBurstDefaultsToRate(t *testing.T) {
	now := time.Unix(1755000000, 0)
	l := New(WithNow(func() time.Time { return now }))
	l.AddRule(Rule{Name: "public", PerMin: 5})

	for i := 0; i < 5; i++ {
		if !l.Allow("public") {
			t.Fatalf("call %d should pass, burst defaults to rate", i)
		}
	}
	if l.Allow("public") {
		t.Fatal("expected default burst of 5 to be spent")
	}
}

func TestSnapshots(t *testing.T) {
	now := time.Unix(1755000000, 0)
	l := New(WithNow(func() time.Time { return now }))
	l.AddRule(Rule{Name: "public", PerMin: 60, Burst: 10})
	l.AddRule(Rule{Name: "get_recent_trades", PerMin: 30, Burst: 5})

	l.Allow("public")
	l.Allow("public")
	for i := 0; i < 6; i++ {
		l.Allow("get_recent_trades")
	}

	snaps := l.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Name != "get_recent_trades" || snaps[1].Name != "public" {
		t.Errorf("expected sorted snapshots, got %+v", snaps)
	}

	trades := snaps[0]
	if trades.Allowed != 5 || trades.Rejected != 1 {
		t.Errorf("expected 5 allowed / 1 rejected, got %+v", trades)
	}

	public := snaps[1]
	if public.AvailableTokens != 8 {
		t.Errorf("expected 8 tokens left, got %v", public.AvailableTokens)
	}
	if public.LimitPerMin != 60 || public.Burst != 10 {
		t.Errorf("unexpected rule echo %+v", public)
	}
}
