package risk

import "testing"

func TestAllowBuy(t *testing.T) {
	limits := Limits{MaxBuySOL: 0.5}
	if !limits.AllowBuy(0.5) {
		t.Fatalf("expected amount at limit to pass")
	}
	if limits.AllowBuy(0.51) {
		t.Fatalf("expected amount above limit to fail")
	}
	if !(Limits{}).AllowBuy(100) {
		t.Fatalf("zero limit should disable the cap")
	}
}

func TestCheck(t *testing.T) {
	limits := Limits{MaxBuySOL: 1, MaxInFlight: 2}
	if reason := limits.Check(true, 0.5, 1); reason != "" {
		t.Fatalf("unexpected refusal: %s", reason)
	}
	if reason := limits.Check(true, 0.5, 2); reason == "" {
		t.Fatalf("expected in-flight refusal")
	}
	if reason := limits.Check(false, 0, 5); reason != "" {
		t.Fatalf("sells ignore the in-flight cap, got %s", reason)
	}
	if reason := limits.Check(true, 2, 0); reason == "" {
		t.Fatalf("expected size refusal")
	}
	if reason := limits.Check(false, 2, 0); reason != "" {
		t.Fatalf("sells ignore the buy cap, got %s", reason)
	}
}
