package retry

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if p.Mode != BackoffLinear {
		t.Fatalf("expected linear default, got %s", p.Mode)
	}
}

func TestNewPolicyFallbacks(t *testing.T) {
	p := NewPolicy("bogus", 0, 0, -1)
	d := DefaultPolicy()
	if p != d {
		t.Fatalf("invalid inputs should fall back to defaults, got %+v", p)
	}
}

func TestNewPolicyClampsInitialToMax(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, time.Second, 1)
	if p.Initial != time.Second {
		t.Fatalf("initial should be clamped to max, got %v", p.Initial)
	}
}

func TestDelayModes(t *testing.T) {
	cases := []struct {
		name   string
		policy Policy
		count  int
		want   time.Duration
	}{
		{"zero count", DefaultPolicy(), 0, 0},
		{"fixed", Policy{Mode: BackoffFixed, Initial: time.Second, Max: time.Minute}, 3, time.Second},
		{"linear", Policy{Mode: BackoffLinear, Initial: time.Second, Max: time.Minute}, 3, 3 * time.Second},
		{"linear capped", Policy{Mode: BackoffLinear, Initial: time.Second, Max: 2 * time.Second}, 5, 2 * time.Second},
		{"exponential", Policy{Mode: BackoffExponential, Initial: time.Second, Max: time.Minute}, 4, 8 * time.Second},
		{"exponential capped", Policy{Mode: BackoffExponential, Initial: time.Second, Max: 3 * time.Second}, 4, 3 * time.Second},
	}
	for _, tc := range cases {
		if got := tc.policy.Delay(tc.count); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
