package identify_test

import (
	"testing"

	"cadence/internal/identify"
)

func TestPolicyConfident(t *testing.T) {
	policy := identify.Policy{MinConfidence: 0.75}

	if policy.Confident(nil) {
		t.Fatal("nil result must never be confident")
	}
	if policy.Confident(&identify.Result{Confidence: 0.5}) {
		t.Fatal("expected below-threshold result rejected")
	}
	if !policy.Confident(&identify.Result{Confidence: 0.75}) {
		t.Fatal("expected threshold value accepted")
	}
	if !policy.Confident(&identify.Result{Confidence: 0.99}) {
		t.Fatal("expected high confidence accepted")
	}
}
