package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ErrorKindNone},
		{"timeout sentinel", ErrTimeout, ErrorKindTimeout},
		{"context deadline", context.DeadlineExceeded, ErrorKindTimeout},
		{"wrapped deadline", fmt.Errorf("agent call: %w", context.DeadlineExceeded), ErrorKindTimeout},
		{"rate limited", fmt.Errorf("seek: %w", ErrRateLimited), ErrorKindRateLimited},
		{"parse", ErrParse, ErrorKindParse},
		{"network", fmt.Errorf("dial: %w", ErrNetwork), ErrorKindNetwork},
		{"unclassified", errors.New("weird"), ErrorKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKindOf(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDedupKeyNormalization(t *testing.T) {
	a := JobRecord{Title: "Software  Engineer", Company: "ACME Corp", Location: "Sydney, NSW"}
	b := JobRecord{Title: "software engineer", Company: "acme   corp", Location: "sydney, nsw"}
	if a.DedupKey() != b.DedupKey() {
		t.Errorf("keys should collapse case and whitespace: %q vs %q", a.DedupKey(), b.DedupKey())
	}

	c := JobRecord{Title: "Software Engineer", Company: "ACME Corp", Location: "Melbourne, VIC"}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different locations must produce different keys")
	}
}

func TestAllFailed(t *testing.T) {
	res := AggregationResult{
		ExecutionResults: []ExecutionResult{{Agent: "indeed"}, {Agent: "seek"}},
		FailedAgents:     []AgentID{"indeed", "seek"},
	}
	if !res.AllFailed() {
		t.Error("expected AllFailed with zero successes and non-empty results")
	}

	res.SuccessfulAgents = []AgentID{"indeed"}
	if res.AllFailed() {
		t.Error("one success should clear AllFailed")
	}

	empty := AggregationResult{}
	if empty.AllFailed() {
		t.Error("no dispatched agents is not a total failure")
	}
}
