package domain

import (
	"context"
	"errors"
	"time"
)

// ErrorKind classifies a failed agent call for monitoring and presentation.
type ErrorKind string

const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindNetwork     ErrorKind = "NETWORK"
	ErrorKindRateLimited ErrorKind = "RATE_LIMITED"
	ErrorKindParse       ErrorKind = "PARSE"
	ErrorKindTimeout     ErrorKind = "TIMEOUT"
	ErrorKindUnknown     ErrorKind = "UNKNOWN"
)

// ErrorKindOf maps an agent error onto the five-kind taxonomy. Context
// deadline expiry counts as a timeout regardless of how the agent wrapped it.
func ErrorKindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, ErrRateLimited):
		return ErrorKindRateLimited
	case errors.Is(err, ErrParse):
		return ErrorKindParse
	case errors.Is(err, ErrNetwork):
		return ErrorKindNetwork
	default:
		return ErrorKindUnknown
	}
}

// ExecutionResult is the outcome of one dispatched agent call, success or
// failure. Exactly one is produced per dispatched agent per invocation.
type ExecutionResult struct {
	Agent         AgentID       `json:"agent"`
	Success       bool          `json:"success"`
	JobCount      int           `json:"job_count"`
	Records       []JobRecord   `json:"records,omitempty"`
	ErrorKind     ErrorKind     `json:"error_kind,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// AggregationResult is the terminal value returned to the caller: merged
// records plus enough bookkeeping to explain what happened.
type AggregationResult struct {
	SearchID         string            `json:"search_id,omitempty"`
	RoutingDecision  RoutingDecision   `json:"routing_decision"`
	ExecutionResults []ExecutionResult `json:"execution_results"`
	SuccessfulAgents []AgentID         `json:"successful_agents"`
	FailedAgents     []AgentID         `json:"failed_agents"`
	CombinedRecords  []JobRecord       `json:"combined_records"`
	TotalJobs        int               `json:"total_jobs"`
	// TotalExecutionTime is the wall-clock span of the dispatch, not the
	// sum of per-agent durations (agents run concurrently).
	TotalExecutionTime time.Duration `json:"total_execution_time"`
}

// AllFailed reports whether every dispatched agent failed. Callers use this
// to distinguish "zero results, everything broke" from "zero results, nothing
// matched".
func (a AggregationResult) AllFailed() bool {
	return len(a.SuccessfulAgents) == 0 && len(a.ExecutionResults) > 0
}
