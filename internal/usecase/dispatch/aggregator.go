package dispatch

import (
	"time"

	"jobscout/internal/domain"
)

// Combine folds a result set into the final AggregationResult. Pure and
// total: any combination of successes and failures, including all-failed,
// produces a valid value. Records are deduplicated by normalized
// (title, company, location); the first occurrence in dispatch order wins.
func Combine(decision domain.RoutingDecision, results []domain.ExecutionResult, totalTime time.Duration) domain.AggregationResult {
	var (
		succeeded []domain.AgentID
		failed    []domain.AgentID
		combined  []domain.JobRecord
		seen      = make(map[string]bool)
	)

	for _, r := range results {
		if !r.Success {
			failed = append(failed, r.Agent)
			continue
		}
		succeeded = append(succeeded, r.Agent)
		for _, rec := range r.Records {
			key := rec.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			if rec.Source == "" {
				rec.Source = r.Agent
			}
			combined = append(combined, rec)
		}
	}

	return domain.AggregationResult{
		RoutingDecision:    decision,
		ExecutionResults:   results,
		SuccessfulAgents:   succeeded,
		FailedAgents:       failed,
		CombinedRecords:    combined,
		TotalJobs:          len(combined),
		TotalExecutionTime: totalTime,
	}
}
