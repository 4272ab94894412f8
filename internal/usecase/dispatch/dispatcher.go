package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/tracer"
)

// AgentProvider resolves agent IDs to runnable agents. Implemented by the
// agents adapter; read-only and safe for concurrent use.
type AgentProvider interface {
	AgentOf(id domain.AgentID) (domain.SearchAgent, error)
}

// Dispatcher runs a routing decision's agents under a bounded worker pool
// with a hard per-agent deadline. Partial failure is the steady state: every
// dispatched agent yields exactly one ExecutionResult, success or failure,
// and one agent's timeout never delays the others.
type Dispatcher struct {
	agents   AgentProvider
	fallback []domain.AgentID
	cfg      config.DispatchConfig
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. fallback is the always-available
// default agent set used for the single escalation pass when every primary
// agent fails.
func NewDispatcher(agents AgentProvider, fallback []domain.AgentID, cfg config.DispatchConfig, logger *slog.Logger) *Dispatcher {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 30 * time.Second
	}
	return &Dispatcher{agents: agents, fallback: fallback, cfg: cfg, logger: logger}
}

// Execute runs every selected agent and returns one ExecutionResult per
// dispatched agent, in dispatch order regardless of completion order. When
// the primary pass yields zero successes and the decision was not already a
// fallback, the fallback set is dispatched exactly once more and the
// returned decision is re-flagged. Execute never returns an error: total
// failure is a valid all-failed result set.
func (d *Dispatcher) Execute(ctx context.Context, decision domain.RoutingDecision, query domain.NormalizedQuery) ([]domain.ExecutionResult, domain.RoutingDecision) {
	ctx, span := tracer.StartSpan(ctx, "dispatch.execute")
	defer span.End()

	results := d.runSet(ctx, decision.SelectedAgents, query)

	if noneSucceeded(results) && !decision.UsedFallback {
		escalation := excludeDispatched(d.fallback, decision.SelectedAgents)
		if len(escalation) > 0 {
			d.logger.Warn("all primary agents failed, escalating to fallback set",
				"primary", len(decision.SelectedAgents),
				"fallback", len(escalation),
			)
			results = append(results, d.runSet(ctx, escalation, query)...)
			decision.UsedFallback = true
			decision.SelectedAgents = append(decision.SelectedAgents, escalation...)
		}
	}

	span.SetAttributes(
		tracer.IntAttr("dispatch.agents", len(results)),
		tracer.BoolAttr("dispatch.fallback", decision.UsedFallback),
	)
	tracer.SetOK(span)
	return results, decision
}

// runSet executes one agent set under the worker pool. Admission is FIFO by
// dispatch order: the semaphore is acquired in the dispatch loop, so queued
// agents start in order when slots free up. Caller cancellation stops
// admitting queued agents; in-flight agents run to their own deadline.
func (d *Dispatcher) runSet(ctx context.Context, ids []domain.AgentID, query domain.NormalizedQuery) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, len(ids))
	sem := make(chan struct{}, d.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, id := range ids {
		// Checked before the select: with a free slot and a closed context
		// both cases are ready and select picks one at random, which would
		// let cancelled dispatches through.
		if ctx.Err() != nil {
			results[i] = notDispatched(id, ctx.Err())
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = notDispatched(id, ctx.Err())
			continue
		}

		wg.Add(1)
		go func(idx int, agentID domain.AgentID) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = d.runOne(ctx, agentID, query)
		}(i, id)
	}

	wg.Wait()
	return results
}

// runOne calls a single agent under a hard deadline. The deadline holds even
// when the agent ignores its context: the call keeps running in the
// background but the result is recorded as a timeout.
func (d *Dispatcher) runOne(ctx context.Context, id domain.AgentID, query domain.NormalizedQuery) domain.ExecutionResult {
	start := time.Now()

	agent, err := d.agents.AgentOf(id)
	if err != nil {
		return failedResult(id, err, time.Since(start))
	}

	// Detach from caller cancellation: an in-flight agent runs to its own
	// deadline even when the caller gives up on the whole dispatch.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.AgentTimeout)
	defer cancel()

	type outcome struct {
		records []domain.JobRecord
		err     error
	}
	ch := make(chan outcome, 1)
	go func() {
		records, serr := agent.Search(actx, query)
		ch <- outcome{records: records, err: serr}
	}()

	var records []domain.JobRecord
	select {
	case out := <-ch:
		records, err = out.records, out.err
	case <-actx.Done():
		err = domain.WrapOp("agent "+string(id), actx.Err())
	}
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Debug("agent failed",
			"agent", string(id),
			"kind", string(domain.ErrorKindOf(err)),
			"elapsed", elapsed,
			"error", err,
		)
		return failedResult(id, err, elapsed)
	}

	d.logger.Debug("agent succeeded",
		"agent", string(id),
		"jobs", len(records),
		"elapsed", elapsed,
	)
	return domain.ExecutionResult{
		Agent:         id,
		Success:       true,
		JobCount:      len(records),
		Records:       records,
		ExecutionTime: elapsed,
	}
}

func notDispatched(id domain.AgentID, cause error) domain.ExecutionResult {
	return domain.ExecutionResult{
		Agent:        id,
		Success:      false,
		ErrorKind:    domain.ErrorKindUnknown,
		ErrorMessage: "not dispatched: " + cause.Error(),
	}
}

func failedResult(id domain.AgentID, err error, elapsed time.Duration) domain.ExecutionResult {
	return domain.ExecutionResult{
		Agent:         id,
		Success:       false,
		ErrorKind:     domain.ErrorKindOf(err),
		ErrorMessage:  err.Error(),
		ExecutionTime: elapsed,
	}
}

func noneSucceeded(results []domain.ExecutionResult) bool {
	for _, r := range results {
		if r.Success {
			return false
		}
	}
	return true
}

// excludeDispatched drops fallback agents that were already in the primary
// set, so every ExecutionResult carries a distinct agent.
func excludeDispatched(fallback, dispatched []domain.AgentID) []domain.AgentID {
	seen := make(map[domain.AgentID]bool, len(dispatched))
	for _, id := range dispatched {
		seen[id] = true
	}
	out := make([]domain.AgentID, 0, len(fallback))
	for _, id := range fallback {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}
