package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"jobscout/internal/infra/config"
)

// Pruner sweeps expired entries out of the audit trail on a cron schedule.
type Pruner struct {
	store     *SQLiteStore
	cron      *cron.Cron
	retention time.Duration
	logger    *slog.Logger
}

// NewPruner validates the schedule and wires the sweep. Start must be called
// to begin pruning.
func NewPruner(store *SQLiteStore, cfg config.AuditConfig, logger *slog.Logger) (*Pruner, error) {
	p := &Pruner{
		store:     store,
		cron:      cron.New(),
		retention: cfg.Retention,
		logger:    logger,
	}
	if _, err := p.cron.AddFunc(cfg.PruneSchedule, p.sweep); err != nil {
		return nil, fmt.Errorf("parse prune schedule %q: %w", cfg.PruneSchedule, err)
	}
	return p, nil
}

// Start begins the scheduled sweeps.
func (p *Pruner) Start() { p.cron.Start() }

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}

// Sweep runs one prune immediately, outside the schedule.
func (p *Pruner) Sweep() { p.sweep() }

func (p *Pruner) sweep() {
	cutoff := time.Now().Add(-p.retention)
	n, err := p.store.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		p.logger.Warn("audit prune failed", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("audit entries pruned", "removed", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	}
}
