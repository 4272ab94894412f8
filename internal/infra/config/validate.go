package config

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

var validAgentKinds = map[string]bool{
	"linkedin": true,
	"indeed":   true,
	"seek":     true,
	"naukri":   true,
	"http":     true,
}

var validRegionLevels = map[string]bool{
	"country": true,
	"state":   true,
	"city":    true,
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError when one or more problems are found, allowing callers to
// inspect all issues. This is the only startup-time validation point: a nil
// return means the process may start.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateAgents(cfg, ve)
	validateGazetteer(cfg, ve)
	validateRouting(cfg, ve)
	validateDispatch(cfg, ve)
	validateAudit(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level %q is not one of debug|info|warn|error", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logger.format %q is not one of text|json", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	default:
		ve.Add("tracer.exporter %q is not one of stdout|noop", cfg.Tracer.Exporter)
	}
}

func validateAgents(cfg *Config, ve *ValidationError) {
	if len(cfg.Agents) == 0 {
		ve.Add("agents must declare at least one agent")
		return
	}
	seen := map[string]bool{}
	for i, a := range cfg.Agents {
		if a.ID == "" {
			ve.Add("agents[%d].id must not be empty", i)
			continue
		}
		if seen[a.ID] {
			ve.Add("agents[%d].id %q declared twice", i, a.ID)
		}
		seen[a.ID] = true
		if !validAgentKinds[a.Kind] {
			ve.Add("agent %s: kind %q is not supported", a.ID, a.Kind)
		}
		if a.Endpoint == "" {
			ve.Add("agent %s: endpoint must not be empty", a.ID)
		}
		if a.Reliability < 0 || a.Reliability > 1 {
			ve.Add("agent %s: reliability %v must be in [0,1]", a.ID, a.Reliability)
		}
		if a.RateLimitPerSec < 0 {
			ve.Add("agent %s: rate_limit_per_sec must be >= 0", a.ID)
		}
	}
}

func validateGazetteer(cfg *Config, ve *ValidationError) {
	agentIDs := declaredAgentSet(cfg)
	for i, r := range cfg.Gazetteer.Regions {
		if r.Tag == "" {
			ve.Add("gazetteer.regions[%d].tag must not be empty", i)
		}
		if !validRegionLevels[r.Level] {
			ve.Add("gazetteer region %s: level %q is not one of country|state|city", r.Tag, r.Level)
		}
		if len(r.Aliases) == 0 {
			ve.Add("gazetteer region %s: aliases must not be empty", r.Tag)
		}
		if r.LocalSpecialist != "" && !agentIDs[r.LocalSpecialist] {
			ve.Add("gazetteer region %s: local_specialist %q references unknown agent", r.Tag, r.LocalSpecialist)
		}
	}
	for i, ind := range cfg.Gazetteer.Industries {
		if ind.Tag == "" {
			ve.Add("gazetteer.industries[%d].tag must not be empty", i)
		}
		if len(ind.Keywords) == 0 {
			ve.Add("gazetteer industry %s: keywords must not be empty", ind.Tag)
		}
	}
	if cfg.Gazetteer.DefaultLanguage == "" {
		ve.Add("gazetteer.default_language must not be empty")
	}
}

func validateRouting(cfg *Config, ve *ValidationError) {
	r := cfg.Routing
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"routing.region_weight", r.RegionWeight},
		{"routing.industry_weight", r.IndustryWeight},
		{"routing.reliability_weight", r.ReliabilityWeight},
		{"routing.partial_region_credit", r.PartialRegionCredit},
		{"routing.match_threshold", r.MatchThreshold},
		{"routing.fallback_confidence", r.FallbackConfidence},
	} {
		if w.value < 0 || w.value > 1 {
			ve.Add("%s %v must be in [0,1]", w.name, w.value)
		}
	}
	// Weights must sum to 1.0 so match scores stay in [0,1].
	sum := r.RegionWeight + r.IndustryWeight + r.ReliabilityWeight
	if math.Abs(sum-1.0) > 1e-9 {
		ve.Add("routing weights must sum to 1.0, got %v", sum)
	}
	if r.MaxAgentsPerQuery <= 0 {
		ve.Add("routing.max_agents_per_query must be > 0")
	}
	if r.MaxScanLength <= 0 {
		ve.Add("routing.max_scan_length must be > 0")
	}
	if len(r.DefaultAgents) == 0 {
		ve.Add("routing.default_agents must not be empty")
	}
	agentIDs := declaredAgentSet(cfg)
	for _, id := range r.DefaultAgents {
		if !agentIDs[id] {
			ve.Add("routing.default_agents references unknown agent %q", id)
		}
	}
}

func validateDispatch(cfg *Config, ve *ValidationError) {
	if cfg.Dispatch.MaxWorkers <= 0 {
		ve.Add("dispatch.max_workers must be > 0")
	}
	if cfg.Dispatch.AgentTimeout <= 0 {
		ve.Add("dispatch.agent_timeout must be > 0")
	}
}

func validateAudit(cfg *Config, ve *ValidationError) {
	if !cfg.Audit.Enabled {
		return
	}
	if cfg.Audit.Path == "" {
		ve.Add("audit.path must not be empty when audit is enabled")
	}
	if cfg.Audit.Retention <= 0 {
		ve.Add("audit.retention must be > 0 when audit is enabled")
	}
	if cfg.Audit.PruneSchedule == "" {
		ve.Add("audit.prune_schedule must not be empty when audit is enabled")
	}
}

func declaredAgentSet(cfg *Config) map[string]bool {
	ids := make(map[string]bool, len(cfg.Agents))
	for _, a := range cfg.Agents {
		ids[a.ID] = true
	}
	return ids
}
