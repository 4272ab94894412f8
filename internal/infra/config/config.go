package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jobscout/internal/domain"
)

// LoggerConfig controls structured logging output.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// TracerConfig controls OpenTelemetry tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout, noop
}

// BreakerConfig configures the per-agent circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration `yaml:"interval"`
}

// AgentConfig declares one data-source agent and its capabilities.
type AgentConfig struct {
	ID          string   `yaml:"id"`
	Kind        string   `yaml:"kind"` // linkedin, indeed, seek, naukri, http
	Endpoint    string   `yaml:"endpoint"`
	APIKey      string   `yaml:"api_key,omitempty"` // supports enc: prefix
	Reliability float64  `yaml:"reliability"`
	Regions     []string `yaml:"regions,omitempty"`
	Industries  []string `yaml:"industries,omitempty"`
	Strengths   []string `yaml:"strengths,omitempty"`
	// LocalCoverage marks agents with fine-grained city-radius coverage.
	LocalCoverage bool `yaml:"local_coverage,omitempty"`
	// RateLimitPerSec paces outbound requests to the site. 0 disables pacing.
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec,omitempty"`
	Breaker         BreakerConfig `yaml:"breaker,omitempty"`
}

// RegionConfig is one gazetteer entry.
type RegionConfig struct {
	Tag     string   `yaml:"tag"`
	Level   string   `yaml:"level"` // country, state, city
	Aliases []string `yaml:"aliases"`
	Parent  string   `yaml:"parent,omitempty"` // broader region tag
	// LocalSpecialist names the agent appended when a distance constraint
	// targets this region and the top pick lacks local coverage.
	LocalSpecialist string `yaml:"local_specialist,omitempty"`
}

// IndustryConfig maps keywords to one industry tag.
type IndustryConfig struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// GazetteerConfig holds the curated matching tables. Entries extend the
// compiled-in defaults; coverage gaps degrade via the routing fallback, they
// are never an error.
type GazetteerConfig struct {
	Regions    []RegionConfig   `yaml:"regions,omitempty"`
	Industries []IndustryConfig `yaml:"industries,omitempty"`
	// DefaultLanguage breaks script-count ties in language detection.
	DefaultLanguage string `yaml:"default_language"`
}

// RoutingConfig holds the scoring weights and selection bounds.
// The three weights must sum to 1.0 so every match score lies in [0,1].
type RoutingConfig struct {
	RegionWeight        float64  `yaml:"region_weight"`
	IndustryWeight      float64  `yaml:"industry_weight"`
	ReliabilityWeight   float64  `yaml:"reliability_weight"`
	PartialRegionCredit float64  `yaml:"partial_region_credit"`
	MatchThreshold      float64  `yaml:"match_threshold"`
	MaxAgentsPerQuery   int      `yaml:"max_agents_per_query"`
	DefaultAgents       []string `yaml:"default_agents"`
	FallbackConfidence  float64  `yaml:"fallback_confidence"`
	// MaxScanLength bounds signal extraction on hostile input.
	MaxScanLength int `yaml:"max_scan_length"`
}

// DispatchConfig bounds concurrent agent execution.
type DispatchConfig struct {
	MaxWorkers   int           `yaml:"max_workers"`
	AgentTimeout time.Duration `yaml:"agent_timeout"`
}

// AuditConfig controls the optional routing-audit store.
type AuditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Path          string        `yaml:"path"`
	Retention     time.Duration `yaml:"retention"`
	PruneSchedule string        `yaml:"prune_schedule"` // cron expression
}

// Config is the top-level application configuration.
type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
	Agents    []AgentConfig   `yaml:"agents"`
	Gazetteer GazetteerConfig `yaml:"gazetteer"`
	Routing   RoutingConfig   `yaml:"routing"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Audit     AuditConfig     `yaml:"audit"`
}

// Defaults returns a configuration that works with zero on-disk config:
// four public-site agents, the built-in gazetteer, and conservative
// dispatch bounds.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
		Agents: []AgentConfig{
			{
				ID:          "linkedin",
				Kind:        "linkedin",
				Endpoint:    "https://api.linkedin.example/v2/jobs",
				Reliability: 0.9,
				Strengths:   []string{"professional roles", "global coverage"},
			},
			{
				ID:          "indeed",
				Kind:        "indeed",
				Endpoint:    "https://api.indeed.example/v3/search",
				Reliability: 0.85,
				Strengths:   []string{"volume", "global coverage"},
			},
			{
				ID:            "seek",
				Kind:          "seek",
				Endpoint:      "https://api.seek.example/v1/search",
				Reliability:   0.9,
				Regions:       []string{"australia", "new-zealand"},
				LocalCoverage: true,
				Strengths:     []string{"AU/NZ local listings"},
			},
			{
				ID:            "naukri",
				Kind:          "naukri",
				Endpoint:      "https://api.naukri.example/v1/search",
				Reliability:   0.8,
				Regions:       []string{"india"},
				LocalCoverage: true,
				Strengths:     []string{"India local listings"},
			},
		},
		Gazetteer: GazetteerConfig{DefaultLanguage: "en"},
		Routing: RoutingConfig{
			RegionWeight:        0.5,
			IndustryWeight:      0.3,
			ReliabilityWeight:   0.2,
			PartialRegionCredit: 0.5,
			MatchThreshold:      0.25,
			MaxAgentsPerQuery:   3,
			DefaultAgents:       []string{"linkedin", "indeed"},
			FallbackConfidence:  0.3,
			MaxScanLength:       2048,
		},
		Dispatch: DispatchConfig{
			MaxWorkers:   5,
			AgentTimeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:       false,
			Path:          filepath.Join(defaultDataDir(), "audit.db"),
			Retention:     30 * 24 * time.Hour,
			PruneSchedule: "@hourly",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".jobscout")
}

// Load reads a YAML config file, applies env var overrides, and decrypts
// secrets. A missing file is not an error: defaults plus env overrides are
// used. Any malformed content is fatal (validation happens here and only here).
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	passphrase := os.Getenv("JOBSCOUT_CONFIG_KEY")
	if passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides overrides select config fields from the environment.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOBSCOUT_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("JOBSCOUT_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("JOBSCOUT_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("JOBSCOUT_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("JOBSCOUT_DISPATCH_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Dispatch.MaxWorkers = n
		}
	}
	if v := os.Getenv("JOBSCOUT_DISPATCH_AGENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Dispatch.AgentTimeout = d
		}
	}
	if v := os.Getenv("JOBSCOUT_AUDIT_ENABLED"); v == "true" {
		cfg.Audit.Enabled = true
	}
	if v := os.Getenv("JOBSCOUT_AUDIT_PATH"); v != "" {
		cfg.Audit.Path = v
	}
}

// decryptSecrets walks the config for enc:-prefixed values and decrypts them.
func decryptSecrets(cfg *Config, passphrase string) error {
	for i := range cfg.Agents {
		key := cfg.Agents[i].APIKey
		if strings.HasPrefix(key, "enc:") {
			decrypted, err := DecryptValue(strings.TrimPrefix(key, "enc:"), passphrase)
			if err != nil {
				return domain.WrapOp(fmt.Sprintf("agent %s api_key", cfg.Agents[i].ID), err)
			}
			cfg.Agents[i].APIKey = decrypted
		}
	}
	return nil
}

// validatePermissions rejects world/group-writable config files (they may
// contain credentials).
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}

// AgentIDs returns the declared agent IDs in declaration order.
func (c *Config) AgentIDs() []domain.AgentID {
	ids := make([]domain.AgentID, 0, len(c.Agents))
	for _, a := range c.Agents {
		ids = append(ids, domain.AgentID(a.ID))
	}
	return ids
}
