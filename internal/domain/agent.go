package domain

import (
	"context"
	"strings"
)

// AgentID identifies one data-source worker (one per external job site).
// The set of valid IDs is fixed by the capability registry at startup.
type AgentID string

// AgentCapability describes what one agent is good at. Built once from
// configuration and never mutated afterwards.
type AgentCapability struct {
	Reliability float64       `json:"reliability" yaml:"reliability"`
	Regions     []RegionTag   `json:"regions,omitempty" yaml:"regions,omitempty"`
	Industries  []IndustryTag `json:"industries,omitempty" yaml:"industries,omitempty"`
	Strengths   []string      `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	// LocalCoverage marks agents that claim fine-grained (city-radius)
	// coverage inside their regions.
	LocalCoverage bool `json:"local_coverage,omitempty" yaml:"local_coverage,omitempty"`
}

// CoversRegion reports whether the capability lists the given region.
func (c AgentCapability) CoversRegion(r RegionTag) bool {
	for _, cr := range c.Regions {
		if cr == r {
			return true
		}
	}
	return false
}

// CoversIndustry reports whether the capability lists the given industry.
func (c AgentCapability) CoversIndustry(i IndustryTag) bool {
	for _, ci := range c.Industries {
		if ci == i {
			return true
		}
	}
	return false
}

// Global reports whether the agent has no region restriction.
func (c AgentCapability) Global() bool { return len(c.Regions) == 0 }

// NormalizedQuery is the value handed to every dispatched agent. It carries
// the cleaned search terms plus whatever constraints signal extraction found.
type NormalizedQuery struct {
	Terms         string      `json:"terms"`
	Region        RegionTag   `json:"region,omitempty"`
	Industry      IndustryTag `json:"industry,omitempty"`
	DistanceKM    float64     `json:"distance_km,omitempty"`
	Language      LanguageTag `json:"language,omitempty"`
	ResultsWanted int         `json:"results_wanted,omitempty"`
}

// SearchAgent is the uniform contract every site-specific worker satisfies.
// Implementations classify their failures with the domain sentinels
// (ErrNetwork, ErrRateLimited, ErrParse, ErrTimeout); anything else is
// reported as ErrorKindUnknown by the dispatcher.
type SearchAgent interface {
	ID() AgentID
	Search(ctx context.Context, q NormalizedQuery) ([]JobRecord, error)
}

// JobRecord is one structured job posting returned by an agent.
type JobRecord struct {
	Title    string  `json:"title"`
	Company  string  `json:"company"`
	Location string  `json:"location"`
	URL      string  `json:"url,omitempty"`
	Salary   string  `json:"salary,omitempty"`
	PostedAt string  `json:"posted_at,omitempty"`
	Source   AgentID `json:"source,omitempty"`
}

// DedupKey returns the normalized (title, company, location) tuple used to
// collapse the same posting reported by different agents. Normalization is
// case-insensitive with whitespace runs collapsed to single spaces.
func (r JobRecord) DedupKey() string {
	return normalizeField(r.Title) + "\x1f" + normalizeField(r.Company) + "\x1f" + normalizeField(r.Location)
}

func normalizeField(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
