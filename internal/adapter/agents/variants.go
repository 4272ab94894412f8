package agents

import (
	"fmt"

	"jobscout/internal/domain"
)

// siteProfile is the per-site request shape. Sites disagree about field
// names and units; everything after the request body is uniform, so a new
// site is one profile plus config, never a new client.
type siteProfile struct {
	kind      string
	buildBody func(q domain.NormalizedQuery) map[string]any
}

func profileFor(kind string) (siteProfile, error) {
	switch kind {
	case "linkedin":
		return siteProfile{kind: kind, buildBody: linkedinBody}, nil
	case "indeed":
		return siteProfile{kind: kind, buildBody: indeedBody}, nil
	case "seek":
		return siteProfile{kind: kind, buildBody: seekBody}, nil
	case "naukri":
		return siteProfile{kind: kind, buildBody: naukriBody}, nil
	case "http":
		return siteProfile{kind: kind, buildBody: genericBody}, nil
	default:
		return siteProfile{}, fmt.Errorf("%w: unknown agent kind %q", domain.ErrInvalidInput, kind)
	}
}

func linkedinBody(q domain.NormalizedQuery) map[string]any {
	body := map[string]any{"keywords": q.Terms}
	if q.Region != "" {
		body["locationName"] = string(q.Region)
	}
	if q.DistanceKM > 0 {
		body["distanceKm"] = q.DistanceKM
	}
	if q.Industry != "" {
		body["industry"] = string(q.Industry)
	}
	if q.ResultsWanted > 0 {
		body["count"] = q.ResultsWanted
	}
	return body
}

func indeedBody(q domain.NormalizedQuery) map[string]any {
	body := map[string]any{"q": q.Terms}
	if q.Region != "" {
		body["l"] = string(q.Region)
	}
	if q.DistanceKM > 0 {
		body["radius"] = q.DistanceKM
	}
	if q.ResultsWanted > 0 {
		body["limit"] = q.ResultsWanted
	}
	if q.Language != "" {
		body["lang"] = string(q.Language)
	}
	return body
}

func seekBody(q domain.NormalizedQuery) map[string]any {
	body := map[string]any{"keywords": q.Terms}
	if q.Region != "" {
		body["where"] = string(q.Region)
	}
	if q.DistanceKM > 0 {
		body["distance"] = q.DistanceKM
	}
	if q.Industry != "" {
		body["classification"] = string(q.Industry)
	}
	if q.ResultsWanted > 0 {
		body["pageSize"] = q.ResultsWanted
	}
	return body
}

func naukriBody(q domain.NormalizedQuery) map[string]any {
	body := map[string]any{"keyword": q.Terms}
	if q.Region != "" {
		body["location"] = string(q.Region)
	}
	if q.DistanceKM > 0 {
		body["radiusKm"] = q.DistanceKM
	}
	if q.ResultsWanted > 0 {
		body["noOfResults"] = q.ResultsWanted
	}
	return body
}

// genericBody is the passthrough shape for sites that speak our own wire
// format directly.
func genericBody(q domain.NormalizedQuery) map[string]any {
	body := map[string]any{"query": q.Terms}
	if q.Region != "" {
		body["region"] = string(q.Region)
	}
	if q.Industry != "" {
		body["industry"] = string(q.Industry)
	}
	if q.DistanceKM > 0 {
		body["distance_km"] = q.DistanceKM
	}
	if q.Language != "" {
		body["language"] = string(q.Language)
	}
	if q.ResultsWanted > 0 {
		body["results_wanted"] = q.ResultsWanted
	}
	return body
}
