package agents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/domain"
	"jobscout/internal/infra/logger"
)

func newServerAgent(t *testing.T, kind string, handler http.HandlerFunc) (*HTTPAgent, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	profile, err := profileFor(kind)
	require.NoError(t, err)
	return NewHTTPAgent("test-agent", srv.URL, "", profile, logger.Discard()), srv
}

func TestHTTPAgentSearchSuccess(t *testing.T) {
	agent, _ := newServerAgent(t, "http", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"jobs":[
			{"title":"Welder","company":"BuildCo","location":"Sydney","url":"https://x/1"},
			{"title":"Fitter","company":"BuildCo","location":"Sydney"}
		]}`)
	})

	records, err := agent.Search(context.Background(), domain.NormalizedQuery{Terms: "welding"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Welder", records[0].Title)
	assert.Equal(t, domain.AgentID("test-agent"), records[0].Source, "source must be stamped")
}

func TestHTTPAgentStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   domain.ErrorKind
	}{
		{http.StatusTooManyRequests, domain.ErrorKindRateLimited},
		{http.StatusInternalServerError, domain.ErrorKindNetwork},
		{http.StatusBadGateway, domain.ErrorKindNetwork},
		{http.StatusGatewayTimeout, domain.ErrorKindTimeout},
		{http.StatusForbidden, domain.ErrorKindNetwork},
	}
	for _, tt := range tests {
		agent, _ := newServerAgent(t, "http", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := agent.Search(context.Background(), domain.NormalizedQuery{Terms: "x"})
		require.Error(t, err, "status %d", tt.status)
		assert.Equal(t, tt.want, domain.ErrorKindOf(err), "status %d", tt.status)
	}
}

func TestHTTPAgentMalformedJSON(t *testing.T) {
	agent, _ := newServerAgent(t, "http", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"jobs": [`)
	})
	_, err := agent.Search(context.Background(), domain.NormalizedQuery{Terms: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrParse))
}

func TestHTTPAgentSchemaViolation(t *testing.T) {
	// Parses fine but breaks the contract: a job without a title.
	agent, _ := newServerAgent(t, "http", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"jobs":[{"company":"BuildCo","location":"Sydney"}]}`)
	})
	_, err := agent.Search(context.Background(), domain.NormalizedQuery{Terms: "x"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindParse, domain.ErrorKindOf(err))
}

func TestHTTPAgentUnreachableHost(t *testing.T) {
	profile, err := profileFor("http")
	require.NoError(t, err)
	agent := NewHTTPAgent("down", "http://127.0.0.1:1", "", profile, logger.Discard())

	_, err = agent.Search(context.Background(), domain.NormalizedQuery{Terms: "x"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindNetwork, domain.ErrorKindOf(err))
}

func TestHTTPAgentSendsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{"jobs":[]}`)
	}))
	defer srv.Close()
	profile, err := profileFor("http")
	require.NoError(t, err)
	agent := NewHTTPAgent("auth", srv.URL, "sekret", profile, logger.Discard())

	_, err = agent.Search(context.Background(), domain.NormalizedQuery{Terms: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekret", gotAuth)
}

// Each site profile shapes the request body in its own dialect.
func TestSiteProfiles(t *testing.T) {
	q := domain.NormalizedQuery{
		Terms:         "welder",
		Region:        "sydney",
		Industry:      "construction",
		DistanceKM:    25,
		ResultsWanted: 10,
	}
	tests := []struct {
		kind     string
		termsKey string
		distKey  string
	}{
		{"linkedin", "keywords", "distanceKm"},
		{"indeed", "q", "radius"},
		{"seek", "keywords", "distance"},
		{"naukri", "keyword", "radiusKm"},
		{"http", "query", "distance_km"},
	}
	for _, tt := range tests {
		var got map[string]any
		agent, _ := newServerAgent(t, tt.kind, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			io.WriteString(w, `{"jobs":[]}`)
		})
		_, err := agent.Search(context.Background(), q)
		require.NoError(t, err, tt.kind)
		assert.Equal(t, "welder", got[tt.termsKey], "%s terms field", tt.kind)
		assert.Equal(t, 25.0, got[tt.distKey], "%s distance field", tt.kind)
	}
}

func TestProfileForUnknownKind(t *testing.T) {
	_, err := profileFor("gopher-jobs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// Zero-valued query fields stay out of the request body.
func TestProfilesOmitEmptyFields(t *testing.T) {
	var got map[string]any
	agent, _ := newServerAgent(t, "http", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"jobs":[]}`)
	})
	_, err := agent.Search(context.Background(), domain.NormalizedQuery{Terms: "anything"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "anything"}, got)
}
