package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"jobscout/internal/domain"
	"jobscout/internal/infra/tracer"
)

// maxResponseBody is the maximum response body size read from site APIs.
const maxResponseBody = 10 * 1024 * 1024 // 10 MB

// responseSchema is the wire contract every site adapter normalizes to. A
// response that parses as JSON but violates it is a PARSE failure, distinct
// from transport trouble.
var responseSchema = jsonschema.MustCompileString("response.json", `{
	"type": "object",
	"required": ["jobs"],
	"properties": {
		"jobs": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "company", "location"],
				"properties": {
					"title":     {"type": "string", "minLength": 1},
					"company":   {"type": "string"},
					"location":  {"type": "string"},
					"url":       {"type": "string"},
					"salary":    {"type": "string"},
					"posted_at": {"type": "string"}
				}
			}
		}
	}
}`)

// HTTPAgent is a generic JSON-API search client. Site differences live
// entirely in the siteProfile (request body shaping); the transport, status
// classification and response validation are shared.
type HTTPAgent struct {
	id       domain.AgentID
	endpoint string
	apiKey   string
	profile  siteProfile
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPAgent creates an agent for one site endpoint.
func NewHTTPAgent(id domain.AgentID, endpoint, apiKey string, profile siteProfile, logger *slog.Logger) *HTTPAgent {
	return &HTTPAgent{
		id:       id,
		endpoint: endpoint,
		apiKey:   apiKey,
		profile:  profile,
		client: &http.Client{
			Transport: newPooledTransport(),
		},
		logger: logger,
	}
}

// ID implements domain.SearchAgent.
func (a *HTTPAgent) ID() domain.AgentID { return a.id }

// Search implements domain.SearchAgent. Failures are classified with the
// domain sentinels so the dispatcher's error taxonomy stays accurate.
func (a *HTTPAgent) Search(ctx context.Context, q domain.NormalizedQuery) ([]domain.JobRecord, error) {
	ctx, span := tracer.StartSpan(ctx, "agent."+string(a.id))
	defer span.End()

	body, err := json.Marshal(a.profile.buildBody(q))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	respBody, err := a.doJSONRequest(ctx, body)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	records, err := a.decodeRecords(respBody)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	a.logger.Debug("agent search completed", "agent", string(a.id), "jobs", len(records))
	span.SetAttributes(tracer.IntAttr("agent.jobs", len(records)))
	tracer.SetOK(span)
	return records, nil
}

func (a *HTTPAgent) doJSONRequest(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("http request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// decodeRecords validates the payload against the response schema and maps
// it onto JobRecords. Schema violations are PARSE failures.
func (a *HTTPAgent) decodeRecords(body []byte) ([]domain.JobRecord, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrParse, err)
	}
	if err := responseSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: response schema: %v", domain.ErrParse, err)
	}

	var payload struct {
		Jobs []domain.JobRecord `json:"jobs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode jobs: %v", domain.ErrParse, err)
	}

	for i := range payload.Jobs {
		payload.Jobs[i].Source = a.id
	}
	return payload.Jobs, nil
}

// mapHTTPError maps an HTTP status code and response body onto a domain
// sentinel so ErrorKindOf classifies it correctly downstream.
func mapHTTPError(statusCode int, body []byte) error {
	detail := fmt.Sprintf("API error %d: %s", statusCode, truncateBody(body))
	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, detail)
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", domain.ErrTimeout, detail)
	case statusCode >= 500:
		return fmt.Errorf("%w: %s", domain.ErrNetwork, detail)
	default:
		return fmt.Errorf("%w: %s", domain.ErrNetwork, detail)
	}
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// Connection pool settings suited for a handful of site hosts with bursts of
// concurrent searches against each.
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 20
	defaultIdleConnTimeout     = 120 * time.Second
)

// newPooledTransport creates an http.Transport with connection pooling for
// site API calls. Per-request deadlines come from the dispatcher's context,
// so the client itself carries no overall timeout.
func newPooledTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		MaxConnsPerHost:       defaultMaxConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
}
