package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

const (
	defaultBaseURL = "https://www.muckrock.com/api_v1"
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	initialBackoff = 2 * time.Second
)

// MuckRockClient talks to the MuckRock records platform. Transient failures
// (timeouts, 5xx, rate limits) are retried with exponential backoff and
// eventually surfaced as ErrTransientNetwork; validation failures surface
// as ErrSubmissionRejected and are never retried.
type MuckRockClient struct {
	baseURL string
	client  *http.Client
	session *Session
}

// NewMuckRockClient creates a client authenticating through the session.
func NewMuckRockClient(session *Session) *MuckRockClient {
	c := &MuckRockClient{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	c.session = session
	return c
}

// FetchToken exchanges credentials for an API token. Suitable as the
// session's TokenFetcher.
func FetchToken(baseURL string) TokenFetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := &http.Client{Timeout: defaultTimeout}
	return func(ctx context.Context, username, password string) (string, error) {
		payload, err := json.Marshal(map[string]string{"username": username, "password": password})
		if err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/token-auth/", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTransientNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("authentication failed: HTTP %d", resp.StatusCode)
		}

		var tok struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
			return "", fmt.Errorf("failed to parse token response: %w", err)
		}
		return tok.Token, nil
	}
}

// agencyJSON is the platform's agency representation.
type agencyJSON struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	Jurisdiction        string  `json:"jurisdiction"`
	AverageResponseTime int     `json:"average_response_time"`
	FeeRate             float64 `json:"fee_rate"`
	SuccessRate         float64 `json:"success_rate"`
}

func (a agencyJSON) toModel() model.Agency {
	agency := model.Agency{
		ID:                  a.ID,
		Name:                a.Name,
		Jurisdiction:        a.Jurisdiction,
		AverageResponseDays: a.AverageResponseTime,
		SuccessRate:         a.SuccessRate,
	}
	if a.FeeRate > 0 {
		agency.PerPageRate = sql.NullFloat64{Float64: a.FeeRate, Valid: true}
	}
	return agency
}

// LookupAgency retrieves one agency by id.
func (c *MuckRockClient) LookupAgency(ctx context.Context, id int) (*model.Agency, error) {
	body, err := c.doWithRetry(ctx, http.MethodGet, fmt.Sprintf("%s/agency/%d/", c.baseURL, id), nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to look up agency %d: %w", id, err)
	}

	var a agencyJSON
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("failed to parse agency response: %w", err)
	}
	agency := a.toModel()
	return &agency, nil
}

// SearchAgencies searches agencies by name. The query is URL-encoded, so
// names with spaces or ampersands reach the platform intact, and the result
// cap is pushed down as the page size.
func (c *MuckRockClient) SearchAgencies(ctx context.Context, query string, limit int) ([]model.Agency, error) {
	params := url.Values{"search": {query}}
	if limit > 0 {
		params.Set("page_size", strconv.Itoa(limit))
	}
	body, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+"/agency/?"+params.Encode(), nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to search agencies: %w", err)
	}

	var resp struct {
		Results []agencyJSON `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse agencies response: %w", err)
	}

	agencies := make([]model.Agency, len(resp.Results))
	for i, a := range resp.Results {
		agencies[i] = a.toModel()
	}
	return agencies, nil
}

// ListUserOrganizations retrieves the authenticated user's organizations.
// An empty result is valid: the user files as an individual.
func (c *MuckRockClient) ListUserOrganizations(ctx context.Context) ([]model.Organization, error) {
	body, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+"/organization/", nil, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	var resp struct {
		Results []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse organizations response: %w", err)
	}

	orgs := make([]model.Organization, len(resp.Results))
	for i, o := range resp.Results {
		orgs[i] = model.Organization{ID: o.ID, Name: o.Name}
	}
	return orgs, nil
}

// SubmitRequest files a new request with one agency.
func (c *MuckRockClient) SubmitRequest(ctx context.Context, sub Submission) (*model.FOIARequest, error) {
	payload := map[string]interface{}{
		"title":              sub.Title,
		"requested_docs":     sub.Body,
		"agencies":           []int{sub.AgencyID},
		"embargo":            sub.Embargo,
		"permanent_embargo":  sub.PermanentEmbargo,
		"request_fee_waiver": sub.RequestFeeWaiver,
	}
	if sub.OrganizationID != 0 {
		payload["organization"] = sub.OrganizationID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	respBody, err := c.doWithRetry(ctx, http.MethodPost, c.baseURL+"/foia/", &postPayload{
		body:           body,
		idempotencyKey: sub.IdempotencyKey,
	}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to submit request to agency %d: %w", sub.AgencyID, err)
	}

	var created struct {
		ID           int    `json:"id"`
		Title        string `json:"title"`
		Status       string `json:"status"`
		Jurisdiction string `json:"jurisdiction"`
		DateFiled    string `json:"datetime_submitted"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to parse submission response: %w", err)
	}

	filedAt := time.Now().UTC()
	if created.DateFiled != "" {
		if t, err := time.Parse(time.RFC3339, created.DateFiled); err == nil {
			filedAt = t
		}
	}

	req := &model.FOIARequest{
		ID:               created.ID,
		Title:            sub.Title,
		Body:             sub.Body,
		AgencyID:         sub.AgencyID,
		Jurisdiction:     created.Jurisdiction,
		FiledAt:          filedAt,
		Embargo:          sub.Embargo,
		PermanentEmbargo: sub.PermanentEmbargo,
	}
	if sub.OrganizationID != 0 {
		req.OrganizationID = sql.NullInt64{Int64: int64(sub.OrganizationID), Valid: true}
	}
	return req, nil
}

// FetchRequestStatus retrieves the current platform view of a request.
// Status strings are mapped into the closed Status set here, at the
// collaborator boundary; unknown strings fail closed.
func (c *MuckRockClient) FetchRequestStatus(ctx context.Context, id int) (*RequestUpdate, error) {
	body, err := c.doWithRetry(ctx, http.MethodGet, fmt.Sprintf("%s/foia/%d/", c.baseURL, id), nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request %d: %w", id, err)
	}

	var resp struct {
		Status         string   `json:"status"`
		Price          *float64 `json:"price"`
		Communications []struct {
			Date     string `json:"datetime"`
			FromUser string `json:"from_user"`
			Body     string `json:"communication"`
		} `json:"communications"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse request response: %w", err)
	}

	status, err := model.ParseStatus(resp.Status)
	if err != nil {
		return nil, fmt.Errorf("request %d: %w", id, err)
	}

	update := &RequestUpdate{Status: status, Fee: resp.Price}
	for _, comm := range resp.Communications {
		mc := model.Communication{FromUser: comm.FromUser, Body: comm.Body}
		if t, err := time.Parse(time.RFC3339, comm.Date); err == nil {
			mc.Date = t
		}
		update.Communications = append(update.Communications, mc)
		update.DenialReasons = append(update.DenialReasons, ParseDenialReasons(comm.Body)...)
	}
	return update, nil
}

// RequestSummary is one row of a platform-wide request search.
type RequestSummary struct {
	ID       int
	Title    string
	Status   model.Status
	AgencyID int
	FiledAt  time.Time
}

// SearchRequests searches requests across the whole platform, not just the
// caller's own filings. Statuses are mapped at this boundary and fail closed.
func (c *MuckRockClient) SearchRequests(ctx context.Context, query string, limit int) ([]RequestSummary, error) {
	params := url.Values{"search": {query}}
	if limit > 0 {
		params.Set("page_size", strconv.Itoa(limit))
	}
	body, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+"/foia/?"+params.Encode(), nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to search requests: %w", err)
	}

	var resp struct {
		Results []struct {
			ID        int    `json:"id"`
			Title     string `json:"title"`
			Status    string `json:"status"`
			Agency    int    `json:"agency"`
			Submitted string `json:"datetime_submitted"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse request search response: %w", err)
	}

	summaries := make([]RequestSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		status, err := model.ParseStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", r.ID, err)
		}
		summary := RequestSummary{ID: r.ID, Title: r.Title, Status: status, AgencyID: r.Agency}
		if t, err := time.Parse(time.RFC3339, r.Submitted); err == nil {
			summary.FiledAt = t
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// PostFollowup sends a follow-up message on a request.
func (c *MuckRockClient) PostFollowup(ctx context.Context, id int, message string) error {
	body, err := json.Marshal(map[string]string{"communication": message})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/foia/%d/followup/", c.baseURL, id)
	if _, err := c.doWithRetry(ctx, http.MethodPost, endpoint, &postPayload{body: body}, true); err != nil {
		return fmt.Errorf("failed to post follow-up on request %d: %w", id, err)
	}
	return nil
}

// PostAppeal files an administrative appeal on a request.
func (c *MuckRockClient) PostAppeal(ctx context.Context, id int, appealText string) error {
	body, err := json.Marshal(map[string]interface{}{"communication": appealText, "appeal": true})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/foia/%d/appeal/", c.baseURL, id)
	if _, err := c.doWithRetry(ctx, http.MethodPost, endpoint, &postPayload{body: body}, true); err != nil {
		return fmt.Errorf("failed to post appeal on request %d: %w", id, err)
	}
	return nil
}

// postPayload is a request body plus optional idempotency key.
type postPayload struct {
	body           []byte
	idempotencyKey string
}

// doWithRetry performs an HTTP request with exponential backoff on
// transient failures. Permanent failures (4xx) return immediately.
func (c *MuckRockClient) doWithRetry(ctx context.Context, method, url string, payload *postPayload, authenticated bool) ([]byte, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload.body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
			if payload.idempotencyKey != "" {
				req.Header.Set("Idempotency-Key", payload.idempotencyKey)
			}
		}
		if authenticated {
			token, err := c.session.Token(ctx)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Token "+token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized:
			// Token may have expired server-side; re-authenticate and retry.
			c.session.Invalidate()
			lastErr = fmt.Errorf("unauthorized (HTTP 401)")
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
		default:
			// Platform-side validation failure: permanent, surfaced verbatim.
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrSubmissionRejected, resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts: %v", ErrTransientNetwork, maxRetries, lastErr)
}
