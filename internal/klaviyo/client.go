package klaviyo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ignite/agency-pulse/internal/config"
	"github.com/ignite/agency-pulse/internal/pkg/httpretry"
)

// Client is the Klaviyo reporting API client. API keys are per client
// account and passed per call — an agency holds one key per brand.
type Client struct {
	baseURL     string
	apiRevision string
	httpClient  httpretry.HTTPDoer
}

// NewClient creates a new Klaviyo API client
func NewClient(cfg config.KlaviyoConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiRevision: cfg.APIRevision,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated GET against the Klaviyo API.
func (c *Client) doRequest(ctx context.Context, apiKey, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Klaviyo-API-Key "+apiKey)
	req.Header.Set("revision", c.apiRevision)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func rangeParams(lookbackDays int) url.Values {
	params := url.Values{}
	now := time.Now().UTC()
	params.Set("filter", fmt.Sprintf("greater-than(datetime,%s)",
		now.AddDate(0, 0, -lookbackDays).Format(time.RFC3339)))
	params.Set("page_size", strconv.Itoa(100))
	return params
}

// GetCampaignStats retrieves campaign performance rows for one client
// account over the lookback window.
func (c *Client) GetCampaignStats(ctx context.Context, apiKey string, lookbackDays int) ([]CampaignStats, error) {
	body, err := c.doRequest(ctx, apiKey, "/campaign-values-reports", rangeParams(lookbackDays))
	if err != nil {
		return nil, err
	}

	var stats []CampaignStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse campaign stats: %w", err)
	}
	return stats, nil
}

// GetFlowStats retrieves flow performance rows for one client account.
func (c *Client) GetFlowStats(ctx context.Context, apiKey string, lookbackDays int) ([]FlowStats, error) {
	body, err := c.doRequest(ctx, apiKey, "/flow-values-reports", rangeParams(lookbackDays))
	if err != nil {
		return nil, err
	}

	var stats []FlowStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse flow stats: %w", err)
	}
	return stats, nil
}

// GetFlowMessageStats retrieves per-email rows for one flow. Named the
// lazy-fetch path: the dashboard only calls it when a flow is expanded.
func (c *Client) GetFlowMessageStats(ctx context.Context, apiKey, flowID string, lookbackDays int) ([]FlowMessageStats, error) {
	params := rangeParams(lookbackDays)
	params.Set("flow_id", flowID)

	body, err := c.doRequest(ctx, apiKey, "/flow-message-values-reports", params)
	if err != nil {
		return nil, err
	}

	var stats []FlowMessageStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse flow message stats: %w", err)
	}
	return stats, nil
}

// GetListGrowth retrieves daily list-growth rows for one client account.
func (c *Client) GetListGrowth(ctx context.Context, apiKey string, lookbackDays int) ([]ListGrowthStats, error) {
	body, err := c.doRequest(ctx, apiKey, "/list-growth-reports", rangeParams(lookbackDays))
	if err != nil {
		return nil, err
	}

	var stats []ListGrowthStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse list growth: %w", err)
	}
	return stats, nil
}

// GetWeeklyFlowTrend retrieves the pre-aggregated weekly trend series for
// one flow, used by the recap comparator's prior-period split.
func (c *Client) GetWeeklyFlowTrend(ctx context.Context, apiKey, flowID string, lookbackDays int) ([]WeeklyTrendRow, error) {
	params := rangeParams(lookbackDays)
	params.Set("flow_id", flowID)
	params.Set("interval", "weekly")

	body, err := c.doRequest(ctx, apiKey, "/flow-series-reports", params)
	if err != nil {
		return nil, err
	}

	var rows []WeeklyTrendRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse weekly flow trend: %w", err)
	}
	return rows, nil
}
