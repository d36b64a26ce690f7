// Package collect fetches real ping measurements from the RIPE Atlas API.
// Collected data is only persisted as a raw CSV for later, external
// calibration work; nothing in the generator consumes it.
package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/torosent/netsynth/internal/config"
)

// Result is one probe's ping result for a measurement. RTT values are in
// milliseconds; Loss is the fraction of unanswered pings.
type Result struct {
	ProbeID   int64
	Timestamp time.Time
	RTTMin    float64
	RTTAvg    float64
	RTTMax    float64
	Sent      int64
	Received  int64
	Loss      float64
}

// Client talks to the RIPE Atlas REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	maxResults int
}

// NewClient builds a client from the collect configuration.
func NewClient(cfg config.CollectConfig) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, 1),
		maxResults: cfg.MaxResults,
	}
}

// FetchResults downloads the latest results of a measurement. Probes that
// received no reply at all are dropped; partial loss is kept and reflected
// in the Loss fraction.
func (c *Client) FetchResults(ctx context.Context, measurementID int64) ([]Result, error) {
	if measurementID <= 0 {
		return nil, fmt.Errorf("measurement id must be > 0, got %d", measurementID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/measurements/%d/results/?format=json", c.baseURL, measurementID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Key "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch measurement %d: %w", measurementID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("measurement %d: unexpected status %d: %s", measurementID, resp.StatusCode, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return c.parseResults(body)
}

func (c *Client) parseResults(body []byte) ([]Result, error) {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("unexpected response shape: expected a JSON array")
	}

	var results []Result
	for _, entry := range parsed.Array() {
		sent := entry.Get("sent").Int()
		rcvd := entry.Get("rcvd").Int()
		avg := entry.Get("avg").Float()
		if sent == 0 || rcvd == 0 || avg <= 0 {
			// The API reports -1 RTTs when every ping timed out.
			continue
		}
		results = append(results, Result{
			ProbeID:   entry.Get("prb_id").Int(),
			Timestamp: time.Unix(entry.Get("timestamp").Int(), 0).UTC(),
			RTTMin:    entry.Get("min").Float(),
			RTTAvg:    avg,
			RTTMax:    entry.Get("max").Float(),
			Sent:      sent,
			Received:  rcvd,
			Loss:      1 - float64(rcvd)/float64(sent),
		})
		if c.maxResults > 0 && len(results) >= c.maxResults {
			break
		}
	}
	return results, nil
}
