// Package scoring wraps the external risk-scoring service. The service is a
// remote collaborator with a narrow contract: given an assessment id it
// returns a numeric score and a coarse risk level. Calls are bounded by a
// timeout so a slow upstream cannot stall an approval decision; callers decide
// whether a failure is fatal (synchronous approval scoring) or advisory
// (remediation-closure rescoring).
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// DefaultTimeout bounds a single scoring call when the configuration does not
// override it.
const DefaultTimeout = 5 * time.Second

// Result is the scoring service's verdict for one assessment.
type Result struct {
	Score     float64          `json:"score"`
	RiskLevel models.RiskLevel `json:"risk_level"`
}

// Gateway is the interface the workflow layer depends on. *Client is the
// production implementation; tests substitute a stub.
type Gateway interface {
	Score(ctx context.Context, assessmentID string) (*Result, error)
}

// Client calls the scoring service over HTTP.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a scoring client. timeout <= 0 falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type scoreRequest struct {
	AssessmentID string `json:"assessment_id"`
}

// Score requests a risk score for the given assessment. The call is bounded by
// the client timeout regardless of the caller's context deadline. Any failure
// (timeout, transport error, non-2xx status, malformed payload) is returned as
// an error; the caller converts it to its own error taxonomy.
func (c *Client) Score(ctx context.Context, assessmentID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, outcome, err := c.score(ctx, assessmentID)
	telemetry.ScoringCallDuration.Observe(time.Since(start).Seconds())
	telemetry.ScoringCallsTotal.WithLabelValues(outcome).Inc()
	return result, err
}

func (c *Client) score(ctx context.Context, assessmentID string) (*Result, string, error) {
	body, err := json.Marshal(scoreRequest{AssessmentID: assessmentID})
	if err != nil {
		return nil, "bad_payload", fmt.Errorf("failed to marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, "transport_error", fmt.Errorf("failed to create scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, "timeout", fmt.Errorf("scoring call timed out after %s: %w", c.timeout, err)
		}
		return nil, "transport_error", fmt.Errorf("scoring call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "bad_status", fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "bad_payload", fmt.Errorf("failed to decode scoring response: %w", err)
	}

	if !models.ValidRiskLevel(string(result.RiskLevel)) {
		return nil, "bad_payload", fmt.Errorf("scoring service returned unknown risk level %q", result.RiskLevel)
	}

	return &result, "success", nil
}
