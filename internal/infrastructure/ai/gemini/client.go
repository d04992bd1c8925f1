// Package gemini implements the content-understanding collaborator: rubric
// evaluation and brand description over the model provider's HTTP API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Client calls the content-understanding service.
type Client struct {
	cfg    config.ContentAIConfig
	http   *http.Client
	logger logging.Logger
}

// NewClient constructs the client.
func NewClient(cfg config.ContentAIConfig, log logging.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.CallTimeout},
		logger: log.Named("content_ai"),
	}
}

type evaluateRequest struct {
	Model  string              `json:"model"`
	Media  evaluation.MediaRef `json:"media"`
	Checks []checkSpec         `json:"checks"`
}

type checkSpec struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SubCategory string `json:"sub_category"`
	Criteria    string `json:"criteria"`
}

type evaluateResponse struct {
	Verdicts []verdictPayload `json:"verdicts"`
}

type verdictPayload struct {
	FeatureID  string  `json:"feature_id"`
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Evidence   string  `json:"evidence"`
	Timestamps []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"timestamps"`
}

// Evaluate runs the features against the media and returns one verdict per
// feature.  A feature missing from the response is an error: partial model
// output is not silently accepted.
func (c *Client) Evaluate(ctx context.Context, ref evaluation.MediaRef, features []rubric.Feature) ([]rubric.Verdict, error) {
	req := evaluateRequest{
		Model: c.cfg.Model,
		Media: ref,
	}
	byID := make(map[string]rubric.Feature, len(features))
	for _, f := range features {
		byID[f.ID] = f
		req.Checks = append(req.Checks, checkSpec{
			ID:          f.ID,
			Name:        f.Name,
			SubCategory: string(f.SubCategory),
			Criteria:    f.Criteria,
		})
	}

	var resp evaluateResponse
	if err := c.postJSON(ctx, "/v1/evaluate", req, &resp); err != nil {
		return nil, err
	}

	verdicts := make([]rubric.Verdict, 0, len(features))
	for _, p := range resp.Verdicts {
		f, ok := byID[p.FeatureID]
		if !ok {
			continue
		}
		v := rubric.Verdict{
			FeatureID:   f.ID,
			Name:        f.Name,
			CheckSet:    f.CheckSet,
			SubCategory: f.SubCategory,
			Detected:    p.Detected,
			Confidence:  clamp01(p.Confidence),
			Rationale:   p.Rationale,
			Evidence:    p.Evidence,
		}
		for _, ts := range p.Timestamps {
			v.Timestamps = append(v.Timestamps, rubric.TimeRange{StartSeconds: ts.Start, EndSeconds: ts.End})
		}
		verdicts = append(verdicts, v)
	}
	if len(verdicts) != len(features) {
		return nil, errors.Newf(errors.ErrCodeCollaboratorMalformed,
			"model returned %d verdicts for %d checks", len(verdicts), len(features))
	}
	return verdicts, nil
}

type describeResponse struct {
	Brand evaluation.BrandDescription `json:"brand"`
}

// Describe extracts brand metadata and a scene summary.  The lighter flash
// model serves this call.
func (c *Client) Describe(ctx context.Context, ref evaluation.MediaRef) (*evaluation.BrandDescription, error) {
	req := struct {
		Model string              `json:"model"`
		Media evaluation.MediaRef `json:"media"`
	}{Model: c.cfg.FlashModel, Media: ref}

	var resp describeResponse
	if err := c.postJSON(ctx, "/v1/describe", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Brand, nil
}

// postJSON sends the request with bounded retries.  5xx responses and
// transport errors retry with exponential backoff; 4xx responses fail fast.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode model request")
	}

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeCollaboratorTimeout, "model call aborted")
			case <-time.After(backoff):
			}
		}

		lastErr = c.doOnce(ctx, path, body, out)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		c.logger.Warn("model call retrying",
			logging.String("path", path),
			logging.Int("attempt", attempt+1),
			logging.Err(lastErr),
		)
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build model request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, errors.ErrCodeCollaboratorTimeout, "model call timed out")
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "model call failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeCollaboratorQuota, "model provider quota exceeded")
	case resp.StatusCode >= 500:
		return errors.Newf(errors.ErrCodeExternalService, "model provider returned status %d", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf(errors.ErrCodeCollaboratorMalformed,
			"model provider rejected the request: %s", fmt.Sprintf("%d %s", resp.StatusCode, snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeCollaboratorMalformed, "model response is not valid json")
	}
	return nil
}

func retryable(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeExternalService, errors.ErrCodeCollaboratorQuota:
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
