// Package videointel implements the structured video-annotation collaborator
// and the mechanical media toolkit backed by the same service.
package videointel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Client calls the annotation service.
type Client struct {
	cfg    config.AnnotationConfig
	http   *http.Client
	logger logging.Logger
}

// NewClient constructs the client.
func NewClient(cfg config.AnnotationConfig, log logging.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.CallTimeout},
		logger: log.Named("annotation"),
	}
}

type annotateRequest struct {
	Media    evaluation.MediaRef `json:"media"`
	Features []string            `json:"features"`
}

// Annotate runs the structured detectors against the media.  Only features
// whose method involves annotations are sent; the service returns a boolean
// detection per requested feature plus the raw signal tracks.
func (c *Client) Annotate(ctx context.Context, ref evaluation.MediaRef, features []rubric.Feature) (*evaluation.AnnotationSet, error) {
	req := annotateRequest{Media: ref}
	for _, f := range features {
		if f.Method == rubric.MethodAnnotations || f.Method == rubric.MethodHybrid {
			req.Features = append(req.Features, f.ID)
		}
	}

	var set evaluation.AnnotationSet
	if err := c.postJSON(ctx, "/v1/annotate", req, &set); err != nil {
		return nil, err
	}
	if set.Detections == nil {
		set.Detections = map[string]bool{}
	}
	return &set, nil
}

// postJSON sends the request with bounded retries on transient failures.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode annotation request")
	}

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeAnnotationFailed, "annotation call aborted")
			case <-time.After(backoff):
			}
		}

		lastErr = c.doOnce(ctx, path, body, out)
		if lastErr == nil {
			return nil
		}
		if !transient(lastErr) {
			return lastErr
		}
		c.logger.Warn("annotation call retrying",
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
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build annotation request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAnnotationFailed, "annotation call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf(errors.ErrCodeAnnotationFailed,
			"annotation service returned status %d: %s", resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeAnnotationFailed, "annotation response is not valid json")
	}
	return nil
}

func transient(err error) bool {
	return errors.GetCode(err) == errors.ErrCodeAnnotationFailed
}
