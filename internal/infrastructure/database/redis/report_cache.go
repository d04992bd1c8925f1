package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// ReportCache is the Redis-backed fingerprint cache.  Concurrent lookups of
// the same fingerprint collapse into one round trip.
type ReportCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
	logger logging.Logger
}

// NewReportCache constructs the cache with the given entry TTL.
func NewReportCache(client *Client, ttl time.Duration, log logging.Logger) *ReportCache {
	return &ReportCache{client: client, ttl: ttl, logger: log.Named("report_cache")}
}

func (c *ReportCache) Get(ctx context.Context, fingerprint string) (*evaluation.Report, error) {
	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		raw, err := c.client.Raw().Get(ctx, c.client.key("report", "fp", fingerprint)).Bytes()
		if err != nil {
			if stderrors.Is(err, redis.Nil) {
				return nil, errors.Newf(errors.ErrCodeNotFound, "no cached report for fingerprint")
			}
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "report cache read failed")
		}
		var report evaluation.Report
		if err := json.Unmarshal(raw, &report); err != nil {
			// A corrupt entry is treated as a miss; the pipeline recomputes.
			c.logger.Warn("dropping undecodable cache entry", logging.Err(err))
			return nil, errors.New(errors.ErrCodeNotFound, "cached report is undecodable")
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*evaluation.Report), nil
}

func (c *ReportCache) Set(ctx context.Context, fingerprint string, report *evaluation.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode report for cache")
	}
	if err := c.client.Raw().Set(ctx, c.client.key("report", "fp", fingerprint), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "report cache write failed")
	}
	return nil
}
