package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ReportCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := &Client{rdb: db, prefix: "test", logger: logging.NewNopLogger()}
	cache := NewReportCache(client, ttl, logging.NewNopLogger())
	return cache, mock
}

func sampleReport() *evaluation.Report {
	return &evaluation.Report{
		ID:          "rpt-1",
		JobID:       "job-1",
		AccountID:   "acct-1",
		Fingerprint: "fp-1",
	}
}

func TestReportCacheGetHit(t *testing.T) {
	cache, mock := newTestCache(t, time.Hour)
	raw, err := json.Marshal(sampleReport())
	require.NoError(t, err)

	mock.ExpectGet("test:report:fp:fp-1").SetVal(string(raw))

	got, err := cache.Get(context.Background(), "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "rpt-1", got.ID)
	assert.Equal(t, "fp-1", got.Fingerprint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCacheGetMiss(t *testing.T) {
	cache, mock := newTestCache(t, time.Hour)
	mock.ExpectGet("test:report:fp:fp-1").RedisNil()

	_, err := cache.Get(context.Background(), "fp-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCacheCorruptEntryIsMiss(t *testing.T) {
	cache, mock := newTestCache(t, time.Hour)
	mock.ExpectGet("test:report:fp:fp-1").SetVal("{not json")

	_, err := cache.Get(context.Background(), "fp-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCacheSet(t *testing.T) {
	cache, mock := newTestCache(t, 6*time.Hour)
	report := sampleReport()
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	mock.ExpectSet("test:report:fp:fp-1", raw, 6*time.Hour).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), "fp-1", report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientKeyPrefixing(t *testing.T) {
	c := &Client{prefix: "test"}
	assert.Equal(t, "test:report:fp:abc", c.key("report", "fp", "abc"))

	bare := &Client{}
	assert.Equal(t, "report:fp:abc", bare.key("report", "fp", "abc"))
}
