package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

type mockWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func newTestSink(w messageWriter) *AnalyticsSink {
	return &AnalyticsSink{writer: w, logger: logging.NewNopLogger()}
}

func TestAppendRowsPublishesKeyedByAccount(t *testing.T) {
	w := &mockWriter{}
	sink := newTestSink(w)

	rows := []evaluation.AnalyticsRow{
		{JobID: "j-1", AccountID: "acct-1", OverallScore: 72.5, FunnelLabel: "TOF"},
		{JobID: "j-2", AccountID: "acct-2", OverallScore: 41.0, FunnelLabel: "BOF"},
	}
	require.NoError(t, sink.AppendRows(context.Background(), rows))

	require.Len(t, w.written, 2)
	assert.Equal(t, []byte("acct-1"), w.written[0].Key)
	assert.Equal(t, []byte("acct-2"), w.written[1].Key)

	var decoded evaluation.AnalyticsRow
	require.NoError(t, json.Unmarshal(w.written[0].Value, &decoded))
	assert.Equal(t, "j-1", decoded.JobID)
	assert.Equal(t, 72.5, decoded.OverallScore)
}

func TestAppendRowsEmptyIsNoOp(t *testing.T) {
	w := &mockWriter{}
	sink := newTestSink(w)

	require.NoError(t, sink.AppendRows(context.Background(), nil))
	assert.Empty(t, w.written)
}

func TestAppendRowsWrapsWriteFailure(t *testing.T) {
	w := &mockWriter{err: stderrors.New("broker unreachable")}
	sink := newTestSink(w)

	err := sink.AppendRows(context.Background(), []evaluation.AnalyticsRow{{AccountID: "acct-1"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestCloseFlushesWriter(t *testing.T) {
	w := &mockWriter{}
	sink := newTestSink(w)

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}
