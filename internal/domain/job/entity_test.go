package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

func newTestJob() *Job {
	return New("acct-1", VideoSource{URI: "s3://assets/demo.mp4", Filename: "demo.mp4"},
		[]rubric.CheckSet{rubric.CheckSetLongFormABCD}, "fp-1", "", 600)
}

func TestLifecycleTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []Status
		ok   bool
	}{
		{"queued to running to succeeded", []Status{StatusRunning, StatusSucceeded}, true},
		{"queued to running to failed", []Status{StatusRunning, StatusFailed}, true},
		{"queued to canceled", []Status{StatusCanceled}, true},
		{"running to canceled", []Status{StatusRunning, StatusCanceled}, true},
		{"queued straight to succeeded", []Status{StatusSucceeded}, false},
		{"succeeded is terminal", []Status{StatusRunning, StatusSucceeded, StatusFailed}, false},
		{"canceled is terminal", []Status{StatusCanceled, StatusRunning}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestJob()
			var err error
			for _, next := range tt.path {
				err = j.Transition(next)
				if err != nil {
					break
				}
			}
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTransition))
			}
		})
	}
}

func TestTransitionStampsTimes(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.Transition(StatusRunning))
	require.NotNil(t, j.StartedAt)
	require.Nil(t, j.FinishedAt)

	require.NoError(t, j.Transition(StatusSucceeded))
	require.NotNil(t, j.FinishedAt)
}

func TestProgressNeverRegresses(t *testing.T) {
	j := newTestJob()

	assert.True(t, j.ApplyProgress("metadata", 8))
	assert.True(t, j.ApplyProgress("evaluating", 20))
	assert.False(t, j.ApplyProgress("metadata", 8), "stale milestone must be dropped")
	assert.Equal(t, "evaluating", j.Stage)
	assert.Equal(t, 20, j.ProgressPct)

	// Equal percentage may update the stage name.
	assert.True(t, j.ApplyProgress("evaluating_retry", 20))
	assert.Equal(t, "evaluating_retry", j.Stage)
}

func TestMarkFailedRecordsDetail(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.Transition(StatusRunning))
	require.NoError(t, j.MarkFailed(errors.ErrCodeAllBranchesFailed, "every analysis branch failed"))

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, string(errors.ErrCodeAllBranchesFailed), j.ErrorCode)
	assert.NotEmpty(t, j.ErrorMessage)
}
