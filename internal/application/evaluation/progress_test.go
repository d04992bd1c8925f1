package evaluation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub(logging.NewNopLogger())
	id := uuid.New()

	ch, cancel := hub.Subscribe(id)
	defer cancel()

	hub.Publish(Event{JobID: id, Stage: StageEvaluating, Pct: 20})
	ev := recv(t, ch)
	assert.Equal(t, StageEvaluating, ev.Stage)
	assert.Equal(t, 20, ev.Pct)
}

func TestHubLateSubscriberGetsLastEvent(t *testing.T) {
	hub := NewHub(logging.NewNopLogger())
	id := uuid.New()

	hub.Publish(Event{JobID: id, Stage: StagePost, Pct: 65})

	ch, cancel := hub.Subscribe(id)
	defer cancel()
	ev := recv(t, ch)
	assert.Equal(t, StagePost, ev.Stage)
}

func TestHubTerminalEventClosesChannels(t *testing.T) {
	hub := NewHub(logging.NewNopLogger())
	id := uuid.New()

	ch, cancel := hub.Subscribe(id)
	defer cancel()

	hub.Publish(Event{JobID: id, Stage: StageComplete, Pct: 100, Terminal: true})
	ev := recv(t, ch)
	assert.True(t, ev.Terminal)

	_, open := <-ch
	assert.False(t, open, "channel must close after the terminal event")
}

func TestHubSubscribeAfterTerminal(t *testing.T) {
	hub := NewHub(logging.NewNopLogger())
	id := uuid.New()

	hub.Publish(Event{JobID: id, Stage: StageComplete, Pct: 100, Terminal: true})

	ch, cancel := hub.Subscribe(id)
	defer cancel()
	ev := recv(t, ch)
	assert.True(t, ev.Terminal)
	_, open := <-ch
	assert.False(t, open)
}

func TestHubIsolatesJobs(t *testing.T) {
	hub := NewHub(logging.NewNopLogger())
	a, b := uuid.New(), uuid.New()

	chA, cancelA := hub.Subscribe(a)
	defer cancelA()
	chB, cancelB := hub.Subscribe(b)
	defer cancelB()

	hub.Publish(Event{JobID: a, Stage: StageEvaluating, Pct: 20})

	require.Equal(t, StageEvaluating, recv(t, chA).Stage)
	select {
	case ev := <-chB:
		t.Fatalf("unrelated subscriber received %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsWhenSubscriberLags(t *testing.T) {
	hub := NewHub(logging.NewNopLogger())
	id := uuid.New()

	ch, cancel := hub.Subscribe(id)
	defer cancel()

	// Overflow the buffer without reading; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{JobID: id, Stage: StageEvaluating, Pct: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a lagging subscriber")
	}

	// The subscriber still drains what fit in its buffer.
	ev := recv(t, ch)
	assert.Equal(t, StageEvaluating, ev.Stage)
}

func TestStagePcts(t *testing.T) {
	order := []string{
		StageTrim, StageMetadata, StageMetaDone, StageEvaluating,
		StageABCDDone, StageShortsDone, StageCIDone, StagePost,
		StageKeyframes, StageVolume, StageBrand, StageBrief,
		StageAudio, StageFormatting, StageComplete,
	}
	prev := 0
	for _, stage := range order {
		pct := StagePct(stage)
		assert.Greater(t, pct, prev, stage)
		prev = pct
	}
	assert.Equal(t, 100, StagePct(StageComplete))
}
