package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

func TestRunWatcher_PublishesStatusChanges(t *testing.T) {
	backend := &fakeBackend{statuses: []types.RunStatus{
		types.RunQueued, types.RunRunning, types.RunRunning, types.RunCompleted,
	}}
	events := &recordingEvents{}
	w := NewRunWatcher(backend, events, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := types.RunSubmittedEvent{WorkflowID: "wf-1", RunID: "run-1", Status: types.RunQueued}
	require.NoError(t, w.Handle(ctx, event))
	w.Wait()

	events.mu.Lock()
	defer events.mu.Unlock()
	got := []types.RunStatus{}
	for _, e := range events.status {
		assert.Equal(t, "wf-1", e.WorkflowID)
		assert.Equal(t, "run-1", e.RunID)
		got = append(got, e.Status)
	}
	assert.Equal(t, []types.RunStatus{types.RunRunning, types.RunCompleted}, got)
	assert.Zero(t, w.Active())
}

func TestRunWatcher_StopsOnCancel(t *testing.T) {
	backend := &fakeBackend{}
	w := NewRunWatcher(backend, &recordingEvents{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	event := types.RunSubmittedEvent{RunID: "run-2", Status: types.RunQueued}
	require.NoError(t, w.Handle(ctx, event))
	require.NoError(t, w.Handle(ctx, event), "redelivery is ignored")
	assert.Equal(t, 1, w.Active())

	cancel()
	w.Wait()
	assert.Zero(t, w.Active())
}
