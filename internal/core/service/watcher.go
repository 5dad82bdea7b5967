package service

import (
	"context"
	"sync"
	"time"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// RunWatcher acompanha runs submetidos (evento run.submitted) e publica
// run.status a cada mudança de status, até o status terminal.
type RunWatcher struct {
	client   ports.ExecutionClient
	events   ports.EventPublisher
	interval time.Duration

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

func NewRunWatcher(client ports.ExecutionClient, events ports.EventPublisher, interval time.Duration) *RunWatcher {
	return &RunWatcher{
		client:   client,
		events:   events,
		interval: interval,
		active:   make(map[string]struct{}),
	}
}

// Handle é o ports.RunSubmittedHandler; retorna logo e acompanha em background.
// Um run já acompanhado é ignorado (redelivery).
func (w *RunWatcher) Handle(ctx context.Context, event types.RunSubmittedEvent) error {
	w.mu.Lock()
	if _, ok := w.active[event.RunID]; ok {
		w.mu.Unlock()
		return nil
	}
	w.active[event.RunID] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.active, event.RunID)
			w.mu.Unlock()
		}()
		w.track(ctx, event)
	}()
	return nil
}

func (w *RunWatcher) track(ctx context.Context, event types.RunSubmittedEvent) {
	logger := ctxlog.FromContext(ctx).With("workflow", event.WorkflowID, "run", event.RunID)
	logger.Info("watching run", "status", event.Status)

	last := event.Status
	for u := range PollRun(ctx, w.client, event.RunID, w.interval) {
		if u.Err != nil {
			logger.Warn("poll run failed", "error", u.Err)
			continue
		}
		if u.State.Status == last {
			continue
		}
		last = u.State.Status

		err := w.events.PublishRunStatus(ctx, types.RunStatusEvent{
			WorkflowID: event.WorkflowID,
			RunID:      event.RunID,
			Status:     u.State.Status,
			Error:      u.State.Error,
			ObservedAt: time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("publish run.status failed", "status", u.State.Status, "error", err)
		}
	}
	logger.Info("run finished watching", "status", last)
}

// Active devolve quantos runs estão sendo acompanhados
func (w *RunWatcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.active)
}

// Wait bloqueia até todos os acompanhamentos terminarem
func (w *RunWatcher) Wait() {
	w.wg.Wait()
}
