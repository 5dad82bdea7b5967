package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/events"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// EventBusImpl adapta o bus de mensageria para a interface do Core
type EventBusImpl struct {
	bus  events.Bus
	subs []events.Subscription
}

var _ ports.EventBus = (*EventBusImpl)(nil)

func NewEventBus(bus events.Bus) *EventBusImpl {
	return &EventBusImpl{bus: bus}
}

func (e *EventBusImpl) PublishWorkflowSaved(ctx context.Context, event types.WorkflowSavedEvent) error {
	return e.bus.PublishEvent(ctx, types.SubjectWorkflowSaved, event)
}

func (e *EventBusImpl) PublishWorkflowDeleted(ctx context.Context, event types.WorkflowDeletedEvent) error {
	return e.bus.PublishEvent(ctx, types.SubjectWorkflowDeleted, event)
}

func (e *EventBusImpl) PublishRunSubmitted(ctx context.Context, event types.RunSubmittedEvent) error {
	return e.bus.PublishEvent(ctx, types.SubjectRunSubmitted, event)
}

func (e *EventBusImpl) PublishRunStatus(ctx context.Context, event types.RunStatusEvent) error {
	return e.bus.PublishEvent(ctx, types.SubjectRunStatus, event)
}

// SubscribeRunSubmitted: payload inválido é descartado (ack) para não travar o consumer.
// Falha do handler volta com Nak e backoff; depois de MaxDeliveries a mensagem é descartada.
func (e *EventBusImpl) SubscribeRunSubmitted(ctx context.Context, handler ports.RunSubmittedHandler) error {
	sub, err := e.bus.Subscribe(types.SubjectRunSubmitted, "run_watcher", func(msgCtx context.Context, msg events.Message) error {
		var event types.RunSubmittedEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			_ = msg.Ack()
			return fmt.Errorf("decode run.submitted: %w", err)
		}

		if err := handler(ctx, event); err != nil {
			n := msg.Deliveries()
			if n >= events.MaxDeliveries {
				_ = msg.Ack()
				return fmt.Errorf("run %s dropped after %d deliveries: %w", event.RunID, n, err)
			}
			_ = msg.Nak(events.RetryDelay(n))
			return err
		}
		return msg.Ack()
	})
	if err != nil {
		return err
	}
	e.subs = append(e.subs, sub)
	return nil
}

func (e *EventBusImpl) Close() error {
	for _, s := range e.subs {
		_ = s.Unsubscribe()
	}
	return e.bus.Close()
}
