package ports

import (
	"context"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// EventPublisher notifica o resto da plataforma sobre saves e runs
type EventPublisher interface {
	PublishWorkflowSaved(ctx context.Context, event types.WorkflowSavedEvent) error
	PublishWorkflowDeleted(ctx context.Context, event types.WorkflowDeletedEvent) error
	PublishRunSubmitted(ctx context.Context, event types.RunSubmittedEvent) error
	PublishRunStatus(ctx context.Context, event types.RunStatusEvent) error
}

// EventBus abstração de mensageria
type EventBus interface {
	EventPublisher

	// Subscrição (watcher)
	SubscribeRunSubmitted(ctx context.Context, handler RunSubmittedHandler) error

	Close() error
}

type RunSubmittedHandler func(ctx context.Context, event types.RunSubmittedEvent) error
