package events

import (
	"context"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// Noop descarta eventos (api sem NATS configurado)
type Noop struct{}

var _ ports.EventPublisher = Noop{}

func (Noop) PublishWorkflowSaved(context.Context, types.WorkflowSavedEvent) error     { return nil }
func (Noop) PublishWorkflowDeleted(context.Context, types.WorkflowDeletedEvent) error { return nil }
func (Noop) PublishRunSubmitted(context.Context, types.RunSubmittedEvent) error       { return nil }
func (Noop) PublishRunStatus(context.Context, types.RunStatusEvent) error             { return nil }
