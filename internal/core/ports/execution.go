package ports

import (
	"context"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

// ExecutionClient é o contrato com o motor de execução remoto.
// O core só envia o id do workflow salvo e acompanha o run por polling.
type ExecutionClient interface {
	Submit(ctx context.Context, workflowID string) (types.RunHandle, error)
	Poll(ctx context.Context, runID string) (types.RunState, error)
}

// WorkflowRepository abstração do CRUD de workflows do backend
type WorkflowRepository interface {
	List(ctx context.Context) ([]types.WorkflowSummary, error)
	// Create devolve o id atribuído pelo backend
	Create(ctx context.Context, doc types.Graph) (string, error)
	Update(ctx context.Context, id string, doc types.Graph) error
	Delete(ctx context.Context, id string) error
}

// Backend junta os dois contratos (o adapter HTTP implementa ambos)
type Backend interface {
	ExecutionClient
	WorkflowRepository
}
