package ports

import (
	"context"
	"errors"
	"time"
)

var ErrDraftNotFound = errors.New("draft not found")

// DraftInfo resumo de um rascunho salvo
type DraftInfo struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftStore persiste rascunhos em andamento (JSON wire) por chave.
// Implementado em memória, Redis e Postgres; injetado na sessão de edição.
type DraftStore interface {
	SaveDraft(ctx context.Context, key, name string, data []byte) error
	LoadDraft(ctx context.Context, key string) ([]byte, error)
	DeleteDraft(ctx context.Context, key string) error
	ListDrafts(ctx context.Context) ([]DraftInfo, error)
}
