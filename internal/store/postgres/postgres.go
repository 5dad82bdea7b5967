package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
)

// PGStore guarda rascunhos numa tabela jsonb
type PGStore struct {
	db *pgxpool.Pool
}

var _ ports.DraftStore = (*PGStore)(nil)

func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// Connect abre o pool e confere a conexão
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	return pool, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workflow_drafts (
    key        TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    data       JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_workflow_drafts_updated ON workflow_drafts(updated_at DESC);
`

func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS workflow_drafts;`)
	return err
}

// SaveDraft faz upsert pela chave
func (s *PGStore) SaveDraft(ctx context.Context, key, name string, data []byte) error {
	if key == "" {
		return fmt.Errorf("draft key is required")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO workflow_drafts (key, name, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = NOW()`,
		key, name, string(data),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) LoadDraft(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM workflow_drafts WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ports.ErrDraftNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", key, err)
	}
	return data, nil
}

func (s *PGStore) DeleteDraft(ctx context.Context, key string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM workflow_drafts WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ports.ErrDraftNotFound, key)
	}
	return nil
}

func (s *PGStore) ListDrafts(ctx context.Context) ([]ports.DraftInfo, error) {
	rows, err := s.db.Query(ctx, `SELECT key, name, updated_at FROM workflow_drafts ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	out := []ports.DraftInfo{}
	for rows.Next() {
		var d ports.DraftInfo
		if err := rows.Scan(&d.Key, &d.Name, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		d.UpdatedAt = d.UpdatedAt.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}
