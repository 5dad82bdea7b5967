package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
)

type entry struct {
	name      string
	data      []byte
	updatedAt time.Time
}

// DraftStore guarda rascunhos no processo (dev e testes)
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]entry
	now    func() time.Time
}

var _ ports.DraftStore = (*DraftStore)(nil)

func New() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]entry),
		now:    time.Now,
	}
}

func (s *DraftStore) SaveDraft(ctx context.Context, key, name string, data []byte) error {
	if key == "" {
		return fmt.Errorf("draft key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[key] = entry{name: name, data: slices.Clone(data), updatedAt: s.now().UTC()}
	return nil
}

func (s *DraftStore) LoadDraft(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.drafts[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrDraftNotFound, key)
	}
	return slices.Clone(e.data), nil
}

func (s *DraftStore) DeleteDraft(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[key]; !ok {
		return fmt.Errorf("%w: %s", ports.ErrDraftNotFound, key)
	}
	delete(s.drafts, key)
	return nil
}

// ListDrafts do mais recente para o mais antigo
func (s *DraftStore) ListDrafts(ctx context.Context) ([]ports.DraftInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.DraftInfo, 0, len(s.drafts))
	for key, e := range s.drafts {
		out = append(out, ports.DraftInfo{Key: key, Name: e.name, UpdatedAt: e.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
