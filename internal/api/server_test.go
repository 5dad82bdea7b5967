package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/agents"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/api/dto"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/service"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/store/memory"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/templates"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

type stubBackend struct {
	mu      sync.Mutex
	calls   int
	created []types.Graph
	updated []string
	deleted []string
}

func (b *stubBackend) List(ctx context.Context) ([]types.WorkflowSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return []types.WorkflowSummary{{ID: "wf-1", Name: "Existing"}}, nil
}

func (b *stubBackend) Create(ctx context.Context, doc types.Graph) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.created = append(b.created, doc)
	return "wf-remote", nil
}

func (b *stubBackend) Update(ctx context.Context, id string, doc types.Graph) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.updated = append(b.updated, id)
	return nil
}

func (b *stubBackend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *stubBackend) Submit(ctx context.Context, workflowID string) (types.RunHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return types.RunHandle{RunID: "run-9", Status: types.RunQueued}, nil
}

func (b *stubBackend) Poll(ctx context.Context, runID string) (types.RunState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return types.RunState{RunID: runID, Status: types.RunCompleted}, nil
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func newTestServer(t *testing.T) (*Server, *stubBackend) {
	t.Helper()

	roster := agents.NewRegistry()
	agents.RegisterBuiltins(roster)
	registry := domain.NewRegistry(roster)
	editor := domain.NewEditor(registry)
	lib, err := templates.New(editor)
	require.NoError(t, err)

	backend := &stubBackend{}
	manager := service.NewManager(service.Deps{
		Editor:    editor,
		Validator: domain.NewValidator(registry),
		Backend:   backend,
		Drafts:    memory.New(),
	}, lib)
	return NewServer(manager, roster, Options{}), backend
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func openBlank(t *testing.T, s *Server) dto.SessionResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{Name: "Blank"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.SessionResponse](t, w)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[dto.HealthResponse](t, w).Status)
}

func TestCatalogEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/node-types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), len(domain.AllNodeTypes))

	w = do(t, s, http.MethodGet, "/api/v1/action-templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "send_email")

	w = do(t, s, http.MethodGet, "/api/v1/agents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "research-agent")

	w = do(t, s, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.TemplateSummary](t, w), 3)

	w = do(t, s, http.MethodGet, "/api/v1/templates/daily-research", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "daily-research", decode[types.Graph](t, w).ID)

	w = do(t, s, http.MethodGet, "/api/v1/templates/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSession_EditFlow(t *testing.T) {
	s, _ := newTestServer(t)
	sess := openBlank(t, s)
	base := "/api/v1/sessions/" + sess.SessionID

	require.Len(t, sess.Graph.Nodes, 2)
	trig, end := sess.Graph.Nodes[0].ID, sess.Graph.Nodes[1].ID

	w := do(t, s, http.MethodPost, base+"/nodes", dto.CreateNodeRequest{Type: "agent", Position: domain.Position{X: 300, Y: 200}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.CreateNodeResponse](t, w)
	agent := created.NodeID
	assert.Len(t, created.Session.Graph.Nodes, 3)

	w = do(t, s, http.MethodPatch, base+"/nodes/"+agent, map[string]any{
		"config": map[string]any{"agentId": "research-agent", "task": "Find news"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, edge := range []dto.ConnectRequest{{Source: trig, Target: agent}, {Source: agent, Target: end}} {
		w = do(t, s, http.MethodPost, base+"/connections", edge)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, base+"/validate?mode=runnable", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[dto.ValidationResponse](t, w)
	assert.True(t, v.Valid, "%v", v.Diagnostics)
	assert.Equal(t, "runnable", v.Mode)

	t.Run("self loop", func(t *testing.T) {
		w := do(t, s, http.MethodPost, base+"/connections", dto.ConnectRequest{Source: agent, Target: agent})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SELF_LOOP", decode[dto.ErrorResponse](t, w).Code)
	})

	t.Run("unknown node", func(t *testing.T) {
		w := do(t, s, http.MethodDelete, base+"/nodes/ghost", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		w := do(t, s, http.MethodPost, base+"/nodes", dto.CreateNodeRequest{Type: "loop"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("position is not undoable", func(t *testing.T) {
		w := do(t, s, http.MethodPut, base+"/nodes/"+agent+"/position", dto.SetPositionRequest{X: 1, Y: 2})
		require.Equal(t, http.StatusOK, w.Code)

		w = do(t, s, http.MethodPost, base+"/undo", nil)
		require.Equal(t, http.StatusOK, w.Code)
		st := decode[dto.SessionResponse](t, w)
		for _, n := range st.Graph.Nodes {
			if n.ID == agent {
				assert.Equal(t, types.Position{X: 1, Y: 2}, n.Position)
				assert.Empty(t, n.Connections, "undo reverted the last connect")
			}
		}
		assert.True(t, st.CanRedo)

		w = do(t, s, http.MethodPost, base+"/redo", nil)
		require.Equal(t, http.StatusOK, w.Code)
		w = do(t, s, http.MethodPost, base+"/redo", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad mode", func(t *testing.T) {
		w := do(t, s, http.MethodGet, base+"/validate?mode=strict", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSession_RunRejectedWithoutNetwork(t *testing.T) {
	s, backend := newTestServer(t)
	sess := openBlank(t, s)

	w := do(t, s, http.MethodPost, "/api/v1/sessions/"+sess.SessionID+"/run", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decode[dto.RunRejectedResponse](t, w)
	assert.Equal(t, "RUN_REJECTED", resp.Code)
	assert.NotEmpty(t, resp.Diagnostics)
	assert.Zero(t, backend.callCount())
}

func TestSession_TemplateSaveRunAndStatus(t *testing.T) {
	s, backend := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{TemplateID: "daily-research"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[dto.SessionResponse](t, w)
	base := "/api/v1/sessions/" + sess.SessionID

	w = do(t, s, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "wf-remote", decode[dto.SaveResponse](t, w).WorkflowID)

	w = do(t, s, http.MethodPost, base+"/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "run-9", decode[types.RunHandle](t, w).RunID)

	w = do(t, s, http.MethodGet, base+"/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.RunCompleted, decode[types.RunState](t, w).Status)

	w = do(t, s, http.MethodGet, base+"/run/watch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"completed"`)

	w = do(t, s, http.MethodDelete, base+"/workflow", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"wf-remote"}, backend.deleted)
}

func TestSession_DraftsAndSources(t *testing.T) {
	s, _ := newTestServer(t)
	sess := openBlank(t, s)

	w := do(t, s, http.MethodPost, "/api/v1/sessions/"+sess.SessionID+"/draft", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	drafts := decode[[]map[string]any](t, w)
	require.Len(t, drafts, 1)
	key := drafts[0]["key"].(string)

	w = do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{DraftKey: key})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	restored := decode[dto.SessionResponse](t, w)
	assert.Equal(t, sess.Graph.ID, restored.Graph.ID)

	w = do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{DraftKey: key, TemplateID: "daily-research"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodDelete, "/api/v1/drafts/"+key, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{DraftKey: key})
	assert.Equal(t, http.StatusNotFound, w.Code)

	doc := types.Graph{Name: "Imported", Nodes: []types.Node{{ID: "a", Type: "sprocket"}}}
	w = do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{Document: &doc})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSession_BackendDocumentSavesInPlace(t *testing.T) {
	s, backend := newTestServer(t)
	doc := types.Graph{
		ID:   "wf-1",
		Name: "Existing",
		Nodes: []types.Node{
			{ID: "t", Type: "trigger", Connections: []string{"e"}},
			{ID: "e", Type: "end"},
		},
	}

	w := do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{Document: &doc, Remote: true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decode[dto.SessionResponse](t, w)
	assert.Equal(t, "wf-1", sess.RemoteID)

	w = do(t, s, http.MethodPost, "/api/v1/sessions/"+sess.SessionID+"/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "wf-1", decode[dto.SaveResponse](t, w).WorkflowID)
	assert.Equal(t, []string{"wf-1"}, backend.updated)
	assert.Empty(t, backend.created)

	doc.ID = ""
	w = do(t, s, http.MethodPost, "/api/v1/sessions", dto.OpenSessionRequest{Document: &doc, Remote: true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s, backend := newTestServer(t)
	sess := openBlank(t, s)

	w := do(t, s, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{sess.SessionID}, decode[map[string][]string](t, w)["sessions"])

	w = do(t, s, http.MethodDelete, "/api/v1/sessions/"+sess.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/sessions/"+sess.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/workflows", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]types.WorkflowSummary](t, w), 1)

	w = do(t, s, http.MethodDelete, "/api/v1/workflows/wf-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"wf-1"}, backend.deleted)
}
