// Package templates expõe o catálogo fixo de workflows prontos.
package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/domain"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/wire"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

//go:embed catalog/*.json
var catalogFS embed.FS

var ErrTemplateNotFound = errors.New("template not found")

// Template é somente leitura; Instantiate devolve a cópia editável
type Template struct {
	ID          string
	Name        string
	Description string
	Category    string
	Graph       domain.Graph
}

type templateFile struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Graph       types.Graph `json:"graph"`
}

type Library struct {
	editor    *domain.Editor
	templates []Template
}

// New carrega o catálogo embutido
func New(editor *domain.Editor) (*Library, error) {
	files, err := fs.Glob(catalogFS, "catalog/*.json")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	sort.Strings(files)

	lib := &Library{editor: editor}
	for _, name := range files {
		raw, err := catalogFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", path.Base(name), err)
		}
		t, err := parse(raw)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", path.Base(name), err)
		}
		lib.templates = append(lib.templates, t)
	}
	return lib, nil
}

func parse(raw []byte) (Template, error) {
	var f templateFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return Template{}, &domain.SerializationError{Reason: "decode template", Err: err}
	}
	g, err := wire.FromWire(f.Graph)
	if err != nil {
		return Template{}, err
	}
	return Template{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
		Graph:       g,
	}, nil
}

// List em ordem de id
func (l *Library) List() []Template {
	out := make([]Template, len(l.templates))
	copy(out, l.templates)
	return out
}

func (l *Library) Get(id string) (Template, error) {
	for _, t := range l.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}

// Instantiate copia o template com ids novos de grafo e nós;
// as conexões são reapontadas para os ids novos.
func (l *Library) Instantiate(id string) (domain.Graph, error) {
	t, err := l.Get(id)
	if err != nil {
		return domain.Graph{}, err
	}
	return l.editor.Reidentify(t.Graph), nil
}
