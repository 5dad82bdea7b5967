package types

// Graph é o documento trocado com o backend (POST/PUT /workflows)
type Graph struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Nodes       []Node         `json:"nodes"`
	Triggers    []Trigger      `json:"triggers"`
	Variables   map[string]any `json:"variables"`
}

// Node é um passo do grafo no formato wire
type Node struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	Position    Position       `json:"position"`
	Connections []string       `json:"connections"`
	Status      string         `json:"status"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trigger declara como o grafo é invocado externamente
type Trigger struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

// Draft é o payload gravado no DraftStore. RemoteID guarda o id do
// workflow no backend quando o grafo já foi salvo lá.
type Draft struct {
	RemoteID string `json:"remote_id,omitempty"`
	Graph    Graph  `json:"graph"`
}
