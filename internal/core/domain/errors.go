package domain

import (
	"errors"
	"fmt"
)

// Sentinels para errors.Is; cada erro tipado abaixo faz Unwrap para um deles.
var (
	ErrNotFound      = errors.New("node not found")
	ErrSelfLoop      = errors.New("self-loop not allowed")
	ErrReference     = errors.New("dangling reference")
	ErrConfiguration = errors.New("invalid configuration")
	ErrSerialization = errors.New("malformed wire document")
	ErrNetwork       = errors.New("backend request failed")
	ErrStructure     = errors.New("invalid workflow structure")
)

// NotFoundError: a operação referenciou um nó ausente do grafo
type NotFoundError struct {
	NodeID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.NodeID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// SelfLoopError: tentativa de conectar um nó a ele mesmo
type SelfLoopError struct {
	NodeID string
}

func (e *SelfLoopError) Error() string {
	return fmt.Sprintf("node %s cannot connect to itself", e.NodeID)
}

func (e *SelfLoopError) Unwrap() error { return ErrSelfLoop }

// ReferenceError: conexão aponta para um nó inexistente
type ReferenceError struct {
	SourceID string
	TargetID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("node %s connects to missing node %s", e.SourceID, e.TargetID)
}

func (e *ReferenceError) Unwrap() error { return ErrReference }

// ConfigurationError: config viola o schema do tipo, ou tag de tipo desconhecida.
// NodeID vazio quando o erro não pertence a um nó (ex.: tag inválida num lookup).
type ConfigurationError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.NodeID != "" && e.Field != "":
		return fmt.Sprintf("node %s: config field %q: %s", e.NodeID, e.Field, e.Reason)
	case e.NodeID != "":
		return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("config field %q: %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// SerializationError: documento wire malformado além de simples ausência de campo
type SerializationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "serialization: " + msg
}

func (e *SerializationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSerialization}
	}
	return []error{ErrSerialization, e.Err}
}

// StructureError: falha estrutural detectada pelo Validator (alcançabilidade, ciclo, ids)
type StructureError struct {
	Rule    Rule
	NodeIDs []string
	Message string
}

func (e *StructureError) Error() string { return e.Message }

func (e *StructureError) Unwrap() error { return ErrStructure }

// NetworkError: chamada ao backend falhou ou voltou status não-2xx
type NetworkError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// RunRejectedError: o grafo não passou na validação Runnable, nada foi enviado
type RunRejectedError struct {
	Diagnostics Diagnostics
}

func (e *RunRejectedError) Error() string {
	errs := e.Diagnostics.Errors()
	if len(errs) == 0 {
		return "run rejected"
	}
	if len(errs) == 1 {
		return "run rejected: " + errs[0].Err().Error()
	}
	return fmt.Sprintf("run rejected: %v (and %d more)", errs[0].Err(), len(errs)-1)
}

// Unwrap expõe o erro tipado de cada diagnóstico bloqueante, então
// errors.As(err, &cfgErr) encontra o nó culpado.
func (e *RunRejectedError) Unwrap() []error {
	errs := e.Diagnostics.Errors()
	out := make([]error, 0, len(errs))
	for _, d := range errs {
		out = append(out, d.Err())
	}
	return out
}
