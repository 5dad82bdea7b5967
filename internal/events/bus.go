// Package events define o barramento dos eventos de workflow e run.
package events

import (
	"context"
	"time"
)

// Bus abstração de fila de eventos
type Bus interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	PublishEvent(ctx context.Context, subject string, event any) error

	// Subscribe registra consumer durável; durable vazio deriva do subject
	Subscribe(subject, durable string, handler Handler) (Subscription, error)

	// CreateStream é idempotente
	CreateStream(cfg StreamConfig) error

	Close() error
}

// Handler processa mensagens; retornar erro sem Ack/Nak = redelivery após o AckWait
type Handler func(ctx context.Context, msg Message) error

type Message interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak(delay time.Duration) error
	// Deliveries conta as entregas desta mensagem (1 na primeira)
	Deliveries() int
}

type Subscription interface {
	Unsubscribe() error
}

// StreamConfig: retenção sempre por limites, os streams são histórico
type StreamConfig struct {
	Name     string
	Subjects []string
	MaxMsgs  int64
	MaxAge   time.Duration
	InMemory bool
}

var (
	// WorkflowsStream guarda saves e deletes para o dashboard
	WorkflowsStream = StreamConfig{
		Name:     "ATLAS_WORKFLOWS",
		Subjects: []string{"workflow.>"},
		MaxMsgs:  100000,
		MaxAge:   7 * 24 * time.Hour,
	}
	// RunsStream guarda runs submetidos e mudanças de status
	RunsStream = StreamConfig{
		Name:     "ATLAS_RUNS",
		Subjects: []string{"run.>"},
		MaxMsgs:  100000,
		MaxAge:   24 * time.Hour,
	}
)

// MaxDeliveries: depois disso a mensagem é descartada com Ack
const MaxDeliveries = 5

// RetryDelay dobra a cada entrega: 1s, 2s, 4s... até 30s
func RetryDelay(deliveries int) time.Duration {
	if deliveries < 1 {
		deliveries = 1
	}
	d := time.Second << (deliveries - 1)
	if d <= 0 || d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}
