package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/ctxlog"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/events"
)

type NATSBus struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	prefix string
}

// Verifica interface
var _ events.Bus = (*NATSBus)(nil)

type Config struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	// SubjectPrefix é prefixado em todos os subjects ("atlas" -> "atlas.run.status")
	SubjectPrefix string
}

func New(cfg Config) (*NATSBus, error) {
	if cfg.Name == "" {
		cfg.Name = "atlas-workflows"
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Name(cfg.Name),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connection failed: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream init failed: %w", err)
	}

	return &NATSBus{
		conn:   conn,
		js:     js,
		prefix: strings.Trim(cfg.SubjectPrefix, "."),
	}, nil
}

// Subject aplica o prefixo configurado
func (n *NATSBus) Subject(subject string) string {
	if n.prefix == "" {
		return subject
	}
	return n.prefix + "." + subject
}

// CreateStream cria stream se não existir
func (n *NATSBus) CreateStream(cfg events.StreamConfig) error {
	storage := nats.FileStorage
	if cfg.InMemory {
		storage = nats.MemoryStorage
	}

	subjects := make([]string, len(cfg.Subjects))
	for i, s := range cfg.Subjects {
		subjects[i] = n.Subject(s)
	}

	_, err := n.js.AddStream(&nats.StreamConfig{
		Name:      cfg.Name,
		Subjects:  subjects,
		Retention: nats.LimitsPolicy,
		MaxMsgs:   cfg.MaxMsgs,
		MaxAge:    cfg.MaxAge,
		Storage:   storage,
	})
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil // Já existe, ok
	}
	return err
}

// SetupWorkflowStreams cria os streams de workflows e runs
func (n *NATSBus) SetupWorkflowStreams() error {
	for _, cfg := range []events.StreamConfig{events.WorkflowsStream, events.RunsStream} {
		if err := n.CreateStream(cfg); err != nil {
			return fmt.Errorf("stream %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// Publish envia mensagem bruta
func (n *NATSBus) Publish(ctx context.Context, subject string, payload []byte) error {
	_, err := n.js.Publish(n.Subject(subject), payload, nats.Context(ctx))
	return err
}

// PublishEvent serializa e envia
func (n *NATSBus) PublishEvent(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.Publish(ctx, subject, data)
}

// Subscribe registra handler push com ack manual
func (n *NATSBus) Subscribe(subject, durable string, handler events.Handler) (events.Subscription, error) {
	full := n.Subject(subject)
	if durable == "" {
		durable = durableFromSubject(full)
	}

	callback := func(msg *nats.Msg) {
		wrapped := &natsMessage{msg: msg}
		ctx := context.Background()

		if err := handler(ctx, wrapped); err != nil {
			// Handler errou, não deu ack = redelivery automático
			ctxlog.FromContext(ctx).Warn("event handler failed", "subject", msg.Subject, "error", err)
		}
	}

	sub, err := n.js.Subscribe(full, callback, nats.Durable(durable), nats.ManualAck())
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", full, err)
	}
	return &natsSubscription{sub: sub}, nil
}

func durableFromSubject(subject string) string {
	var b strings.Builder
	b.Grow(len(subject))
	for _, r := range subject {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Close drena e encerra a conexão
func (n *NATSBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// --- Implementações internas ---

type natsMessage struct {
	msg *nats.Msg
}

func (m *natsMessage) Data() []byte    { return m.msg.Data }
func (m *natsMessage) Subject() string { return m.msg.Subject }
func (m *natsMessage) Ack() error      { return m.msg.Ack() }

func (m *natsMessage) Nak(delay time.Duration) error {
	if delay > 0 {
		return m.msg.NakWithDelay(delay)
	}
	return m.msg.Nak()
}

func (m *natsMessage) Deliveries() int {
	meta, err := m.msg.Metadata()
	if err != nil {
		return 1
	}
	return int(meta.NumDelivered)
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
