package service

import (
	"context"
	"time"

	"github.com/bbwhited04-lgtm/ATLASUX-sub000/internal/core/ports"
	"github.com/bbwhited04-lgtm/ATLASUX-sub000/pkg/types"
)

const DefaultPollInterval = 2 * time.Second

// RunUpdate é uma leitura do status; Err preenchido quando o poll falhou
type RunUpdate struct {
	State types.RunState
	Err   error
}

// PollRun consulta o run imediatamente e depois a cada interval.
// O canal fecha em status terminal ou quando ctx é cancelado.
// Falha de poll vira update com Err; a próxima tentativa é só no próximo tick.
func PollRun(ctx context.Context, client ports.ExecutionClient, runID string, interval time.Duration) <-chan RunUpdate {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	out := make(chan RunUpdate)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			state, err := client.Poll(ctx, runID)
			if ctx.Err() != nil {
				return
			}

			update := RunUpdate{State: state, Err: err}
			if err == nil && state.RunID == "" {
				update.State.RunID = runID
			}

			select {
			case out <- update:
			case <-ctx.Done():
				return
			}

			if err == nil && state.Status.Terminal() {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
