// Package realtime fans submission change events out to connected read
// views. It only refreshes views; write correctness never depends on it.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"certia/pkg/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const channel = "submission_events"

type Event struct {
	SubmissionID string        `json:"submission_id"`
	Status       domain.Status `json:"status"`
}

type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan Event]struct{}{}}
}

// Subscribe registers a listener. The returned cancel must be called when
// the consumer goes away; events are dropped for slow consumers rather
// than blocking the hub.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Listen pins a connection, subscribes to the submission_events channel and
// feeds the hub until ctx is cancelled. Runs on its own goroutine.
func (h *Hub) Listen(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		logger.Error("realtime listener acquire failed", zap.Error(err))
		return
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+channel); err != nil {
		logger.Error("realtime LISTEN failed", zap.Error(err))
		return
	}
	logger.Info("realtime listener started", zap.String("channel", channel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("realtime listener stopped", zap.Error(err))
			return
		}
		var ev Event
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			logger.Warn("realtime payload unreadable", zap.Error(err))
			continue
		}
		h.Publish(ev)
	}
}
