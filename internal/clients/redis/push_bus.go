package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/scheduling"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// PushBus bridges the scheduler to the device-facing push relay over redis
// pub/sub. Schedule and Cancel publish commands on the outbound channel; the
// relay reports delivery outcomes back on the inbound channel, keyed by the
// handle minted here.
type PushBus interface {
	scheduling.Transport
	StartOutcomeListener(ctx context.Context, onOutcome func(handle string, outcome scheduling.Outcome)) error
	Close() error
}

type pushCommand struct {
	Op      string                  `json:"op"` // "schedule" | "cancel"
	Handle  string                  `json:"handle"`
	Payload *scheduling.PushPayload `json:"payload,omitempty"`
}

type outcomeEvent struct {
	Handle       string            `json:"handle"`
	Kind         string            `json:"kind"` // "delivered" | "failed" | "interaction"
	At           time.Time         `json:"at"`
	Transient    bool              `json:"transient,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Interaction  types.Interaction `json:"interaction,omitempty"`
}

type pushBus struct {
	log       *logger.Logger
	rdb       *goredis.Client
	commandCh string
	outcomeCh string
}

func NewPushBus(log *logger.Logger) (PushBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	commandCh := strings.TrimSpace(os.Getenv("REDIS_PUSH_CHANNEL"))
	if commandCh == "" {
		commandCh = "push.commands"
	}
	outcomeCh := strings.TrimSpace(os.Getenv("REDIS_OUTCOME_CHANNEL"))
	if outcomeCh == "" {
		outcomeCh = "push.outcomes"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &pushBus{
		log:       log.With("service", "RedisPushBus"),
		rdb:       rdb,
		commandCh: commandCh,
		outcomeCh: outcomeCh,
	}, nil
}

func (b *pushBus) Schedule(ctx context.Context, payload scheduling.PushPayload) (string, error) {
	if b == nil || b.rdb == nil {
		return "", fmt.Errorf("push bus not initialized")
	}
	handle := uuid.NewString()
	raw, err := json.Marshal(pushCommand{Op: "schedule", Handle: handle, Payload: &payload})
	if err != nil {
		return "", err
	}
	if err := b.rdb.Publish(ctx, b.commandCh, raw).Err(); err != nil {
		return "", fmt.Errorf("publish schedule command: %w", err)
	}
	return handle, nil
}

// Cancel for a handle the relay no longer knows (already fired or never
// scheduled) is a no-op on the relay side.
func (b *pushBus) Cancel(ctx context.Context, handle string) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("push bus not initialized")
	}
	raw, err := json.Marshal(pushCommand{Op: "cancel", Handle: handle})
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.commandCh, raw).Err(); err != nil {
		return fmt.Errorf("publish cancel command: %w", err)
	}
	return nil
}

func (b *pushBus) StartOutcomeListener(ctx context.Context, onOutcome func(handle string, outcome scheduling.Outcome)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("push bus not initialized")
	}
	if onOutcome == nil {
		return fmt.Errorf("onOutcome callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.outcomeCh)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev outcomeEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("Bad outcome payload", "error", err)
					continue
				}
				if ev.Handle == "" {
					continue
				}
				onOutcome(ev.Handle, scheduling.Outcome{
					Kind:         scheduling.OutcomeKind(ev.Kind),
					At:           ev.At,
					Transient:    ev.Transient,
					ErrorMessage: ev.ErrorMessage,
					Interaction:  ev.Interaction,
				})
			}
		}
	}()

	return nil
}

func (b *pushBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
