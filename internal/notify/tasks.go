package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/events"
)

// TypeEmailDelivery is the asynq task type carrying an event to email.
const TypeEmailDelivery = "email:deliver"

// Enqueuer is the part of *asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskNotifier defers email delivery to the worker by enqueuing the event as
// an asynq task. Enqueuing the same event twice is a no-op.
type TaskNotifier struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
	Timeout  time.Duration
	// Topics limits which events are enqueued; empty means all.
	Topics []string
}

// Notify implements events.Notifier.
func (n TaskNotifier) Notify(ctx context.Context, event events.Event) error {
	if n.Client == nil || !n.wants(event.Topic) {
		return nil
	}
	task, err := NewEmailTask(event)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(event.ID)}
	if n.Queue != "" {
		opts = append(opts, asynq.Queue(n.Queue))
	}
	if n.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(n.MaxRetry))
	}
	if n.Timeout > 0 {
		opts = append(opts, asynq.Timeout(n.Timeout))
	}
	if _, err := n.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", TypeEmailDelivery, err)
	}
	return nil
}

func (n TaskNotifier) wants(topic string) bool {
	if len(n.Topics) == 0 {
		return true
	}
	for _, t := range n.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// NewEmailTask wraps event in an email delivery task.
func NewEmailTask(event events.Event) (*asynq.Task, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, body), nil
}

// EmailTaskHandler delivers email tasks in the worker.
type EmailTaskHandler struct {
	Notifier events.Notifier
	Logger   zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h EmailTaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var event events.Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		// A payload that cannot decode will never succeed.
		return fmt.Errorf("decode email task: %v: %w", err, asynq.SkipRetry)
	}
	if err := h.Notifier.Notify(ctx, event); err != nil {
		h.Logger.Warn().Err(err).Str("event_id", event.ID).Str("topic", event.Topic).Msg("email delivery failed")
		return err
	}
	h.Logger.Info().Str("event_id", event.ID).Str("topic", event.Topic).Msg("email delivered")
	return nil
}

// Register mounts the email handler on mux.
func (h EmailTaskHandler) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeEmailDelivery, h)
}
