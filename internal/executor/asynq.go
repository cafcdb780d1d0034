package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crosspost/pkg/config"
	"crosspost/pkg/errutil"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Asynq task types consumed by the executor workers.
const (
	TypePublishVideo  = "publish:video"
	TypePublishCancel = "publish:cancel"
	TypePublishRetry  = "publish:retry"
	TypePublishDelete = "publish:delete"
)

// EventsChannel is the redis pub/sub channel executor workers publish
// lifecycle events on.
const EventsChannel = "crosspost:events"

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type taskRef struct {
	TaskID string `json:"taskId"`
}

// Dispatcher is the asynq-backed Executor. Commands are enqueued on the
// configured queue; inbound notifications are consumed from the redis
// pub/sub events channel and fanned into Events().
type Dispatcher struct {
	client  *asynq.Client
	rdb     *redis.Client
	queue   string
	timeout time.Duration
	logger  *zap.Logger
	events  chan Notification
}

type DispatcherParams struct {
	fx.In
	Client *asynq.Client
	Redis  *redis.Client
	Config *config.Config
	Logger *zap.Logger `optional:"true"`
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client:  p.Client,
		rdb:     p.Redis,
		queue:   p.Config.Executor.Queue,
		timeout: p.Config.Executor.DispatchTimeout,
		logger:  logger,
		events:  make(chan Notification, 256),
	}
}

// Events is the inbound notification stream. Closed when Run exits.
func (d *Dispatcher) Events() <-chan Notification {
	return d.events
}

func (d *Dispatcher) CreateTask(ctx context.Context, req CreateRequest) error {
	return d.enqueue(ctx, TypePublishVideo, req)
}

func (d *Dispatcher) CancelTask(ctx context.Context, taskID string) error {
	return d.enqueue(ctx, TypePublishCancel, taskRef{TaskID: taskID})
}

func (d *Dispatcher) RetryTask(ctx context.Context, taskID string) error {
	return d.enqueue(ctx, TypePublishRetry, taskRef{TaskID: taskID})
}

func (d *Dispatcher) DeleteTask(ctx context.Context, taskID string) error {
	return d.enqueue(ctx, TypePublishDelete, taskRef{TaskID: taskID})
}

func (d *Dispatcher) enqueue(ctx context.Context, taskType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errutil.Internal(fmt.Sprintf("marshal %s payload", taskType), errutil.WithErr(err))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	task := asynq.NewTask(taskType, raw)
	info, err := d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue))
	if err != nil {
		return errutil.BadGateway("executor unavailable", errutil.WithErr(err))
	}

	d.logger.Debug("enqueued executor task",
		zap.String("task_type", taskType),
		zap.String("queue", info.Queue),
		zap.String("id", info.ID),
	)
	return nil
}

// Run consumes the redis events channel until ctx is cancelled, decoding
// worker notifications into the Events stream. Malformed payloads are logged
// and dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.events)

	sub := d.rdb.Subscribe(ctx, EventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n, err := decodeNotification([]byte(msg.Payload))
			if err != nil {
				d.logger.Warn("dropping malformed executor event", zap.Error(err))
				continue
			}
			select {
			case d.events <- n:
			case <-ctx.Done():
				return
			}
		}
	}
}

func decodeNotification(raw []byte) (Notification, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case "progress":
		var n Progress
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return nil, fmt.Errorf("decode progress: %w", err)
		}
		return n, nil
	case "complete":
		var n Complete
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return nil, fmt.Errorf("decode complete: %w", err)
		}
		return n, nil
	case "error":
		var n Error
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}
