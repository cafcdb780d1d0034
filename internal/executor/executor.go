package executor

import (
	"context"
	"encoding/json"
	"time"
)

// CreateRequest carries everything the executor needs to perform one
// platform upload. The executor holds no authoritative task state; TaskID
// only keys its transient execution context and the notifications it emits.
type CreateRequest struct {
	TaskID       string          `json:"taskId"`
	VideoID      int64           `json:"videoId"`
	AccountID    int64           `json:"accountId"`
	Platform     string          `json:"platform"`
	Bundle       json.RawMessage `json:"bundle"`
	ScheduleTime *time.Time      `json:"scheduleTime,omitempty"`
}

// Executor is the remote boundary the task registry dispatches to. All calls
// are acceptance-only: a nil return means the work was handed off, not that
// it succeeded. Outcomes arrive later as Notifications.
type Executor interface {
	CreateTask(ctx context.Context, req CreateRequest) error
	CancelTask(ctx context.Context, taskID string) error
	RetryTask(ctx context.Context, taskID string) error
	DeleteTask(ctx context.Context, taskID string) error
}

// Notification is one inbound lifecycle event from the executor. Delivery is
// push-based with no ordering or dedup guarantees; the reconciler owns both.
type Notification interface {
	notification()
}

type Progress struct {
	TaskID   string `json:"taskId"`
	Platform string `json:"platform"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

type Complete struct {
	TaskID      string `json:"taskId"`
	Platform    string `json:"platform"`
	PublishURL  string `json:"publishUrl"`
	CompletedAt string `json:"completedAt"`
}

type Error struct {
	TaskID   string `json:"taskId"`
	Platform string `json:"platform"`
	Error    string `json:"error"`
	CanRetry bool   `json:"canRetry"`
}

func (Progress) notification() {}
func (Complete) notification() {}
func (Error) notification()    {}
