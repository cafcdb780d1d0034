package executor

import (
	"context"
	"sync"
)

// Fake is an in-memory Executor for tests. It records dispatched calls and
// lets tests feed notifications as if an executor worker had emitted them.
type Fake struct {
	mu      sync.Mutex
	created []CreateRequest
	calls   map[string][]string

	FailCreate error
	FailCancel error
	FailRetry  error

	events chan Notification
}

func NewFake() *Fake {
	return &Fake{
		calls:  make(map[string][]string),
		events: make(chan Notification, 64),
	}
}

func (f *Fake) CreateTask(ctx context.Context, req CreateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate != nil {
		return f.FailCreate
	}
	f.created = append(f.created, req)
	f.calls["create"] = append(f.calls["create"], req.TaskID)
	return nil
}

func (f *Fake) CancelTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCancel != nil {
		return f.FailCancel
	}
	f.calls["cancel"] = append(f.calls["cancel"], taskID)
	return nil
}

func (f *Fake) RetryTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRetry != nil {
		return f.FailRetry
	}
	f.calls["retry"] = append(f.calls["retry"], taskID)
	return nil
}

func (f *Fake) DeleteTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"] = append(f.calls["delete"], taskID)
	return nil
}

// Created returns a copy of the recorded create requests.
func (f *Fake) Created() []CreateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CreateRequest, len(f.created))
	copy(out, f.created)
	return out
}

// Calls returns the task ids dispatched for the given command.
func (f *Fake) Calls(command string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls[command]))
	copy(out, f.calls[command])
	return out
}

// Emit feeds a notification into the fake's event stream.
func (f *Fake) Emit(n Notification) {
	f.events <- n
}

func (f *Fake) Events() <-chan Notification {
	return f.events
}
