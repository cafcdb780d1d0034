package publish

import (
	"context"

	"crosspost/internal/executor"

	"go.uber.org/zap"
)

// Reconciler folds asynchronous executor notifications into the task
// registry. Delivery is unordered and at-least-once; every rule here exists
// so that stale, duplicate, or contradictory events can never regress a
// task's visible state.
type Reconciler struct {
	svc    *Service
	logger *zap.Logger
}

func NewReconciler(svc *Service) *Reconciler {
	return &Reconciler{svc: svc, logger: svc.logger}
}

// Run consumes notifications until the channel closes or ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, events <-chan executor.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			r.Apply(n)
		}
	}
}

// Apply dispatches one notification. Unknown task ids are dropped and
// logged, never surfaced as errors: the task may have been deleted or belong
// to a prior session.
func (r *Reconciler) Apply(n executor.Notification) {
	switch e := n.(type) {
	case executor.Progress:
		r.applyProgress(e)
	case executor.Complete:
		r.applyComplete(e)
	case executor.Error:
		r.applyError(e)
	}
}

func (r *Reconciler) applyProgress(e executor.Progress) {
	mu := r.svc.lock(e.TaskID)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := r.svc.db.First(&task, "id = ?", e.TaskID).Error; err != nil {
		r.logger.Debug("dropping progress event for unknown task", zap.String("task_id", e.TaskID))
		return
	}

	if task.Status.Terminal() {
		return
	}

	old := task.Status
	if task.Status == StatusPending {
		// a progress report means the upload has implicitly started
		task.Status = StatusUploading
	}

	// progress is a percentage; misbehaving workers do not get to widen it
	reported := e.Progress
	if reported > 100 {
		reported = 100
	}

	// monotonicity is enforced at application time, not assumed from
	// delivery order
	if reported > task.Progress {
		task.Progress = reported
	} else if task.Status == old {
		return
	}

	if err := r.svc.db.Save(&task).Error; err != nil {
		r.logger.Error("failed to apply progress event", zap.String("task_id", e.TaskID), zap.Error(err))
		return
	}

	r.svc.bus.Publish(Update{
		TaskID:    task.ID,
		Platform:  task.Platform,
		OldStatus: old,
		NewStatus: task.Status,
		Progress:  task.Progress,
		Message:   e.Message,
	})
}

func (r *Reconciler) applyComplete(e executor.Complete) {
	mu := r.svc.lock(e.TaskID)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := r.svc.db.First(&task, "id = ?", e.TaskID).Error; err != nil {
		r.logger.Debug("dropping complete event for unknown task", zap.String("task_id", e.TaskID))
		return
	}

	if task.Status.Terminal() {
		// duplicate or late delivery; first terminal write wins
		r.logger.Debug("dropping complete event for terminal task",
			zap.String("task_id", e.TaskID),
			zap.String("status", task.Status.String()),
		)
		return
	}

	old := task.Status
	task.Status = StatusSuccess
	task.Progress = 100
	task.PublishURL = e.PublishURL
	if err := r.svc.db.Save(&task).Error; err != nil {
		r.logger.Error("failed to apply complete event", zap.String("task_id", e.TaskID), zap.Error(err))
		return
	}

	r.svc.bus.Publish(Update{
		TaskID:    task.ID,
		Platform:  task.Platform,
		OldStatus: old,
		NewStatus: StatusSuccess,
		Progress:  100,
	})
}

func (r *Reconciler) applyError(e executor.Error) {
	mu := r.svc.lock(e.TaskID)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := r.svc.db.First(&task, "id = ?", e.TaskID).Error; err != nil {
		r.logger.Debug("dropping error event for unknown task", zap.String("task_id", e.TaskID))
		return
	}

	if task.Status.Terminal() {
		r.logger.Debug("dropping error event for terminal task",
			zap.String("task_id", e.TaskID),
			zap.String("status", task.Status.String()),
		)
		return
	}

	old := task.Status
	canRetry := e.CanRetry
	task.Status = StatusFailed
	task.ErrorMsg = e.Error
	task.CanRetry = &canRetry
	if err := r.svc.db.Save(&task).Error; err != nil {
		r.logger.Error("failed to apply error event", zap.String("task_id", e.TaskID), zap.Error(err))
		return
	}

	r.svc.bus.Publish(Update{
		TaskID:    task.ID,
		Platform:  task.Platform,
		OldStatus: old,
		NewStatus: StatusFailed,
		Progress:  task.Progress,
		Message:   e.Error,
	})
}
