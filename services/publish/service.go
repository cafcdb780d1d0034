package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"crosspost/internal/executor"
	"crosspost/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const lockStripes = 64

// Service is the task registry: the single source of truth for publish
// tasks. Mutations for one task are serialized through a per-id lock stripe;
// distinct tasks mutate concurrently.
type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	exec   executor.Executor
	bus    *Bus
	limits *Limiter
	logger *zap.Logger

	locks [lockStripes]sync.Mutex
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Executor executor.Executor
	Bus      *Bus
	Limiter  *Limiter    `optional:"true"`
	Logger   *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     p.DB,
		node:   p.Node,
		exec:   p.Executor,
		bus:    p.Bus,
		limits: p.Limiter,
		logger: logger,
	}
}

// admit checks the platform's creation budget: one bucket token plus the
// daily and hourly caps on already-successful publishes.
func (s *Service) admit(ctx context.Context, platform string) error {
	if s.limits == nil {
		return nil
	}

	if !s.limits.Allow(platform) {
		return errutil.TooManyRequests(fmt.Sprintf("platform %s rate limit exceeded, try again later", platform))
	}

	if _, ok := s.limits.GetLimit(platform); !ok {
		return nil
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	hourStart := now.Truncate(time.Hour)

	var daily, hourly int64
	if err := s.db.WithContext(ctx).Model(&Task{}).
		Where("platform = ? AND status = ? AND created_at >= ?", platform, StatusSuccess, dayStart).
		Count(&daily).Error; err != nil {
		return errutil.Internal("count daily publishes", errutil.WithErr(err))
	}
	if err := s.db.WithContext(ctx).Model(&Task{}).
		Where("platform = ? AND status = ? AND created_at >= ?", platform, StatusSuccess, hourStart).
		Count(&hourly).Error; err != nil {
		return errutil.Internal("count hourly publishes", errutil.WithErr(err))
	}

	return s.limits.CheckBudget(platform, int(daily), int(hourly))
}

func (s *Service) Bus() *Bus { return s.bus }

func (s *Service) lock(taskID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(taskID))
	return &s.locks[h.Sum32()%lockStripes]
}

// Create persists one pending task per spec, dispatches the executor create
// calls concurrently, and returns the records. A dispatch failure rolls the
// affected task to failed with a descriptive error; the other tasks are
// unaffected. Only the enqueue acceptance is awaited, never execution.
func (s *Service) Create(ctx context.Context, specs []Spec) ([]Task, error) {
	if len(specs) == 0 {
		return nil, errutil.BadRequest("no tasks to create")
	}

	// rate-limited platforms are skipped, the rest proceed; the caller only
	// gets an error when nothing was admitted
	var denied error
	tasks := make([]Task, 0, len(specs))
	for _, spec := range specs {
		if err := s.admit(ctx, spec.Platform); err != nil {
			s.logger.Warn("skipping rate-limited platform",
				zap.String("platform", spec.Platform),
				zap.Int64("account_id", spec.AccountID),
				zap.Error(err),
			)
			denied = err
			continue
		}

		raw, err := json.Marshal(spec.Bundle)
		if err != nil {
			return nil, errutil.Internal(fmt.Sprintf("marshal field bundle for platform %s", spec.Platform), errutil.WithErr(err))
		}
		tasks = append(tasks, Task{
			ID:           s.node.Generate().String(),
			VideoID:      spec.VideoID,
			AccountID:    spec.AccountID,
			Platform:     spec.Platform,
			Status:       StatusPending,
			ScheduleTime: spec.ScheduleTime,
			Bundle:       raw,
		})
	}

	if len(tasks) == 0 {
		return nil, denied
	}

	if err := s.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, errutil.Internal("create tasks", errutil.WithErr(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range tasks {
		task := tasks[i]
		g.Go(func() error {
			err := s.exec.CreateTask(gctx, executor.CreateRequest{
				TaskID:       task.ID,
				VideoID:      task.VideoID,
				AccountID:    task.AccountID,
				Platform:     task.Platform,
				Bundle:       json.RawMessage(task.Bundle),
				ScheduleTime: task.ScheduleTime,
			})
			if err != nil {
				s.logger.Error("failed to dispatch task to executor",
					zap.String("task_id", task.ID),
					zap.String("platform", task.Platform),
					zap.Error(err),
				)
				s.markDispatchFailed(task.ID, fmt.Sprintf("failed to start upload: %v", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	// reload so callers see dispatch failures reflected
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	var out []Task
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return tasks, nil
	}
	byID := make(map[string]Task, len(out))
	for _, t := range out {
		byID[t.ID] = t
	}
	for i, t := range tasks {
		if fresh, ok := byID[t.ID]; ok {
			tasks[i] = fresh
		}
	}

	return tasks, nil
}

// markDispatchFailed rolls a just-created task to failed so no pending task
// lingers without a corresponding remote execution.
func (s *Service) markDispatchFailed(taskID, msg string) {
	mu := s.lock(taskID)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		return
	}
	if task.Status.Terminal() {
		return
	}

	old := task.Status
	task.Status = StatusFailed
	task.ErrorMsg = msg
	if err := s.db.Save(&task).Error; err != nil {
		s.logger.Error("failed to mark task dispatch failure", zap.String("task_id", taskID), zap.Error(err))
		return
	}

	s.bus.Publish(Update{TaskID: task.ID, Platform: task.Platform, OldStatus: old, NewStatus: StatusFailed, Message: msg})
}

// Get returns one task by id.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("task not found")
		}
		return nil, errutil.Internal("query task", errutil.WithErr(err))
	}
	return &task, nil
}

// List returns tasks, optionally filtered by status, newest first.
func (s *Service) List(ctx context.Context, status Status) ([]Task, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		if status.String() == "" {
			return nil, errutil.BadRequest(fmt.Sprintf("unknown status %q", status))
		}
		query = query.Where("status = ?", status)
	}

	var tasks []Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, errutil.Internal("query tasks", errutil.WithErr(err))
	}
	return tasks, nil
}

// Cancel optimistically cancels a pending or uploading task. The remote
// cancel is fire-and-forget; the client-visible state is final even if the
// executor keeps running and later reports an outcome (those late events are
// dropped by the reconciler).
func (s *Service) Cancel(ctx context.Context, id string) (*Task, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("task not found")
		}
		return nil, errutil.Internal("query task", errutil.WithErr(err))
	}

	if !allowedTransition(task.Status, StatusCancelled) {
		return nil, errutil.UnprocessableEntity(fmt.Sprintf("task in status %s cannot be cancelled", task.Status))
	}

	old := task.Status
	task.Status = StatusCancelled
	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return nil, errutil.Internal("cancel task", errutil.WithErr(err))
	}

	go func() {
		if err := s.exec.CancelTask(context.Background(), id); err != nil {
			// cancellation is not revocable client-side; log and move on
			s.logger.Warn("remote cancel failed", zap.String("task_id", id), zap.Error(err))
		}
	}()

	s.bus.Publish(Update{TaskID: task.ID, Platform: task.Platform, OldStatus: old, NewStatus: StatusCancelled})
	return &task, nil
}

// Retry moves a failed task back to pending, clears its error, bumps the
// retry counter and dispatches a remote retry. retryCount never resets.
func (s *Service) Retry(ctx context.Context, id string) (*Task, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("task not found")
		}
		return nil, errutil.Internal("query task", errutil.WithErr(err))
	}

	if task.Status != StatusFailed {
		return nil, errutil.UnprocessableEntity("only failed tasks can be retried")
	}

	task.Status = StatusPending
	task.ErrorMsg = ""
	task.CanRetry = nil
	task.Progress = 0
	task.RetryCount++
	if err := s.db.WithContext(ctx).Save(&task).Error; err != nil {
		return nil, errutil.Internal("retry task", errutil.WithErr(err))
	}

	s.bus.Publish(Update{TaskID: task.ID, Platform: task.Platform, OldStatus: StatusFailed, NewStatus: StatusPending})

	if err := s.exec.RetryTask(ctx, id); err != nil {
		s.logger.Error("failed to dispatch retry", zap.String("task_id", id), zap.Error(err))
		task.Status = StatusFailed
		task.ErrorMsg = fmt.Sprintf("failed to start retry: %v", err)
		if saveErr := s.db.WithContext(ctx).Save(&task).Error; saveErr != nil {
			s.logger.Error("failed to record retry dispatch failure", zap.String("task_id", id), zap.Error(saveErr))
		}
		s.bus.Publish(Update{TaskID: task.ID, Platform: task.Platform, OldStatus: StatusPending, NewStatus: StatusFailed, Message: task.ErrorMsg})
		return nil, err
	}

	return &task, nil
}

// Delete removes a terminal task. The remote side is told to drop whatever
// transient context it still holds.
func (s *Service) Delete(ctx context.Context, id string) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var task Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errutil.NotFound("task not found")
		}
		return errutil.Internal("query task", errutil.WithErr(err))
	}

	if !task.Status.Terminal() {
		return errutil.UnprocessableEntity(fmt.Sprintf("task in status %s cannot be deleted", task.Status))
	}

	if err := s.db.WithContext(ctx).Delete(&Task{}, "id = ?", id).Error; err != nil {
		return errutil.Internal("delete task", errutil.WithErr(err))
	}

	go func() {
		if err := s.exec.DeleteTask(context.Background(), id); err != nil {
			s.logger.Warn("remote delete failed", zap.String("task_id", id), zap.Error(err))
		}
	}()

	return nil
}
