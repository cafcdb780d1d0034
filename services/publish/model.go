package publish

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the lifecycle state of one publish task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	switch s {
	case StatusPending, StatusUploading, StatusSuccess, StatusFailed, StatusCancelled:
		return string(s)
	default:
		return ""
	}
}

// Terminal reports whether the status accepts no further event application.
// failed is terminal for events but leaves via the retry command.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// allowedTransition is the legal state-machine table. Commands and event
// application both validate against it; anything else is rejected or
// dropped.
func allowedTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusUploading || to == StatusCancelled || to == StatusSuccess || to == StatusFailed
	case StatusUploading:
		return to == StatusCancelled || to == StatusSuccess || to == StatusFailed
	case StatusFailed:
		return to == StatusPending
	default:
		return false
	}
}

// Task is one account-scoped, platform-scoped unit of publish execution.
// The registry is its sole owner; the executor keys only a transient
// execution context by task id.
type Task struct {
	ID           string         `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	VideoID      int64          `gorm:"column:video_id;index;not null" json:"videoId"`
	AccountID    int64          `gorm:"column:account_id;index;not null" json:"accountId"`
	Platform     string         `gorm:"column:platform;type:varchar(20);index;not null" json:"platform"`
	Status       Status         `gorm:"column:status;type:varchar(20);index;default:'pending'" json:"status"`
	Progress     int            `gorm:"column:progress;default:0" json:"progress"`
	ScheduleTime *time.Time     `gorm:"column:schedule_time" json:"scheduleTime,omitempty"`
	PublishURL   string         `gorm:"column:publish_url;type:text" json:"publishUrl,omitempty"`
	ErrorMsg     string         `gorm:"column:error_msg;type:text" json:"errorMsg,omitempty"`
	CanRetry     *bool          `gorm:"column:can_retry" json:"canRetry,omitempty"`
	RetryCount   int            `gorm:"column:retry_count;default:0" json:"retryCount"`
	Bundle       datatypes.JSON `gorm:"column:bundle" json:"bundle"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Task) TableName() string { return "upload_tasks" }

// Spec is one task-creation request produced by intent expansion. The bundle
// already satisfies the platform schema; the registry never re-validates it.
type Spec struct {
	VideoID      int64
	AccountID    int64
	Platform     string
	Bundle       map[string]any
	ScheduleTime *time.Time
}
