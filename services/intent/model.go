package intent

import (
	"time"

	"crosspost/services/schema"
)

// Common is the field bundle shared across platforms unless a platform
// supplies an explicit override key.
type Common struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PlatformSelection pairs a platform with the operator's account choices and
// per-platform field values. Account order is the selection order and is
// preserved through expansion.
type PlatformSelection struct {
	Platform schema.Platform `json:"platform"`
	Accounts []int64         `json:"accounts"`
	Fields   map[string]any  `json:"fields"`
}

// Draft is the operator's raw publish request: one video, several platforms,
// several accounts per platform. Nothing in a Draft is trusted until
// validation.
type Draft struct {
	VideoID      int64               `json:"videoId"`
	Common       Common              `json:"commonData"`
	Platforms    []PlatformSelection `json:"platformData"`
	ScheduleTime *time.Time          `json:"scheduleTime,omitempty"`
}

// PlatformIntent is one platform's validated slice of the draft.
type PlatformIntent struct {
	Platform   schema.Platform
	AccountIDs []int64
	Bundle     map[string]any
}

// Validated is a Draft after schema enforcement. Invariant: expansion of a
// Validated intent never produces a further validation failure, so the task
// registry never re-validates bundles.
type Validated struct {
	VideoID      int64
	ScheduleTime *time.Time
	Platforms    []PlatformIntent
}

// FieldErrorKind distinguishes the recoverable per-field failures.
type FieldErrorKind string

const (
	MissingRequiredField FieldErrorKind = "missing_required_field"
	TooManyTags          FieldErrorKind = "too_many_tags"
)

// FieldError is one validation failure keyed by (platform, field).
type FieldError struct {
	Platform schema.Platform `json:"platform"`
	Key      string          `json:"key"`
	Kind     FieldErrorKind  `json:"kind"`
	Message  string          `json:"message"`
}
