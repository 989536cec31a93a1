package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProcessingStatus string

const (
	ProcessingStatusScheduled          ProcessingStatus = "scheduled"
	ProcessingStatusProcessing         ProcessingStatus = "processing"
	ProcessingStatusCompleted          ProcessingStatus = "completed"
	ProcessingStatusPartiallyCompleted ProcessingStatus = "partially_completed"
	ProcessingStatusNoTargets          ProcessingStatus = "completed_no_targets"
	ProcessingStatusError              ProcessingStatus = "error"
)

type TargetStatus string

const (
	TargetStatusPending TargetStatus = "pending"
	TargetStatusSuccess TargetStatus = "success"
	TargetStatusFailed  TargetStatus = "failed"
)

// Target is one resolved device token within a notification request. Tokens
// are unique within a request; status moves pending -> success|failed exactly
// once per dispatch run.
type Target struct {
	UserID      string       `json:"user_id"`
	UserEmail   string       `json:"user_email,omitempty"`
	UserName    string       `json:"user_name,omitempty"`
	Token       string       `json:"token"`
	Status      TargetStatus `json:"status"`
	MessageID   string       `json:"message_id,omitempty"`
	Error       string       `json:"error,omitempty"`
	AttemptedAt *time.Time   `json:"attempted_at,omitempty"`
}

// TargetList is stored as a single JSONB column so outcome updates replace the
// whole array in one write.
type TargetList []Target

func (t TargetList) Value() (driver.Value, error) {
	if t == nil {
		t = TargetList{}
	}
	return json.Marshal(t)
}

func (t *TargetList) Scan(src interface{}) error {
	if src == nil {
		*t = TargetList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for TargetList", src)
	}
	return json.Unmarshal(b, t)
}

// Actor identifies the administrator who created a request.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (a Actor) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Actor) Scan(src interface{}) error {
	if src == nil {
		*a = Actor{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for Actor", src)
	}
	return json.Unmarshal(b, a)
}

// NotificationRequest is the persisted record of one send operation.
type NotificationRequest struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Title            string           `json:"title" db:"title"`
	Body             string           `json:"body" db:"body"`
	ImageURL         string           `json:"image_url,omitempty" db:"image_url"`
	DeepLink         string           `json:"deep_link,omitempty" db:"deep_link"`
	CreatedBy        Actor            `json:"created_by" db:"created_by"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	ScheduleAt       *time.Time       `json:"schedule_at,omitempty" db:"schedule_at"`
	ProcessingStatus ProcessingStatus `json:"processing_status" db:"processing_status"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty" db:"processed_at"`
	RecipientIDs     RecipientIDList  `json:"recipient_ids" db:"recipient_ids"`
	Targets          TargetList       `json:"targets" db:"targets"`
}

// RecipientIDList is the submitted recipient set, kept on the record so a
// deferred run can resolve fresh tokens at send time.
type RecipientIDList []string

func (r RecipientIDList) Value() (driver.Value, error) {
	if r == nil {
		r = RecipientIDList{}
	}
	return json.Marshal(r)
}

func (r *RecipientIDList) Scan(src interface{}) error {
	if src == nil {
		*r = RecipientIDList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for RecipientIDList", src)
	}
	return json.Unmarshal(b, r)
}

// SuccessCount returns the number of targets delivered successfully.
func (r *NotificationRequest) SuccessCount() int {
	return r.countByStatus(TargetStatusSuccess)
}

// FailureCount returns the number of targets that failed delivery.
func (r *NotificationRequest) FailureCount() int {
	return r.countByStatus(TargetStatusFailed)
}

// PendingCount returns the number of targets not yet attempted.
func (r *NotificationRequest) PendingCount() int {
	return r.countByStatus(TargetStatusPending)
}

func (r *NotificationRequest) countByStatus(status TargetStatus) int {
	n := 0
	for i := range r.Targets {
		if r.Targets[i].Status == status {
			n++
		}
	}
	return n
}

// SubmitNotificationRequest is the direct-invocation payload.
type SubmitNotificationRequest struct {
	Title        string     `json:"title" binding:"required"`
	Body         string     `json:"body" binding:"required"`
	ImageURL     string     `json:"image_url"`
	DeepLink     string     `json:"deep_link"`
	ScheduleAt   *time.Time `json:"schedule_at"`
	RecipientIDs []string   `json:"recipient_ids" binding:"required,min=1"`
}

// DispatchResult summarizes a Submit call for the caller.
type DispatchResult struct {
	RequestID    uuid.UUID `json:"request_id"`
	Scheduled    bool      `json:"scheduled"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	Message      string    `json:"message"`
}
