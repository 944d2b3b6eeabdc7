package domain

import (
	"strings"
	"time"
)

// NotificationCategory classifies a notification for per-category delivery hints.
type NotificationCategory string

const (
	CategoryTaskReminder    NotificationCategory = "task_reminder"
	CategoryGoalProgress    NotificationCategory = "goal_progress"
	CategoryPenaltyIssued   NotificationCategory = "penalty_issued"
	CategoryCalendarEvent   NotificationCategory = "calendar_event"
	CategoryFamilyBroadcast NotificationCategory = "family_broadcast"
	CategoryWorkout         NotificationCategory = "workout"
)

var knownCategories = map[NotificationCategory]struct{}{
	CategoryTaskReminder:    {},
	CategoryGoalProgress:    {},
	CategoryPenaltyIssued:   {},
	CategoryCalendarEvent:   {},
	CategoryFamilyBroadcast: {},
	CategoryWorkout:         {},
}

// Urgency ranks how aggressively the companion device should surface a notification.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var knownUrgencies = map[Urgency]struct{}{
	UrgencyLow:      {},
	UrgencyNormal:   {},
	UrgencyHigh:     {},
	UrgencyCritical: {},
}

// ActionKind describes what tapping a notification action does on the device.
type ActionKind string

const (
	ActionOpen    ActionKind = "open"
	ActionReply   ActionKind = "reply"
	ActionDismiss ActionKind = "dismiss"
)

// Action is a single tappable button attached to a notification.
type Action struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  ActionKind `json:"kind"`
}

// Notification is an immutable delivery request. An empty TargetMemberID means
// broadcast to every paired device in the family.
type Notification struct {
	ID             string               `json:"id"`
	FamilyID       string               `json:"family_id"`
	TargetMemberID string               `json:"target_member_id,omitempty"`
	Title          string               `json:"title"`
	Message        string               `json:"message"`
	Category       NotificationCategory `json:"category"`
	Urgency        Urgency              `json:"urgency"`
	Actions        []Action             `json:"actions,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Broadcast reports whether the notification targets every family member.
func (n Notification) Broadcast() bool { return n.TargetMemberID == "" }

// Validate checks the fields required before any transport attempt.
func (n Notification) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if strings.TrimSpace(n.Message) == "" {
		return NewValidationError("message", "is required")
	}
	if _, ok := knownCategories[n.Category]; !ok {
		return NewValidationError("category", "is not a known category")
	}
	if _, ok := knownUrgencies[n.Urgency]; !ok {
		return NewValidationError("urgency", "is not a known urgency")
	}
	return nil
}

// DeliveryResult reports the outcome of a dispatch attempt. Delivered is true
// iff at least one paired device accepted the payload.
type DeliveryResult struct {
	Delivered bool
	Queued    bool
	Accepted  []string
}

// QueueEntry wraps a notification held while the companion link is down.
type QueueEntry struct {
	ID           int64
	Notification Notification
	EnqueuedAt   time.Time
	Attempts     int
}

// Expired reports whether the entry fell outside the retention window at now.
func (e QueueEntry) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(e.EnqueuedAt) > retention
}
