package model

import (
	"fmt"
	"strings"
	"time"
)

// DueDateLayout is the calendar date format used for Task.DueDate.
const DueDateLayout = "2006-01-02"

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of low, medium or high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of trackable work. UserID and CreatedBy both hold the creator.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	DueDate     string    `json:"dueDate"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      string    `json:"userId"`
	CreatedBy   string    `json:"createdBy"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
}

// OwnedBy reports whether the identity created the task.
func (t *Task) OwnedBy(userID string) bool {
	return userID != "" && t.UserID == userID
}

// IsAssignedTo reports whether the task is delegated to the identity.
func (t *Task) IsAssignedTo(userID string) bool {
	return userID != "" && t.AssignedTo == userID
}

// TaskFields carries the caller-supplied fields of a new task.
type TaskFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Completed   bool     `json:"completed"`
	AssignedTo  string   `json:"assignedTo,omitempty"`
}

// Validate normalizes and checks the fields. An empty priority defaults to medium.
func (f *TaskFields) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return fmt.Errorf("title is required")
	}
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if !f.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", f.Priority)
	}
	return ValidateDueDate(f.DueDate)
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	AssignedTo  *string   `json:"assignedTo,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && p.Completed == nil && p.AssignedTo == nil
}

// OnlyCompletion reports whether the patch touches nothing but the completed flag.
func (p TaskPatch) OnlyCompletion() bool {
	return p.Completed != nil && p.Title == nil && p.Description == nil &&
		p.Priority == nil && p.DueDate == nil && p.AssignedTo == nil
}

// Validate checks the fields the patch sets.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", *p.Priority)
	}
	if p.DueDate != nil {
		return ValidateDueDate(*p.DueDate)
	}
	return nil
}

// Apply returns a copy of t with the patch applied. Identity and ownership fields are never touched.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	return t
}

// ValidateDueDate accepts an empty string or a YYYY-MM-DD date.
func ValidateDueDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DueDateLayout, s); err != nil {
		return fmt.Errorf("due date %q is not a YYYY-MM-DD date", s)
	}
	return nil
}

// TaskFilter selects tasks by completion state.
type TaskFilter string

const (
	FilterAll       TaskFilter = "all"
	FilterActive    TaskFilter = "active"
	FilterCompleted TaskFilter = "completed"
)

// ParseTaskFilter maps an empty string to FilterAll.
func ParseTaskFilter(s string) (TaskFilter, error) {
	switch TaskFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive, FilterCompleted:
		return TaskFilter(s), nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Matches reports whether t passes the filter.
func (f TaskFilter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}
