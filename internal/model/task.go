package model

import "time"

// Priority constants (lower number = higher priority). PriorityUnset marks
// a task with no priority chosen.
const (
	PriorityUnset    = 0
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
	PriorityLowest   = 5
)

// PriorityLabel returns a short label for a priority value.
func PriorityLabel(p int) string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	case PriorityLowest:
		return "lowest"
	default:
		return "none"
	}
}

// ValidPriority reports whether p is unset or within 1-5.
func ValidPriority(p int) bool {
	return p >= PriorityUnset && p <= PriorityLowest
}

// Task is a unit of work on the board.
type Task struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	ColumnID    string     `json:"column_id" db:"column_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	CategoryID  *string    `json:"category_id,omitempty" db:"category_id"`
	Status      string     `json:"status" db:"status"`
	Order       int        `json:"order" db:"sort_order"`
	Priority    int        `json:"priority" db:"priority"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// Category and CategoryColor are flattened from the category join.
	Category      string `json:"category,omitempty" db:"-"`
	CategoryColor string `json:"category_color,omitempty" db:"-"`

	// Tags is populated by queries that join with task_tags.
	Tags []Tag `json:"tags,omitempty" db:"-"`
}

// IsDone reports whether the task sits in the terminal column.
func (t Task) IsDone() bool { return t.Status == StatusDone }

// IsArchived reports whether the task has been archived.
func (t Task) IsArchived() bool { return t.ArchivedAt != nil }

// ArchiveDue reports whether a completed task has been done for at least after.
func (t Task) ArchiveDue(now time.Time, after time.Duration) bool {
	if t.ArchivedAt != nil || t.CompletedAt == nil || !t.IsDone() {
		return false
	}
	return !t.CompletedAt.After(now.Add(-after))
}

// HasTag reports whether the task carries a tag with the given name.
func (t Task) HasTag(name string) bool {
	for _, tag := range t.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// TagNames returns the task's tag names in stored order.
func (t Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *int

	// Deadline is applied when SetDeadline is true; a nil Deadline clears it.
	Deadline    *time.Time
	SetDeadline bool

	// Category is resolved by name with create-or-get; an empty name clears it.
	Category *string

	// Tags replaces the task's tag set by name when non-nil.
	Tags []string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		!p.SetDeadline && p.Category == nil && p.Tags == nil
}
