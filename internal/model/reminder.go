package model

import (
	"sort"
	"time"
)

// DeadlineState buckets an open task by how close its deadline is.
type DeadlineState int

const (
	DeadlineNone DeadlineState = iota
	DeadlineUpcoming
	DeadlineToday
	DeadlineOverdue
)

// UpcomingWindow is how far ahead a deadline counts as upcoming.
const UpcomingWindow = 7 * 24 * time.Hour

func (s DeadlineState) String() string {
	switch s {
	case DeadlineOverdue:
		return "overdue"
	case DeadlineToday:
		return "today"
	case DeadlineUpcoming:
		return "upcoming"
	default:
		return ""
	}
}

// DeadlineState classifies the task's deadline relative to now. Done and
// archived tasks never need a reminder.
func (t Task) DeadlineState(now time.Time) DeadlineState {
	if t.Deadline == nil || t.IsDone() || t.IsArchived() {
		return DeadlineNone
	}
	d := *t.Deadline
	switch {
	case d.Before(now):
		return DeadlineOverdue
	case sameDay(d, now):
		return DeadlineToday
	case !d.After(now.Add(UpcomingWindow)):
		return DeadlineUpcoming
	default:
		return DeadlineNone
	}
}

// Reminder surfaces an open task whose deadline needs attention.
type Reminder struct {
	TaskID   string
	Title    string
	Status   string
	Deadline time.Time
	State    DeadlineState
}

// Reminders returns reminders for the given tasks, most urgent first and
// then by deadline.
func Reminders(tasks []Task, now time.Time) []Reminder {
	var out []Reminder
	for _, t := range tasks {
		st := t.DeadlineState(now)
		if st == DeadlineNone {
			continue
		}
		out = append(out, Reminder{
			TaskID:   t.ID,
			Title:    t.Title,
			Status:   t.Status,
			Deadline: *t.Deadline,
			State:    st,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State > out[j].State
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
