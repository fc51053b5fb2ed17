package model

import (
	"math"
	"time"
)

// NoteDateLayout is the format of Note.Date.
const NoteDateLayout = "2006-01-02"

// Note is a dated free-text entry.
type Note struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Date      string    `json:"date" db:"note_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TimeProgress tracks elapsed time between two dates.
type TimeProgress struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Progress returns the elapsed percentage (0-100) and the whole days left
// (never negative) as of now. Day counts are truncated like a calendar
// difference in full days.
func (p TimeProgress) Progress(now time.Time) (percent int, daysRemaining int) {
	total := wholeDays(p.StartDate, p.EndDate)
	passed := wholeDays(p.StartDate, now)
	remaining := wholeDays(now, p.EndDate)

	if total <= 0 {
		if now.Before(p.EndDate) {
			percent = 0
		} else {
			percent = 100
		}
	} else {
		percent = int(math.Round(float64(passed) / float64(total) * 100))
	}
	percent = max(0, min(100, percent))
	return percent, max(0, remaining)
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
