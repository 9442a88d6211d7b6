package models

import "time"

const (
	StatusAssigned   = "assigned"
	StatusInProgress = "in_progress"
	StatusPending    = "pending"
	StatusApproved   = "approved"
)

// Statuses lists every valid task status in lifecycle order.
var Statuses = []string{
	StatusAssigned,
	StatusInProgress,
	StatusPending,
	StatusApproved,
}

func IsValidStatus(s string) bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusPending, StatusApproved:
		return true
	}
	return false
}

type Task struct {
	ID                int64
	Title             string
	Description       string
	TaskDate          time.Time
	Status            string
	AdminPhotos       []string
	WorkerDescription string
	WorkerPhotos      []string
	RejectedFlag      bool
	RejectedAt        *time.Time
	// PhotoURL is the deprecated single-photo column. New code never
	// writes it, but it still has to be purged on delete and used as
	// a thumbnail fallback.
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Thumbnail returns the first admin photo, falling back to the
// legacy single-photo column.
func (t *Task) Thumbnail() string {
	if len(t.AdminPhotos) > 0 && t.AdminPhotos[0] != "" {
		return t.AdminPhotos[0]
	}
	return t.PhotoURL
}
