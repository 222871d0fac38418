package constants

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusVerified   TaskStatus = "verified"
)

// Settleable reports whether a task in this status may still be settled.
// completed is accepted for rows written by older clients.
func (s TaskStatus) Settleable() bool {
	return s == StatusInProgress || s == StatusCompleted
}
