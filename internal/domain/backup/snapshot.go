package backup

import "time"

// Snapshot is an immutable capture of a resumable save code.
type Snapshot struct {
	SavedAt  time.Time `json:"saved_at"`
	SaveCode string    `json:"save_code"`
}

// NewSnapshot captures a save code at the current time.
func NewSnapshot(saveCode string) Snapshot {
	return Snapshot{
		SavedAt:  time.Now(),
		SaveCode: saveCode,
	}
}
