package domain

import "time"

// JournalEntry records one command request handled by the server
type JournalEntry struct {
	ID       string        `json:"id"`
	Command  string        `json:"command"`
	Query    string        `json:"query,omitempty"`
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
	Time     time.Time     `json:"time"`
}
