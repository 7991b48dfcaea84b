package domain

import (
	"encoding/json"
	"time"
)

// DispatchResult is the outcome of sending one record through one channel.
type DispatchResult struct {
	Service string          `json:"service"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// DispatchLogEntry is the per-submission result sequence kept for operators.
// It deliberately carries no personal fields from the record.
type DispatchLogEntry struct {
	SubmissionID string           `json:"submissionId"`
	Role         Role             `json:"role"`
	Results      []DispatchResult `json:"results"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Delivered reports whether at least one channel accepted the record.
func (e DispatchLogEntry) Delivered() bool {
	for _, r := range e.Results {
		if r.Success {
			return true
		}
	}
	return false
}

// DisplayTimeLayout matches the ru-RU locale string used in notifications.
const DisplayTimeLayout = "02.01.2006, 15:04:05"

// FormatDisplayTime renders t in loc using DisplayTimeLayout.
func FormatDisplayTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayTimeLayout)
}
