package tui

import (
	"time"

	"stockbot/state"
)

// StatusUpdateMsg carries one poll of /api/status.
type StatusUpdateMsg struct {
	Status *state.StatusResponse
	Err    error
}

// DataUpdateMsg carries one poll of /api/data.
type DataUpdateMsg struct {
	Data *DataResponse
	Err  error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// DataTickMsg refreshes the tracked companies and catalysts.
type DataTickMsg struct {
	Time time.Time
}

// TriggerDoneMsg is sent when a trigger request returns.
type TriggerDoneMsg struct {
	Kind   string
	Result *TriggerResult
	Err    error
}
