package dto

import "time"

type DispatchInput struct {
	SessionID  string
	Level      int
	Location   string
	Substances string
	Notes      string
}

type DispatchOutput struct {
	SessionID string
	Level     int
	Kind      string
	Success   bool
	Delivered int
	Failed    int
	Message   string
}

type LogEntryOutput struct {
	ID        string
	SessionID string
	Kind      string
	At        time.Time
	Success   bool
	ContactID string
	Message   string
}

type PreviewInput struct {
	Location   string
	Substances string
	Notes      string
}
