package domain

import "time"

const RunSchemaVersion = 1

// Run is a finished sequence as archived locally.
type Run struct {
	ID         string
	Plan       string
	Mode       Mode
	StartedAt  time.Time
	FinishedAt time.Time
	Records    []CalibrationRecord
	Timestamps TimestampSet
	Results    string
	ReportErr  error
}

// RunSummary is what the archive lists without loading results.
type RunSummary struct {
	ID          string
	Plan        string
	Mode        Mode
	StartedAt   time.Time
	FinishedAt  time.Time
	Records     int
	Timestamps  int
	Reported    bool
	ReportError string
	Path        string
}
