package dto

import "time"

// DataOutput mirrors the live metrics route, which publishes values as strings.
type DataOutput struct {
	Focus   string `json:"focus"`
	Cogload string `json:"cogload"`
}

type CollectionOutput struct {
	Status   string `json:"status"`
	RunID    string `json:"run_id,omitempty"`
	WindowID string `json:"window_id"`
	Action   string `json:"action,omitempty"`
}

type EndCollectionInput struct {
	RunID  string
	Action string `json:"action"`
}

type RecordInput struct {
	StartTime float64 `json:"start_time"`
	Answer    *string `json:"answer"`
}

type SubmitRecordsInput struct {
	RunID   string
	Records []RecordInput
}

type SubmitTimestampsInput struct {
	RunID      string
	Timestamps map[string]float64
}

type SubmitOutput struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
}

type SubmissionOutput struct {
	ID         string        `json:"id"`
	RunID      string        `json:"run_id,omitempty"`
	Kind       string        `json:"kind"`
	Count      int           `json:"count"`
	ReceivedAt time.Time     `json:"received_at"`
	Payload    string        `json:"payload"`
	Values     []ValueOutput `json:"values,omitempty"`
}

type ValueOutput struct {
	Key    string  `json:"key"`
	Number float64 `json:"number"`
	Text   *string `json:"text,omitempty"`
}
