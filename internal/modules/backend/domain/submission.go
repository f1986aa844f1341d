package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "neurocal/internal/platform/errors"
)

type Kind string

const (
	KindRecords    Kind = "records"
	KindTimestamps Kind = "timestamps"
)

type Record struct {
	StartTime float64
	Answer    *string
}

// Value is one stored row of a submission: a record or a named timestamp.
type Value struct {
	Position int
	Key      string
	Number   float64
	Text     *string
}

type Submission struct {
	ID         string
	RunID      string
	Kind       Kind
	Payload    string
	Count      int
	ReceivedAt time.Time
}

func RecordValues(records []Record) ([]Value, error) {
	values := make([]Value, 0, len(records))
	for i, r := range records {
		if !finite(r.StartTime) || r.StartTime < 0 {
			return nil, fmt.Errorf("%w: record %d has invalid start_time", apperrors.ErrInvalidInput, i)
		}
		values = append(values, Value{Position: i, Key: fmt.Sprintf("record_%d", i), Number: r.StartTime, Text: r.Answer})
	}
	return values, nil
}

// TimestampValues orders named timestamps by key so stored rows are stable.
func TimestampValues(stamps map[string]float64) ([]Value, error) {
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%w: no timestamps", apperrors.ErrInvalidInput)
	}
	keys := make([]string, 0, len(stamps))
	for k := range stamps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]Value, 0, len(keys))
	for i, k := range keys {
		if k == "" || !finite(stamps[k]) {
			return nil, fmt.Errorf("%w: invalid timestamp %q", apperrors.ErrInvalidInput, k)
		}
		values = append(values, Value{Position: i, Key: k, Number: stamps[k]})
	}
	return values, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
