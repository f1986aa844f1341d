package domain

// CalibrationRecord is one answered stimulus. Answer stays nil until the
// following response phase fills it.
type CalibrationRecord struct {
	StartTime int64   `json:"start_time"`
	Answer    *string `json:"answer"`
}

const CalibrationStartKey = "calibration_start"

// TimestampSet is the flat report of phase boundaries in unix seconds.
type TimestampSet map[string]float64

func StartKey(mark string) string { return mark + "_start" }
func EndKey(mark string) string   { return mark + "_end" }

func (t TimestampSet) Clone() TimestampSet {
	out := make(TimestampSet, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func CloneRecords(records []CalibrationRecord) []CalibrationRecord {
	out := make([]CalibrationRecord, len(records))
	for i, r := range records {
		out[i] = r
		if r.Answer != nil {
			a := *r.Answer
			out[i].Answer = &a
		}
	}
	return out
}
