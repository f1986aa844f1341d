package out

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"neurocal/internal/modules/smoother/domain"
	smootherout "neurocal/internal/modules/smoother/port/out"
	"neurocal/internal/platform/httpclient"
)

const DataEndpoint = "/data"

// looseFloat accepts a JSON number or a numeric string. Anything else reads as 0.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = looseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		*f = 0
		return nil
	}
	*f = looseFloat(v)
	return nil
}

type dataPayload struct {
	Focus   looseFloat `json:"focus"`
	Cogload looseFloat `json:"cogload"`
}

type HTTPMetricSource struct {
	client *httpclient.Client
}

func NewHTTPMetricSource(client *httpclient.Client) smootherout.MetricSource {
	return &HTTPMetricSource{client: client}
}

func (s *HTTPMetricSource) Fetch(ctx context.Context) (domain.Reading, error) {
	payload := dataPayload{}
	if err := s.client.Do(ctx, http.MethodGet, DataEndpoint, nil, &payload); err != nil {
		return domain.Reading{}, err
	}
	return domain.Reading{Focus: float64(payload.Focus), Cogload: float64(payload.Cogload)}, nil
}
