package out

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"neurocal/internal/modules/calibration/domain"
	calibrationout "neurocal/internal/modules/calibration/port/out"
	"neurocal/internal/platform/httpclient"
	"neurocal/internal/platform/metrics"
)

// Backend routes, spelled as the EEG backend serves them.
const (
	CollectionEndpoint = "/start_focus_callibration"
	RecordsEndpoint    = "/cogload_calibration"
	TimestampsEndpoint = "/focus_calibration"
)

const cancelTimeout = 5 * time.Second

type collectionAction struct {
	Action string `json:"action"`
}

type HTTPCollector struct {
	client *httpclient.Client
	logger zerolog.Logger
}

func NewHTTPCollector(client *httpclient.Client, logger zerolog.Logger) calibrationout.Collector {
	return &HTTPCollector{client: client, logger: logger.With().Str("component", "collector").Logger()}
}

func (c *HTTPCollector) BeginCollection(ctx context.Context) error {
	var ack map[string]any
	err := c.client.Do(ctx, http.MethodGet, CollectionEndpoint, nil, &ack)
	observe(CollectionEndpoint, err)
	if err != nil {
		return err
	}
	c.logger.Debug().Interface("ack", ack).Msg("collection acknowledged")
	return nil
}

func (c *HTTPCollector) EndCollection(ctx context.Context, action string) error {
	err := c.client.Do(ctx, http.MethodPost, CollectionEndpoint, collectionAction{Action: action}, nil)
	observe(CollectionEndpoint, err)
	return err
}

func (c *HTTPCollector) CancelCollection(ctx context.Context) {
	c.client.Post(ctx, CollectionEndpoint, collectionAction{Action: domain.ActionCancel}, cancelTimeout, func(err error) {
		observe(CollectionEndpoint, err)
		if err != nil {
			c.logger.Warn().Err(err).Msg("cancel collection")
		}
	})
}

func (c *HTTPCollector) SubmitRecords(ctx context.Context, records []domain.CalibrationRecord) error {
	if records == nil {
		records = []domain.CalibrationRecord{}
	}
	err := c.client.Do(ctx, http.MethodPost, RecordsEndpoint, records, nil)
	observe(RecordsEndpoint, err)
	return err
}

func (c *HTTPCollector) SubmitTimestamps(ctx context.Context, stamps domain.TimestampSet) error {
	err := c.client.Do(ctx, http.MethodPost, TimestampsEndpoint, stamps, nil)
	observe(TimestampsEndpoint, err)
	return err
}

func observe(endpoint string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Submissions.WithLabelValues(endpoint, result).Inc()
}
