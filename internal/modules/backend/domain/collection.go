package domain

import (
	"fmt"
	"time"

	apperrors "neurocal/internal/platform/errors"
)

type Action string

const (
	ActionStop       Action = "stop"
	ActionCancel     Action = "cancel"
	ActionSuperseded Action = "superseded"
)

// ParseAction accepts the actions a client may send to end a collection.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionStop, ActionCancel:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", apperrors.ErrInvalidInput, s)
	}
}

// Window is one EEG collection period opened by a client.
type Window struct {
	ID        string
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Action    Action
}

func (w Window) Open() bool {
	return w.EndedAt.IsZero()
}
