package domain

import (
	"fmt"
	"time"

	apperrors "neurocal/internal/platform/errors"
)

type Kind string

const (
	KindCountdown Kind = "countdown"
	KindTask      Kind = "task"
	KindResponse  Kind = "response"
	KindRest      Kind = "rest"
)

// Timed reports whether the phase ends on its own clock.
func (k Kind) Timed() bool {
	return k == KindCountdown || k == KindTask || k == KindRest
}

// Mode selects what the sequence reports when it finishes.
type Mode string

const (
	ModeRecords    Mode = "records"
	ModeTimestamps Mode = "timestamps"
)

type UnloadPolicy string

const (
	UnloadNotify        UnloadPolicy = "notify"
	UnloadConfirm       UnloadPolicy = "confirm"
	UnloadNotifyConfirm UnloadPolicy = "notify+confirm"
)

func (p UnloadPolicy) Notifies() bool { return p == UnloadNotify || p == UnloadNotifyConfirm }
func (p UnloadPolicy) Confirms() bool { return p == UnloadConfirm || p == UnloadNotifyConfirm }

type FailurePolicy string

const (
	FailureLog   FailurePolicy = "log"
	FailureAlert FailurePolicy = "alert"
)

// Collection controls the begin/stop round trips around the timed phases.
type Collection struct {
	Begin bool `yaml:"begin" json:"begin"`
	Stop  bool `yaml:"stop" json:"stop"`
}

type Phase struct {
	Name     string   `yaml:"name" json:"name"`
	Kind     Kind     `yaml:"kind" json:"kind"`
	Duration int      `yaml:"duration,omitempty" json:"duration,omitempty"`
	Text     string   `yaml:"text,omitempty" json:"text,omitempty"`
	Stimulus string   `yaml:"stimulus,omitempty" json:"stimulus,omitempty"`
	Answers  []string `yaml:"answers,omitempty" json:"answers,omitempty"`
	Record   bool     `yaml:"record,omitempty" json:"record,omitempty"`
	Mark     string   `yaml:"mark,omitempty" json:"mark,omitempty"`
	// TargetEvery moves the on-screen target on this cadence while the phase runs.
	TargetEvery time.Duration `yaml:"target_every,omitempty" json:"target_every,omitempty"`
	// TimeoutAnswer fills the open record when a response phase with a
	// duration runs out before the user answers. Required with a duration.
	TimeoutAnswer string `yaml:"timeout_answer,omitempty" json:"timeout_answer,omitempty"`
}

// Timed reports whether the phase runs a clock. Response phases only do so
// when they carry a timeout.
func (p Phase) Timed() bool {
	return p.Kind.Timed() || (p.Kind == KindResponse && p.Duration > 0)
}

func (p Phase) Accepts(answer string) bool {
	for _, a := range p.Answers {
		if a == answer {
			return true
		}
	}
	return false
}

type Plan struct {
	Name         string        `yaml:"name" json:"name"`
	Mode         Mode          `yaml:"mode" json:"mode"`
	Unload       UnloadPolicy  `yaml:"unload" json:"unload"`
	Collection   Collection    `yaml:"collection" json:"collection"`
	OnFailure    FailurePolicy `yaml:"report_on_failure" json:"report_on_failure"`
	Phases       []Phase       `yaml:"phases" json:"phases"`
	Instructions string        `yaml:"-" json:"-"`
}

// Validate rejects plans the sequencer cannot run to completion.
func (p Plan) Validate() error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("%w: plan %q has no phases", apperrors.ErrInvalidPlan, p.Name)
	}
	switch p.Mode {
	case ModeRecords, ModeTimestamps:
	default:
		return fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidPlan, p.Mode)
	}
	switch p.Unload {
	case UnloadNotify, UnloadConfirm, UnloadNotifyConfirm:
	default:
		return fmt.Errorf("%w: unknown unload policy %q", apperrors.ErrInvalidPlan, p.Unload)
	}
	if p.OnFailure != FailureLog && p.OnFailure != FailureAlert {
		return fmt.Errorf("%w: unknown report_on_failure %q", apperrors.ErrInvalidPlan, p.OnFailure)
	}

	marks := map[string]bool{}
	for i, phase := range p.Phases {
		if phase.Name == "" {
			return fmt.Errorf("%w: phase %d has no name", apperrors.ErrInvalidPlan, i)
		}
		switch {
		case phase.Kind.Timed():
			if phase.Duration <= 0 {
				return fmt.Errorf("%w: phase %q needs a positive duration", apperrors.ErrInvalidPlan, phase.Name)
			}
		case phase.Kind == KindResponse:
			if len(phase.Answers) == 0 {
				return fmt.Errorf("%w: response phase %q has no answers", apperrors.ErrInvalidPlan, phase.Name)
			}
			if phase.Duration < 0 {
				return fmt.Errorf("%w: response phase %q has a negative timeout", apperrors.ErrInvalidPlan, phase.Name)
			}
			if phase.Duration > 0 && phase.TimeoutAnswer == "" {
				return fmt.Errorf("%w: response phase %q times out without a timeout_answer", apperrors.ErrInvalidPlan, phase.Name)
			}
			if phase.TimeoutAnswer != "" && !phase.Accepts(phase.TimeoutAnswer) {
				return fmt.Errorf("%w: timeout answer %q is not one of %v", apperrors.ErrInvalidPlan, phase.TimeoutAnswer, phase.Answers)
			}
		default:
			return fmt.Errorf("%w: phase %q has unknown kind %q", apperrors.ErrInvalidPlan, phase.Name, phase.Kind)
		}
		if phase.Record && p.nextResponse(i) < 0 {
			return fmt.Errorf("%w: record phase %q is never answered", apperrors.ErrInvalidPlan, phase.Name)
		}
		if phase.Mark != "" {
			if marks[phase.Mark] {
				return fmt.Errorf("%w: duplicate mark %q", apperrors.ErrInvalidPlan, phase.Mark)
			}
			marks[phase.Mark] = true
		}
	}
	return nil
}

// nextResponse returns the first response phase after i, before any other record phase.
func (p Plan) nextResponse(i int) int {
	for j := i + 1; j < len(p.Phases); j++ {
		if p.Phases[j].Kind == KindResponse {
			return j
		}
		if p.Phases[j].Record {
			return -1
		}
	}
	return -1
}

// ResponsePhases counts the phases that wait for an answer.
func (p Plan) ResponsePhases() int {
	n := 0
	for _, phase := range p.Phases {
		if phase.Kind == KindResponse {
			n++
		}
	}
	return n
}
