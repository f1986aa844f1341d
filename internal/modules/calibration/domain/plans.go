package domain

import (
	"fmt"
	"time"
)

// ClipPath is where the backend serves stimulus clip i.
func ClipPath(i int) string {
	return fmt.Sprintf("/static/videos/clip_%d.mp4", i)
}

type CogloadOptions struct {
	Clips            int
	ClipSeconds      int
	CountdownSeconds int
	GapSeconds       int
	Answers          []string
	Unload           UnloadPolicy
	OnFailure        FailurePolicy
	Collection       Collection
}

const cogloadInstructions = `# Cognitive load calibration

You will watch a short series of clips. After each clip, say whether the
pace should **stay**, go **faster**, go **slower**, or whether you need the
content **explained**.

Press **enter** to begin.
`

// CogloadPlan builds countdown, clip and feedback phases for each clip, with a
// rest gap between clips.
func CogloadPlan(opts CogloadOptions) Plan {
	plan := Plan{
		Name:         "cogload",
		Mode:         ModeRecords,
		Unload:       opts.Unload,
		Collection:   opts.Collection,
		OnFailure:    opts.OnFailure,
		Instructions: cogloadInstructions,
	}
	for i := 0; i < opts.Clips; i++ {
		if i > 0 && opts.GapSeconds > 0 {
			plan.Phases = append(plan.Phases, Phase{
				Name:     fmt.Sprintf("gap-%d", i),
				Kind:     KindRest,
				Duration: opts.GapSeconds,
			})
		}
		if opts.CountdownSeconds > 0 {
			plan.Phases = append(plan.Phases, Phase{
				Name:     fmt.Sprintf("countdown-%d", i),
				Kind:     KindCountdown,
				Duration: opts.CountdownSeconds,
			})
		}
		plan.Phases = append(plan.Phases,
			Phase{
				Name:     fmt.Sprintf("clip-%d", i),
				Kind:     KindTask,
				Duration: opts.ClipSeconds,
				Stimulus: ClipPath(i),
				Record:   true,
				Text:     "Watch the clip",
			},
			Phase{
				Name:    fmt.Sprintf("feedback-%d", i),
				Kind:    KindResponse,
				Answers: append([]string(nil), opts.Answers...),
				Text:    "How should the pace change?",
			},
		)
	}
	return plan
}

type FocusOptions struct {
	CountdownSeconds int
	FocusSeconds     int
	UnfocusSeconds   int
	TargetEvery      time.Duration
	Unload           UnloadPolicy
	OnFailure        FailurePolicy
	Collection       Collection
}

const focusInstructions = `# Focus calibration

First, follow the moving circle with your eyes and keep your attention on it.
Then relax and let your mind wander until the timer runs out.

EEG recording starts when you press **enter**.
`

func FocusPlan(opts FocusOptions) Plan {
	plan := Plan{
		Name:         "focus",
		Mode:         ModeTimestamps,
		Unload:       opts.Unload,
		Collection:   opts.Collection,
		OnFailure:    opts.OnFailure,
		Instructions: focusInstructions,
	}
	if opts.CountdownSeconds > 0 {
		plan.Phases = append(plan.Phases, Phase{Name: "countdown", Kind: KindCountdown, Duration: opts.CountdownSeconds})
	}
	plan.Phases = append(plan.Phases,
		Phase{
			Name:        "focus",
			Kind:        KindTask,
			Duration:    opts.FocusSeconds,
			Mark:        "focus",
			TargetEvery: opts.TargetEvery,
			Text:        "Focus on the moving circle!",
		},
		Phase{
			Name:     "unfocus",
			Kind:     KindTask,
			Duration: opts.UnfocusSeconds,
			Mark:     "unfocus",
			Text:     "Relax and let your mind wander.",
		},
	)
	return plan
}
