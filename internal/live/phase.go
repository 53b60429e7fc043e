package live

import "github.com/prepwise/prepwise/internal/models"

// Phase is the coarse time-budget bucket driving interviewer pacing and
// forced termination. For a fixed config it only moves forward as elapsed
// time grows.
type Phase string

const (
	PhaseEarly   Phase = "early"
	PhaseMid     Phase = "mid"
	PhaseWrapUp  Phase = "wrap-up"
	PhaseHardEnd Phase = "hard-end"
)

type durationTier struct {
	TargetQuestions int
	WrapUpAt        float64 // seconds
	HardEndAt       float64 // seconds
}

// Wrap-up lands a little before the nominal total and hard-end a little
// before it too, leaving room for one closing statement.
var durationTiers = map[int]durationTier{
	5:  {TargetQuestions: 4, WrapUpAt: 280, HardEndAt: 297},
	10: {TargetQuestions: 6, WrapUpAt: 570, HardEndAt: 597},
	15: {TargetQuestions: 8, WrapUpAt: 870, HardEndAt: 897},
	20: {TargetQuestions: 10, WrapUpAt: 1170, HardEndAt: 1197},
}

// ValidDuration reports whether d minutes is a supported session length.
func ValidDuration(d int) bool {
	_, ok := durationTiers[d]
	return ok
}

func tierFor(durationMinutes int) durationTier {
	if t, ok := durationTiers[durationMinutes]; ok {
		return t
	}
	return durationTiers[10]
}

// PhaseAt maps elapsed seconds to a phase. Pure; the prompting path and the
// termination watchdog must agree, so both call this.
func PhaseAt(cfg models.InterviewConfig, elapsed float64) Phase {
	tc := tierFor(cfg.Duration)
	total := float64(cfg.Duration * 60)
	switch {
	case elapsed >= tc.HardEndAt:
		return PhaseHardEnd
	case elapsed >= tc.WrapUpAt:
		return PhaseWrapUp
	case elapsed >= total*0.5:
		return PhaseMid
	default:
		return PhaseEarly
	}
}

// IsHardEnd reports whether the session has exhausted its wall-clock budget.
func IsHardEnd(cfg models.InterviewConfig, elapsed float64) bool {
	return PhaseAt(cfg, elapsed) == PhaseHardEnd
}
