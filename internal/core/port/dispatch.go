package port

import "github.com/berfenger/sundispatch/internal/core/domain"

type PresetRegistry interface {
	Get(name string) (domain.Preset, error)
	Names() []string
}

type DispatchEngine interface {
	Preset() domain.Preset
	Validate(reading domain.Reading) error
	Classify(reading domain.Reading) (domain.Action, error)
	Dispatch(reading domain.Reading) (domain.StateSnapshot, error)
	Decide(reading domain.Reading) (domain.Decision, error)
	Reset()
	Snapshot() domain.StateSnapshot
}

// DispatchRecorder receives the outcome of every dispatch attempt.
type DispatchRecorder interface {
	RecordDecision(preset string, decision domain.Decision)
	RecordInvalidReading(preset string)
}
