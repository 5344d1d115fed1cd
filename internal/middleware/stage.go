// internal/middleware/stage.go
//
// Typed pipeline stages and their ordering rules.
//
// Context
// -------
// Settings list the pipeline as names, outermost first.  Each name maps to a
// Stage, and each Stage declares what must run before it:
//
//   • security      – must be first, so its headers land on every response,
//                     failures included.
//   • static        – only security may precede it, so it wraps every
//                     downstream stage's output.
//   • auth          – requires session.
//   • messages      – requires session.
//   • account       – requires session and auth.
//
// Validate reports the first violation as an *OrderError.  Build calls it
// before composing handlers, and `web check` calls it at deploy time.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package middleware

import (
	"errors"
	"fmt"
)

// Stage is one typed pipeline element.
type Stage int

const (
	StageSecurity Stage = iota
	StageStatic
	StageSession
	StageCommon
	StageCSRF
	StageAuth
	StageMessages
	StageClickjacking
	StageAccount
)

var stageNames = [...]string{
	StageSecurity:     "security",
	StageStatic:       "static",
	StageSession:      "session",
	StageCommon:       "common",
	StageCSRF:         "csrf",
	StageAuth:         "auth",
	StageMessages:     "messages",
	StageClickjacking: "clickjacking",
	StageAccount:      "account",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Requires lists stages that must appear earlier in the pipeline.
func (s Stage) Requires() []Stage {
	switch s {
	case StageCSRF, StageAuth, StageMessages:
		return []Stage{StageSession}
	case StageAccount:
		return []Stage{StageSession, StageAuth}
	}
	return nil
}

var (
	// ErrUnknownStage is returned for a name with no Stage.
	ErrUnknownStage = errors.New("unknown middleware stage")
	// ErrOrder is wrapped by every *OrderError.
	ErrOrder = errors.New("middleware order violation")
)

// ParseStage maps a settings name to its Stage.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// ParseStages maps names in order.
func ParseStages(names []string) ([]Stage, error) {
	out := make([]Stage, 0, len(names))
	for _, n := range names {
		s, err := ParseStage(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// OrderError names the stage that is misplaced and why.
type OrderError struct {
	Stage  Stage
	Reason string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("middleware %s: %s", e.Stage, e.Reason)
}

func (e *OrderError) Unwrap() error { return ErrOrder }

// Validate checks stages against the ordering rules.
func Validate(stages []Stage) error {
	pos := make(map[Stage]int, len(stages))
	for i, s := range stages {
		if _, dup := pos[s]; dup {
			return &OrderError{Stage: s, Reason: "listed more than once"}
		}
		pos[s] = i
	}

	if i, ok := pos[StageSecurity]; ok && i != 0 {
		return &OrderError{Stage: StageSecurity, Reason: "must be the first stage"}
	}
	if i, ok := pos[StageStatic]; ok {
		for _, s := range stages[:i] {
			if s != StageSecurity {
				return &OrderError{Stage: StageStatic, Reason: "only security may run before it, found " + s.String()}
			}
		}
	}

	for i, s := range stages {
		for _, dep := range s.Requires() {
			j, ok := pos[dep]
			if !ok {
				return &OrderError{Stage: s, Reason: "requires " + dep.String() + ", which is not installed"}
			}
			if j > i {
				return &OrderError{Stage: s, Reason: "must come after " + dep.String()}
			}
		}
	}
	return nil
}
