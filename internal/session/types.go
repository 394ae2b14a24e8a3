package session

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/diagnose"
	"github.com/fyrsmithlabs/fixd/internal/fix"
)

var (
	// ErrSessionNotFound is returned for lookups of unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoDiagnosis is returned when fixes are requested before analysis
	// has populated a diagnosis.
	ErrNoDiagnosis = errors.New("session has no diagnosis")

	// ErrFixNotFound is returned when the session or fix index is invalid
	// for an apply call.
	ErrFixNotFound = errors.New("fix not found")

	// ErrGatewayUnavailable is returned by Initialize when the inference
	// gateway cannot be reached.
	ErrGatewayUnavailable = errors.New("inference gateway unavailable")
)

// State is a session's position in the debugging lifecycle.
type State string

const (
	// StateCreated is the initial state: context captured, nothing analyzed.
	StateCreated State = "created"
	// StateClassified means a diagnosis is stored.
	StateClassified State = "classified"
	// StateFixesReady means fix synthesis has run (the list may be empty).
	StateFixesReady State = "fixes_ready"
	// StateApplied is terminal: a fix was executed successfully.
	StateApplied State = "applied"
)

// Session tracks one debugging attempt from capture through optional fix
// application.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// Context is the originating failure capture. Immutable.
	Context diagnose.Context

	// State is the lifecycle position.
	State State

	// Diagnosis is set once by AnalyzeError.
	Diagnosis *diagnose.Diagnosis

	// Fixes is set once by GenerateFixes; may be empty.
	Fixes []fix.Fix

	// Applied is true once a fix has executed successfully.
	Applied bool
}
