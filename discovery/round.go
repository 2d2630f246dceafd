package discovery

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the stage a discovery round has reached.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseParsing     Phase = "parsing"
	PhaseResolving   Phase = "resolving"
	PhaseDispatching Phase = "dispatching"
)

// Round summarises one coordinator invocation. A Round is not shared with
// later rounds.
type Round struct {
	ID            uuid.UUID `json:"id"`
	Namespace     string    `json:"namespace"`
	LabelSelector string    `json:"label_selector,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	// FetchedAt is zero when the inventory could not be fetched.
	FetchedAt time.Time     `json:"fetched_at,omitempty"`
	Duration  time.Duration `json:"duration"`

	// Pods counts the classified pods of the namespace; Ready those that
	// passed every readiness check.
	Pods  int `json:"pods"`
	Ready int `json:"ready"`

	Endpoints        []PeerEndpoint `json:"endpoints"`
	Dispatched       int            `json:"dispatched"`
	DispatchFailures int            `json:"dispatch_failures"`

	// Phase is the last phase the round entered.
	Phase   Phase  `json:"phase"`
	Failure error  `json:"-"`
	Message string `json:"failure,omitempty"`
}

// Failed reports whether the inventory could not be obtained.
func (r Round) Failed() bool { return r.Failure != nil }

func (r *Round) fail(phase Phase, err error) {
	r.Phase = phase
	r.Failure = err
	r.Message = err.Error()
	r.Endpoints = []PeerEndpoint{}
}
