package kube

import "strings"

// ReadinessState is the verdict of the readiness checks for one pod.
type ReadinessState int

const (
	NotReady ReadinessState = iota
	Ready
)

func (s ReadinessState) String() string {
	if s == Ready {
		return "Ready"
	}
	return "NotReady"
}

// MarshalText renders the state by name.
func (s ReadinessState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReadinessCheck is one named clause of the readiness predicate.
type ReadinessCheck struct {
	Name string
	Pass func(PodRecord) bool
}

// Names of the readiness checks, in evaluation order.
const (
	CheckPhase           = "phase-running"
	CheckMessage         = "message-absent"
	CheckReason          = "reason-absent"
	CheckContainersReady = "containers-ready"
	CheckReadyCondition  = "ready-condition"
)

// ReadinessChecks is evaluated in order and stops at the first failure.
var ReadinessChecks = []ReadinessCheck{
	{Name: CheckPhase, Pass: phaseRunning},
	{Name: CheckMessage, Pass: func(r PodRecord) bool { return r.Message == nil }},
	{Name: CheckReason, Pass: func(r PodRecord) bool { return r.Reason == nil }},
	{Name: CheckContainersReady, Pass: containersReady},
	{Name: CheckReadyCondition, Pass: readyCondition},
}

// Evaluate returns the readiness of r and, when not ready, the name of the
// first failing check. It reads nothing but r.
func Evaluate(r PodRecord) (ReadinessState, string) {
	for _, check := range ReadinessChecks {
		if !check.Pass(r) {
			return NotReady, check.Name
		}
	}
	return Ready, ""
}

// IsReady is Evaluate without the failing check name.
func IsReady(r PodRecord) bool {
	state, _ := Evaluate(r)
	return state == Ready
}

func phaseRunning(r PodRecord) bool {
	return strings.EqualFold(r.Phase, "Running")
}

// containersReady passes when there are no container statuses.
func containersReady(r PodRecord) bool {
	for _, cs := range r.ContainerStatuses {
		if !cs.Ready {
			return false
		}
	}
	return true
}

// readyCondition uses the last condition of type Ready; none means not ready.
func readyCondition(r PodRecord) bool {
	ready := false
	for _, c := range r.Conditions {
		if strings.EqualFold(c.Type, "Ready") {
			ready = strings.EqualFold(c.Status, "True")
		}
	}
	return ready
}
