package kube

import "fmt"

// Pod is a PodRecord with its readiness verdict and rolling-update group.
type Pod struct {
	Record PodRecord      `json:"record"`
	State  ReadinessState `json:"state"`
	// Group is empty when the pod carries none of GroupLabels.
	Group string `json:"group,omitempty"`
	// FailedCheck names the first readiness check the pod failed.
	FailedCheck string `json:"failed_check,omitempty"`
}

// Name returns the pod name.
func (p Pod) Name() string { return p.Record.Name }

// IP returns the pod address, empty when unassigned.
func (p Pod) IP() string { return p.Record.PodIP }

// IsReady reports whether the pod passed every readiness check.
func (p Pod) IsReady() bool { return p.State == Ready }

func (p Pod) String() string {
	return fmt.Sprintf("Pod{name=%q, ip=%q, group=%q, state=%s}", p.Record.Name, p.Record.PodIP, p.Group, p.State)
}

// Classify keeps the records of namespace, in input order, and attaches
// readiness and group to each.
func Classify(records []PodRecord, namespace string) []Pod {
	pods := make([]Pod, 0, len(records))
	for _, rec := range records {
		if rec.Namespace != namespace {
			continue
		}
		state, failed := Evaluate(rec)
		pods = append(pods, Pod{
			Record:      rec,
			State:       state,
			Group:       DeriveGroup(rec.Labels),
			FailedCheck: failed,
		})
	}
	return pods
}

// Parse decodes a raw PodList document and classifies it for namespace.
func Parse(raw []byte, namespace string) ([]Pod, error) {
	records, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Classify(records, namespace), nil
}
