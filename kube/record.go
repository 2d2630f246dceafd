package kube

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/json"

	"github.com/kbukum/kubeping/errors"
)

// PodRecord is the subset of a pod's metadata and status that discovery reads.
type PodRecord struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	PodIP     string            `json:"pod_ip,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Phase     string            `json:"phase"`
	// Message and Reason are nil when the API omitted them.
	Message           *string           `json:"message,omitempty"`
	Reason            *string           `json:"reason,omitempty"`
	ContainerStatuses []ContainerStatus `json:"container_statuses,omitempty"`
	Conditions        []PodCondition    `json:"conditions,omitempty"`
}

// ContainerStatus is the readiness of one container.
type ContainerStatus struct {
	Name  string `json:"name,omitempty"`
	Ready bool   `json:"ready"`
}

// PodCondition is one entry of status.conditions.
type PodCondition struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// HasIP reports whether the pod has been assigned an address.
func (r PodRecord) HasIP() bool { return r.PodIP != "" }

// FromPod normalizes a typed pod. The typed status cannot tell an empty
// message or reason from a missing one, so both count as absent.
func FromPod(pod *corev1.Pod) PodRecord {
	rec := PodRecord{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		PodIP:     pod.Status.PodIP,
		Labels:    pod.Labels,
		Phase:     string(pod.Status.Phase),
		Message:   optional(pod.Status.Message),
		Reason:    optional(pod.Status.Reason),
	}
	for _, cs := range pod.Status.ContainerStatuses {
		rec.ContainerStatuses = append(rec.ContainerStatuses, ContainerStatus{Name: cs.Name, Ready: cs.Ready})
	}
	for _, c := range pod.Status.Conditions {
		rec.Conditions = append(rec.Conditions, PodCondition{Type: string(c.Type), Status: string(c.Status)})
	}
	return rec
}

// FromPodList normalizes every item of a typed pod list.
func FromPodList(list *corev1.PodList) []PodRecord {
	if list == nil {
		return nil
	}
	records := make([]PodRecord, 0, len(list.Items))
	for i := range list.Items {
		records = append(records, FromPod(&list.Items[i]))
	}
	return records
}

// Decode parses a raw PodList document. Malformed payloads yield a parse
// error. Unlike FromPod, an explicit empty message or reason is kept as
// present, so such a pod fails the message and reason readiness checks.
func Decode(raw []byte) ([]PodRecord, error) {
	var list corev1.PodList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Parse(err).WithDetail("bytes", len(raw))
	}
	var presence statusPresence
	if err := json.Unmarshal(raw, &presence); err != nil {
		return nil, errors.Parse(err).WithDetail("bytes", len(raw))
	}
	records := FromPodList(&list)
	for i := range records {
		if i >= len(presence.Items) {
			break
		}
		st := presence.Items[i].Status
		if st.Message != nil {
			records[i].Message = st.Message
		}
		if st.Reason != nil {
			records[i].Reason = st.Reason
		}
	}
	return records, nil
}

// statusPresence records which items carried status.message and
// status.reason, including empty strings that corev1 cannot tell apart.
type statusPresence struct {
	Items []struct {
		Status struct {
			Message *string `json:"message"`
			Reason  *string `json:"reason"`
		} `json:"status"`
	} `json:"items"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
