package kube

// GroupLabels are the labels naming a pod's rolling-update group, highest
// priority first: Deployment, legacy deployment, StatefulSet.
var GroupLabels = []string{
	"pod-template-hash",
	"deployment",
	"controller-revision-hash",
}

// DeriveGroup returns the value of the first group label present, or "".
func DeriveGroup(labels map[string]string) string {
	for _, key := range GroupLabels {
		if v, ok := labels[key]; ok {
			return v
		}
	}
	return ""
}
