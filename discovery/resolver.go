package discovery

import (
	"net/netip"

	"github.com/kbukum/kubeping/kube"
	"github.com/kbukum/kubeping/logger"
)

const maxPort = 65535

// Policy controls which pods become candidates.
type Policy struct {
	// IncludeNotReady admits pods that failed the readiness checks.
	IncludeNotReady bool
	// SplitByGroup limits candidates to the rolling-update group of the
	// local pod, when that group is known.
	SplitByGroup bool
	// SelfPodName identifies the local pod when its IP is not in the inventory.
	SelfPodName string
}

// Resolver expands classified pods into candidate peer endpoints.
type Resolver struct {
	policy Policy
	log    *logger.Logger
}

// NewResolver creates a Resolver with the given policy.
func NewResolver(policy Policy, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{policy: policy, log: log}
}

// Resolve returns (ip, basePort+offset) for every eligible pod and every
// offset in 0..portRange, in pod order. The result holds no duplicates and
// never contains self.
func (r *Resolver) Resolve(pods []kube.Pod, basePort, portRange int, self PeerEndpoint) []PeerEndpoint {
	if portRange < 0 {
		portRange = 0
	}
	self = NewPeerEndpoint(self.Host, self.Port)

	group, filterGroup := r.localGroup(pods, self)

	seen := make(map[PeerEndpoint]struct{})
	out := make([]PeerEndpoint, 0, len(pods)*(portRange+1))
	for _, pod := range pods {
		if !pod.Record.HasIP() {
			continue
		}
		if !pod.IsReady() && !r.policy.IncludeNotReady {
			continue
		}
		if filterGroup && pod.Group != group {
			continue
		}
		addr, err := netip.ParseAddr(pod.IP())
		if err != nil {
			r.log.Warn("skipping pod with invalid address", logger.Fields(
				logger.FieldPod, pod.Name(),
				logger.FieldPodIP, pod.IP(),
				logger.FieldError, err.Error(),
			))
			continue
		}
		host := addr.Unmap().String()

		for offset := 0; offset <= portRange; offset++ {
			port := basePort + offset
			if port > maxPort {
				break
			}
			ep := PeerEndpoint{Host: host, Port: port}
			if ep == self {
				continue
			}
			if _, dup := seen[ep]; dup {
				continue
			}
			seen[ep] = struct{}{}
			out = append(out, ep)
		}
	}
	return out
}

// localGroup finds the rolling-update group of the local pod. The second
// result is false when group filtering does not apply.
func (r *Resolver) localGroup(pods []kube.Pod, self PeerEndpoint) (string, bool) {
	if !r.policy.SplitByGroup {
		return "", false
	}
	for _, pod := range pods {
		byIP := pod.Record.HasIP() && NormalizeHost(pod.IP()) == self.Host
		byName := r.policy.SelfPodName != "" && pod.Name() == r.policy.SelfPodName
		if byIP || byName {
			if pod.Group == "" {
				return "", false
			}
			return pod.Group, true
		}
	}
	r.log.Debug("local pod not in inventory, not splitting by group", logger.Fields(
		logger.FieldPeer, self.String(),
	))
	return "", false
}
