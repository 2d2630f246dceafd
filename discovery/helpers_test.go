package discovery

import (
	"context"
	"sync"

	"github.com/kbukum/kubeping/kube"
)

func readyRecord(name, ns, ip string, labels map[string]string) kube.PodRecord {
	return kube.PodRecord{
		Name:       name,
		Namespace:  ns,
		PodIP:      ip,
		Labels:     labels,
		Phase:      "Running",
		Conditions: []kube.PodCondition{{Type: "Ready", Status: "True"}},
	}
}

func pendingRecord(name, ns, ip string) kube.PodRecord {
	return kube.PodRecord{Name: name, Namespace: ns, PodIP: ip, Phase: "Pending"}
}

func classify(records ...kube.PodRecord) []kube.Pod {
	return kube.Classify(records, "default")
}

// fakeQuerier returns fixed records or a fixed error.
type fakeQuerier struct {
	mu      sync.Mutex
	records []kube.PodRecord
	err     error
	panics  bool
	calls   int
}

func (q *fakeQuerier) Query(ctx context.Context, namespace, selector string) ([]kube.PodRecord, error) {
	q.mu.Lock()
	q.calls++
	q.mu.Unlock()
	if q.panics {
		panic("querier exploded")
	}
	if q.err != nil {
		return nil, q.err
	}
	return q.records, nil
}

func (q *fakeQuerier) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func (q *fakeQuerier) setErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
}

// recordingDispatcher records every dispatched endpoint.
type recordingDispatcher struct {
	mu    sync.Mutex
	peers []PeerEndpoint
	fail  map[PeerEndpoint]error
	panic map[PeerEndpoint]bool
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, peer PeerEndpoint) error {
	d.mu.Lock()
	d.peers = append(d.peers, peer)
	err := d.fail[peer]
	boom := d.panic[peer]
	d.mu.Unlock()
	if boom {
		panic("dispatcher exploded")
	}
	return err
}

func (d *recordingDispatcher) Peers() []PeerEndpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]PeerEndpoint(nil), d.peers...)
}
