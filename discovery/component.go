package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kbukum/kubeping/component"
	"github.com/kbukum/kubeping/kube"
	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/observability"
)

const componentName = "discovery"

// Component runs discovery rounds under the component lifecycle: one round
// at start, then one per Interval until Stop.
type Component struct {
	cfg        Config
	kubeCfg    kube.Config
	dispatcher Dispatcher
	querier    kube.Querier
	metrics    *observability.Metrics
	log        *logger.Logger

	coord   *Coordinator
	self    PeerEndpoint
	enabled bool

	mu      sync.RWMutex
	started bool
	last    *Round
	cancel  context.CancelFunc
	done    chan struct{}
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithQuerier uses q instead of building one from the kube configuration.
func WithQuerier(q kube.Querier) ComponentOption {
	return func(c *Component) { c.querier = q }
}

// WithRoundMetrics records round metrics on m.
func WithRoundMetrics(m *observability.Metrics) ComponentOption {
	return func(c *Component) { c.metrics = m }
}

// NewComponent creates a discovery Component for use with the component registry.
func NewComponent(cfg Config, kubeCfg kube.Config, dispatcher Dispatcher, log *logger.Logger, opts ...ComponentOption) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Component{
		cfg:        cfg,
		kubeCfg:    kubeCfg,
		dispatcher: dispatcher,
		log:        log.WithComponent(componentName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Name returns the component name.
func (c *Component) Name() string { return componentName }

// Start validates the configuration, builds the querier and runs the first
// round. A configuration error is returned; round failures are not.
func (c *Component) Start(ctx context.Context) error {
	c.cfg.ApplyDefaults()
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("discovery: already started")
	}

	if !c.cfg.ClusteringEnabled() {
		c.log.Warn("namespace not set, clustering disabled")
		c.started = true
		c.mu.Unlock()
		return nil
	}

	if c.querier == nil {
		c.kubeCfg.ApplyDefaults()
		if err := c.kubeCfg.Validate(); err != nil {
			c.mu.Unlock()
			return err
		}
		q, err := kube.NewQuerier(c.kubeCfg, c.log)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("discovery start: %w", err)
		}
		c.querier = q
	}
	if c.dispatcher == nil {
		c.dispatcher = NewLogDispatcher(c.log)
	}

	c.self = c.resolveSelf()
	var opts []CoordinatorOption
	if c.metrics != nil {
		opts = append(opts, WithMetrics(c.metrics))
	}
	c.coord = NewCoordinator(c.querier, c.dispatcher, CoordinatorConfig{
		BasePort:            c.cfg.BindPort,
		PortRange:           c.cfg.PortRange,
		Self:                c.self,
		Policy:              c.cfg.Policy(),
		DispatchConcurrency: c.cfg.DispatchConcurrency,
	}, c.log, opts...)
	c.enabled = true
	c.started = true
	coord := c.coord
	c.mu.Unlock()

	c.log.Info("discovery component started", logger.Fields(
		logger.FieldNamespace, c.cfg.Namespace,
		logger.FieldSelector, c.cfg.Labels,
		logger.FieldPeer, c.self.String(),
		"port_range", c.cfg.PortRange,
		"interval", c.cfg.Interval.String(),
	))

	// The first round runs unlocked so Health and LastRound stay readable.
	round := coord.RunRound(ctx, c.cfg.Namespace, c.cfg.Labels)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil || c.last.StartedAt.Before(round.StartedAt) {
		c.last = &round
	}
	if c.cfg.Interval > 0 && c.started && c.cancel == nil {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.cancel = cancel
		c.done = make(chan struct{})
		go c.loop(loopCtx, c.done)
	}
	return nil
}

func (c *Component) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunRound(ctx)
		}
	}
}

// Stop ends the periodic rounds and waits for a round in flight.
func (c *Component) Stop(ctx context.Context) error {
	c.log.Info("discovery component stopping")

	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.started = false
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunRound runs a round now and records it as the last round. With
// clustering disabled it returns an empty round.
func (c *Component) RunRound(ctx context.Context) Round {
	coord := c.coordinator()
	if coord == nil {
		return Round{Namespace: c.cfg.Namespace, LabelSelector: c.cfg.Labels, Phase: PhaseIdle, Endpoints: []PeerEndpoint{}}
	}
	round := coord.RunRound(ctx, c.cfg.Namespace, c.cfg.Labels)
	c.mu.Lock()
	c.last = &round
	c.mu.Unlock()
	return round
}

// LastRound returns the most recent round, if any.
func (c *Component) LastRound() (Round, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Round{}, false
	}
	return *c.last, true
}

// FetchPods asks the orchestration API for the pods of the configured
// namespace and selector. With clustering disabled the list is empty.
func (c *Component) FetchPods(ctx context.Context) ([]kube.Pod, error) {
	coord := c.coordinator()
	if coord == nil {
		return []kube.Pod{}, nil
	}
	return coord.Pods(ctx, c.cfg.Namespace, c.cfg.Labels)
}

// coordinator returns nil until Start has enabled clustering.
func (c *Component) coordinator() *Coordinator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.enabled {
		return nil
	}
	return c.coord
}

// Self returns the local endpoint excluded from every round.
func (c *Component) Self() PeerEndpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self
}

// Config returns the discovery settings in effect.
func (c *Component) Config() Config { return c.cfg }

// Health reports the state of the last round.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case !c.started:
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "discovery not started"}
	case !c.enabled:
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "clustering disabled"}
	case c.last == nil:
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "no round yet"}
	case c.last.Failed():
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: c.last.Message}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d endpoints, %d/%d dispatch failures", len(c.last.Endpoints), c.last.DispatchFailures, c.last.Dispatched),
	}
}

// Describe returns infrastructure summary info for the startup display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Kubernetes Discovery",
		Type:    "discovery",
		Details: fmt.Sprintf("namespace=%s labels=%q range=%d", c.cfg.Namespace, c.cfg.Labels, c.cfg.PortRange),
		Port:    c.cfg.BindPort,
	}
}

// resolveSelf builds the local endpoint. Without BindHost (normally bound
// to POD_IP) it falls back to the first non-loopback interface address, and
// only then to the address of the outbound route.
func (c *Component) resolveSelf() PeerEndpoint {
	host := c.cfg.BindHost
	if host == "" {
		ip, err := localIP()
		if err != nil {
			c.log.Warn("could not resolve local address, self exclusion by IP disabled", logger.Fields(
				logger.FieldError, err.Error(),
			))
		}
		host = ip
	}
	return NewPeerEndpoint(host, c.cfg.BindPort)
}

func localIP() (string, error) {
	if addrs, err := net.InterfaceAddrs(); err == nil {
		if ip, ok := firstUnicastIP(addrs); ok {
			return ip, nil
		}
	}
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("no interface address and no outbound route: %w", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// firstUnicastIP picks the first global unicast address, preferring IPv4.
func firstUnicastIP(addrs []net.Addr) (string, bool) {
	var v6 string
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || !ipNet.IP.IsGlobalUnicast() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), true
		}
		if v6 == "" {
			v6 = ipNet.IP.String()
		}
	}
	return v6, v6 != ""
}
