package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kubeping/errors"
	"github.com/kbukum/kubeping/kube"
	"github.com/kbukum/kubeping/logger"
	"github.com/kbukum/kubeping/observability"
	"github.com/kbukum/kubeping/resilience"
)

// CoordinatorConfig holds the per-round resolution and dispatch settings.
type CoordinatorConfig struct {
	// BasePort is the port of the local transport; peers listen on
	// BasePort..BasePort+PortRange.
	BasePort  int
	PortRange int
	// Self is the local endpoint, excluded from every round.
	Self   PeerEndpoint
	Policy Policy
	// DispatchConcurrency above 1 dispatches in parallel behind a bulkhead.
	DispatchConcurrency int
}

// Coordinator runs discovery rounds: fetch, parse, resolve, dispatch.
type Coordinator struct {
	querier    kube.Querier
	dispatcher Dispatcher
	resolver   *Resolver
	cfg        CoordinatorConfig
	metrics    *observability.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMetrics records round metrics on m.
func WithMetrics(m *observability.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(querier kube.Querier, dispatcher Dispatcher, cfg CoordinatorConfig, log *logger.Logger, opts ...CoordinatorOption) *Coordinator {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("discovery")
	c := &Coordinator{
		querier:    querier,
		dispatcher: dispatcher,
		resolver:   NewResolver(cfg.Policy, log),
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pods fetches and classifies the inventory without resolving or dispatching.
func (c *Coordinator) Pods(ctx context.Context, namespace, selector string) ([]kube.Pod, error) {
	records, err := c.querier.Query(ctx, namespace, selector)
	if err != nil {
		return nil, err
	}
	return kube.Classify(records, namespace), nil
}

// RunRound performs one discovery round. It never returns an error and never
// panics: failures are logged and reflected in the returned Round.
func (c *Coordinator) RunRound(ctx context.Context, namespace, selector string) (round Round) {
	round = Round{
		ID:            uuid.New(),
		Namespace:     namespace,
		LabelSelector: selector,
		StartedAt:     c.now(),
		Phase:         PhaseIdle,
		Endpoints:     []PeerEndpoint{},
	}
	ctx = logger.ContextWithRoundID(ctx, round.ID.String())
	log := c.log.WithContext(ctx)

	tracker := observability.NewRoundTracker(round.ID.String(), namespace, selector, c.metrics)
	ctx = tracker.Start(ctx)
	outcome := observability.OutcomeOK

	defer func() {
		if r := recover(); r != nil {
			err := errors.Internal(fmt.Errorf("panic: %v", r))
			log.Error("discovery round aborted", logger.Fields(
				logger.FieldPhase, string(round.Phase),
				logger.FieldError, err.Error(),
			))
			round.fail(round.Phase, err)
			outcome = observability.OutcomeAborted
		}
		round.Duration = c.now().Sub(round.StartedAt)
		tracker.End(ctx, outcome, round.Failure)
	}()

	round.Phase = PhaseFetching
	records, err := c.querier.Query(ctx, namespace, selector)
	if err != nil {
		phase, what := PhaseFetching, "fetching"
		outcome = observability.OutcomeFetchError
		if errors.IsParse(err) {
			phase, what = PhaseParsing, "parsing"
			outcome = observability.OutcomeParseError
		}
		log.Warn("failed "+what+" pod inventory", logger.Fields(
			logger.FieldNamespace, namespace,
			logger.FieldSelector, selector,
			logger.FieldError, err.Error(),
		))
		round.fail(phase, err)
		return round
	}
	round.FetchedAt = c.now()

	round.Phase = PhaseParsing
	pods := kube.Classify(records, namespace)
	round.Pods = len(pods)
	for _, p := range pods {
		if p.IsReady() {
			round.Ready++
		}
	}
	tracker.Inventory(ctx, round.Ready, round.Pods-round.Ready)

	round.Phase = PhaseResolving
	round.Endpoints = c.resolver.Resolve(pods, c.cfg.BasePort, c.cfg.PortRange, c.cfg.Self)
	tracker.Endpoints(ctx, len(round.Endpoints))

	log.Info("sending discovery requests", logger.Fields(
		logger.FieldNamespace, namespace,
		logger.FieldPeer, c.cfg.Self.String(),
		logger.FieldEndpoints, endpointStrings(round.Endpoints),
	))

	round.Phase = PhaseDispatching
	round.Dispatched, round.DispatchFailures = c.dispatchAll(ctx, log, tracker, round.Endpoints)
	return round
}

// dispatchAll invokes the dispatcher at most once per endpoint and returns
// the number of attempts and failures.
func (c *Coordinator) dispatchAll(ctx context.Context, log *logger.Logger, tracker *observability.RoundTracker, endpoints []PeerEndpoint) (int, int) {
	var attempted, failed int64

	record := func(ep PeerEndpoint, err error) {
		atomic.AddInt64(&attempted, 1)
		tracker.Dispatched(ctx, ep.String(), err)
		if err == nil {
			return
		}
		atomic.AddInt64(&failed, 1)
		log.Warn("sending discovery request failed", logger.Fields(
			logger.FieldPeer, ep.String(),
			logger.FieldError, err.Error(),
		))
	}

	remaining := func(i int) {
		log.Warn("round cancelled, discovery requests not sent", logger.Fields(
			"skipped", len(endpoints)-i,
			logger.FieldError, ctx.Err().Error(),
		))
	}

	if c.cfg.DispatchConcurrency <= 1 {
		for i, ep := range endpoints {
			if ctx.Err() != nil {
				remaining(i)
				break
			}
			record(ep, c.dispatchOne(ctx, ep))
		}
		return int(attempted), int(failed)
	}

	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "dispatch",
		MaxConcurrent: c.cfg.DispatchConcurrency,
		MaxWait:       -1,
	})
	var wg sync.WaitGroup
	for i, ep := range endpoints {
		if ctx.Err() != nil {
			remaining(i)
			break
		}
		wg.Add(1)
		go func(ep PeerEndpoint) {
			defer wg.Done()
			var inner error
			ran := false
			err := bh.Execute(ctx, func() error {
				ran = true
				inner = c.dispatchOne(ctx, ep)
				return nil
			})
			if !ran {
				// No slot before the round was cancelled.
				log.Debug("discovery request not sent", logger.Fields(
					logger.FieldPeer, ep.String(),
					logger.FieldError, err.Error(),
				))
				return
			}
			record(ep, inner)
		}(ep)
	}
	wg.Wait()
	return int(attempted), int(failed)
}

// dispatchOne calls the dispatcher, converting errors and panics into a
// dispatch error.
func (c *Coordinator) dispatchOne(ctx context.Context, ep PeerEndpoint) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Dispatch(ep.String(), fmt.Errorf("panic: %v", r))
		}
	}()
	if derr := c.dispatcher.Dispatch(ctx, ep); derr != nil {
		return errors.Dispatch(ep.String(), derr)
	}
	return nil
}

func endpointStrings(eps []PeerEndpoint) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.String()
	}
	return out
}
