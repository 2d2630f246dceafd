// Package discovery turns the pod inventory of a namespace into the peer
// endpoints a membership layer should contact.
//
// A discovery round runs in four phases:
//
//   - Fetching: the kube.Querier lists the pods matching the label selector
//   - Parsing: records outside the namespace are dropped and each pod gets a
//     readiness verdict and a rolling-update group
//   - Resolving: ready pods expand into host:port endpoints across the port
//     range, deduplicated and without the local endpoint
//   - Dispatching: the Dispatcher is invoked once per endpoint
//
// A round never fails to its caller. Fetch and parse failures are logged and
// produce an empty endpoint set; dispatch failures are logged per endpoint.
//
// Component wraps the Coordinator for lifecycle management and runs a round
// at start and then on every interval:
//
//	comp := discovery.NewComponent(cfg, kubeCfg, dispatcher, log)
//	if err := comp.Start(ctx); err != nil { ... }
//	defer comp.Stop(ctx)
package discovery
