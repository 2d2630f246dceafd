package discovery

import (
	"context"

	"github.com/kbukum/kubeping/logger"
)

// Dispatcher hands one discovery request to the messaging layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, peer PeerEndpoint) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, peer PeerEndpoint) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, peer PeerEndpoint) error {
	return f(ctx, peer)
}

// LogDispatcher logs each discovery request instead of sending it. Used when
// the agent runs without a membership layer.
type LogDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogDispatcher{log: log.WithComponent("dispatch")}
}

// Dispatch logs the peer at info level.
func (d *LogDispatcher) Dispatch(ctx context.Context, peer PeerEndpoint) error {
	d.log.WithContext(ctx).Info("discovery request", logger.Fields(logger.FieldPeer, peer.String()))
	return nil
}
