package graph

import "context"

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed and its update was merged
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node or the merge of its update failed
	NodeEventError NodeEvent = "error"

	// EventChainStart indicates the graph execution has started
	EventChainStart NodeEvent = "chain_start"

	// EventChainEnd indicates the graph execution has finished
	EventChainEnd NodeEvent = "chain_end"
)

// NodeListener receives node lifecycle events.
//
// For NodeEventStart the state is the snapshot handed to the node; for
// NodeEventComplete it is the state right after the node's update was merged.
// Listeners are called from node goroutines and must be safe for concurrent use.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, nodeName string, state S, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	f(ctx, event, nodeName, state, err)
}
