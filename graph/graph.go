package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrSchemaNotSet is returned when a graph is compiled without a merge schema.
	ErrSchemaNotSet = errors.New("schema not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrCycle is returned when the edges form a cycle.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrUnreachable is returned when a node cannot be reached from the entry point.
	ErrUnreachable = errors.New("node unreachable from entry point")
)

// NodeFunc is the body of a node. It receives a snapshot of the merged state
// and returns a partial update that the schema folds back into the state.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// Node represents a node in the graph.
type Node[S, U any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Branch is the origin passed to the schema when the node's update is merged.
	// Mainline nodes leave it empty.
	Branch string

	// Function is the function associated with the node.
	Function NodeFunc[S, U]
}

// Edge represents an edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}

// NodeOption configures a node at registration time.
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	branch string
}

// InBranch tags the node as part of the named branch.
func InBranch(name string) NodeOption {
	return func(o *nodeOptions) {
		o.branch = name
	}
}

// NodeError wraps a failure raised by a node.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
