package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// StateGraph is a directed acyclic graph of nodes that read a state of type S
// and return partial updates of type U.
//
// A node with several incoming edges is a join: it starts only after every
// predecessor has completed and its update has been merged. A node with
// several outgoing edges fans out and its successors run concurrently.
//
//	g := graph.NewStateGraph[State, Update]()
//	g.AddNode("fetch", "Fetch prices", fetch, graph.InBranch("stock"))
//	g.AddEdge("fetch", graph.END)
//	g.SetEntryPoint("fetch")
//	g.SetSchema(schema)
type StateGraph[S, U any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S, U]

	// order keeps registration order for deterministic validation and export
	order []string

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	schema    Schema[S, U]
	listeners []NodeListener[S]
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S, U any]() *StateGraph[S, U] {
	return &StateGraph[S, U]{
		nodes: make(map[string]Node[S, U]),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
// Registering the same name twice replaces the earlier node.
func (g *StateGraph[S, U]) AddNode(name, description string, fn NodeFunc[S, U], opts ...NodeOption) {
	var o nodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if _, ok := g.nodes[name]; !ok {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Node[S, U]{
		Name:        name,
		Description: description,
		Branch:      o.branch,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S, U]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S, U]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetSchema sets the schema used to merge node updates.
func (g *StateGraph[S, U]) SetSchema(schema Schema[S, U]) {
	g.schema = schema
}

// AddListener registers a listener notified for every node of every run.
func (g *StateGraph[S, U]) AddListener(l NodeListener[S]) {
	g.listeners = append(g.listeners, l)
}

// Nodes returns the registered nodes in registration order.
func (g *StateGraph[S, U]) Nodes() []Node[S, U] {
	out := make([]Node[S, U], 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns a copy of the registered edges.
func (g *StateGraph[S, U]) Edges() []Edge {
	return slices.Clone(g.edges)
}

// StateRunnable represents a compiled state graph.
type StateRunnable[S, U any] struct {
	graph      *StateGraph[S, U]
	successors map[string][]string
	inDegree   map[string]int
}

// Compile validates the graph and returns a StateRunnable instance.
//
// Every edge must join known nodes, every node needs an outgoing edge, all
// nodes must be reachable from the entry point and the edges must not form a
// cycle.
func (g *StateGraph[S, U]) Compile() (*StateRunnable[S, U], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if g.schema == nil {
		return nil, ErrSchemaNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("entry point %s: %w", g.entryPoint, ErrNodeNotFound)
	}

	successors := make(map[string][]string, len(g.nodes))
	inDegree := make(map[string]int, len(g.nodes))
	seen := make(map[Edge]bool, len(g.edges))
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("edge %s -> %s: %s: %w", e.From, e.To, e.From, ErrNodeNotFound)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("edge %s -> %s: %s: %w", e.From, e.To, e.To, ErrNodeNotFound)
		}
		if seen[e] {
			return nil, fmt.Errorf("duplicate edge %s -> %s", e.From, e.To)
		}
		seen[e] = true
		successors[e.From] = append(successors[e.From], e.To)
		if e.To != END {
			inDegree[e.To]++
		}
	}

	for _, name := range g.order {
		if len(successors[name]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}
	if inDegree[g.entryPoint] > 0 {
		return nil, fmt.Errorf("%w: entry point %s has incoming edges", ErrCycle, g.entryPoint)
	}

	// Kahn's algorithm doubles as the reachability check: with the entry point
	// as the only source, a node left unvisited is either unreachable or on a cycle.
	remaining := maps.Clone(inDegree)
	queue := []string{g.entryPoint}
	visited := make(map[string]bool, len(g.nodes))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited[name] = true
		for _, to := range successors[name] {
			if to == END {
				continue
			}
			remaining[to]--
			if remaining[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	for _, name := range g.order {
		if visited[name] {
			continue
		}
		if !g.reachable(name, successors) {
			return nil, fmt.Errorf("%w: %s", ErrUnreachable, name)
		}
		return nil, fmt.Errorf("%w: through %s", ErrCycle, name)
	}

	return &StateRunnable[S, U]{
		graph:      g,
		successors: successors,
		inDegree:   inDegree,
	}, nil
}

func (g *StateGraph[S, U]) reachable(target string, successors map[string][]string) bool {
	seen := map[string]bool{g.entryPoint: true}
	stack := []string{g.entryPoint}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == target {
			return true
		}
		for _, to := range successors[name] {
			if to != END && !seen[to] {
				seen[to] = true
				stack = append(stack, to)
			}
		}
	}
	return false
}

// Invoke executes the compiled graph starting from initialState.
//
// Each node runs exactly once, in its own goroutine, as soon as all of its
// predecessors have been merged. Updates are merged one at a time in
// completion order. The first node or merge failure cancels the context
// passed to the remaining nodes; Invoke waits for running nodes to settle and
// returns the state merged so far together with that error.
func (r *StateRunnable[S, U]) Invoke(ctx context.Context, initialState S) (S, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &execution[S, U]{
		runnable:  r,
		ctx:       ctx,
		cancel:    cancel,
		current:   initialState,
		remaining: maps.Clone(r.inDegree),
	}

	r.notify(ctx, EventChainStart, "graph", initialState, nil)
	run.launch(r.graph.entryPoint)
	run.wg.Wait()

	r.notify(ctx, EventChainEnd, "graph", run.current, run.err)
	return run.current, run.err
}

func (r *StateRunnable[S, U]) notify(ctx context.Context, event NodeEvent, name string, state S, err error) {
	for _, l := range r.graph.listeners {
		l.OnNodeEvent(ctx, event, name, state, err)
	}
}

// execution holds the bookkeeping of one Invoke call.
type execution[S, U any] struct {
	runnable *StateRunnable[S, U]
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	current   S
	remaining map[string]int
	err       error
}

func (x *execution[S, U]) launch(name string) {
	node := x.runnable.graph.nodes[name]

	x.mu.Lock()
	snapshot := x.current
	x.mu.Unlock()

	SafeGo(&x.wg, func() {
		x.runNode(node, snapshot)
	}, func(p any) {
		x.fail(node.Name, snapshot, newPanicError(node.Name, p))
	})
}

func (x *execution[S, U]) runNode(node Node[S, U], snapshot S) {
	r := x.runnable
	if err := x.ctx.Err(); err != nil {
		x.fail(node.Name, snapshot, err)
		return
	}

	r.notify(x.ctx, NodeEventStart, node.Name, snapshot, nil)
	update, err := node.Function(x.ctx, snapshot)
	if err != nil {
		x.fail(node.Name, snapshot, err)
		return
	}

	x.mu.Lock()
	if x.err != nil {
		x.mu.Unlock()
		return
	}
	merged, err := r.graph.schema.Update(x.current, update, node.Branch)
	if err != nil {
		x.mu.Unlock()
		x.fail(node.Name, snapshot, fmt.Errorf("merge: %w", err))
		return
	}
	x.current = merged
	var ready []string
	for _, to := range r.successors[node.Name] {
		if to == END {
			continue
		}
		x.remaining[to]--
		if x.remaining[to] == 0 {
			ready = append(ready, to)
		}
	}
	x.mu.Unlock()

	r.notify(x.ctx, NodeEventComplete, node.Name, merged, nil)
	for _, next := range ready {
		x.launch(next)
	}
}

func (x *execution[S, U]) fail(name string, state S, err error) {
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		err = &NodeError{Node: name, Err: err}
	}

	x.mu.Lock()
	first := x.err == nil
	if first {
		x.err = err
	}
	x.mu.Unlock()

	if first {
		x.cancel()
	}
	x.runnable.notify(x.ctx, NodeEventError, name, state, err)
}
