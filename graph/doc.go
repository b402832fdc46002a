// Package graph provides the dataflow engine that drives a report run.
//
// A StateGraph[S, U] is a directed acyclic graph whose nodes read a snapshot of
// the state S and return a partial update U. A Schema folds every update into
// the state; the origin passed to the schema is the branch the node was
// registered in with InBranch, which lets the schema enforce per-branch
// ownership of fields.
//
// # Scheduling
//
// The compiled StateRunnable counts incoming edges. A node starts once all of
// its predecessors have completed and been merged, so a node with several
// incoming edges is a join barrier. Nodes that become ready together run
// concurrently, each in its own goroutine started through SafeGo, and their
// updates are merged one by one under a mutex in completion order. Every node
// runs exactly once per Invoke.
//
// A failing node does not stop siblings that are already running. It cancels
// the context handed to them, prevents any further node from starting, and
// its error is returned once the graph has settled.
//
// # Observability
//
// NodeListener receives start, complete and error events. CheckpointListener
// persists the merged state after every completed node into a
// store.CheckpointStore, and Exporter draws the graph as a Mermaid flowchart.
//
// # Example
//
//	g := graph.NewStateGraph[State, Update]()
//	g.AddNode("start", "Seed the run", seed)
//	g.AddNode("left", "Left branch", left, graph.InBranch("left"))
//	g.AddNode("right", "Right branch", right, graph.InBranch("right"))
//	g.AddNode("join", "Combine results", join)
//	g.AddEdge("start", "left")
//	g.AddEdge("start", "right")
//	g.AddEdge("left", "join")
//	g.AddEdge("right", "join")
//	g.AddEdge("join", graph.END)
//	g.SetEntryPoint("start")
//	g.SetSchema(graph.SchemaFunc[State, Update](merge))
//
//	runnable, err := g.Compile()
//	if err != nil {
//		return err
//	}
//	final, err := runnable.Invoke(ctx, State{})
package graph
