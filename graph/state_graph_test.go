package graph

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Visited []string
	Total   int
	Owner   string
}

type testUpdate struct {
	Visited []string
	Add     int
	Owner   string
}

func mergeTestState(cur testState, u testUpdate, origin string) (testState, error) {
	if u.Owner != "" {
		if cur.Owner != "" && cur.Owner != u.Owner {
			return cur, errors.New("owner already set")
		}
		cur.Owner = u.Owner
	}
	cur.Visited = slices.Concat(cur.Visited, u.Visited)
	cur.Total += u.Add
	return cur, nil
}

func visit(name string, add int) NodeFunc[testState, testUpdate] {
	return func(ctx context.Context, s testState) (testUpdate, error) {
		return testUpdate{Visited: []string{name}, Add: add}, nil
	}
}

func newTestGraph() *StateGraph[testState, testUpdate] {
	g := NewStateGraph[testState, testUpdate]()
	g.SetSchema(SchemaFunc[testState, testUpdate](mergeTestState))
	return g
}

func TestStateGraph_Linear(t *testing.T) {
	g := newTestGraph()
	g.AddNode("a", "first", visit("a", 1))
	g.AddNode("b", "second", visit("b", 2))
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, final.Visited)
	assert.Equal(t, 3, final.Total)
}

func TestStateGraph_FanOutJoinRunsEachNodeOnce(t *testing.T) {
	g := newTestGraph()
	var calls sync.Map
	counted := func(name string, fn NodeFunc[testState, testUpdate]) NodeFunc[testState, testUpdate] {
		return func(ctx context.Context, s testState) (testUpdate, error) {
			n, _ := calls.LoadOrStore(name, new(atomic.Int32))
			n.(*atomic.Int32).Add(1)
			return fn(ctx, s)
		}
	}

	g.AddNode("start", "", counted("start", visit("start", 0)))
	for _, b := range []string{"market", "company", "stock"} {
		first, second := b+"_1", b+"_2"
		g.AddNode(first, "", counted(first, func(ctx context.Context, s testState) (testUpdate, error) {
			time.Sleep(time.Millisecond)
			return testUpdate{Visited: []string{first}, Add: 1}, nil
		}), InBranch(b))
		g.AddNode(second, "", counted(second, visit(second, 1)), InBranch(b))
		g.AddEdge("start", first)
		g.AddEdge(first, second)
		g.AddEdge(second, "join")
	}

	var seenAtJoin []string
	g.AddNode("join", "", counted("join", func(ctx context.Context, s testState) (testUpdate, error) {
		seenAtJoin = slices.Clone(s.Visited)
		return testUpdate{Visited: []string{"join"}}, nil
	}))
	g.AddEdge("join", END)
	g.SetEntryPoint("start")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.NoError(t, err)

	calls.Range(func(key, value any) bool {
		assert.Equal(t, int32(1), value.(*atomic.Int32).Load(), "node %s", key)
		return true
	})
	assert.Len(t, seenAtJoin, 7)
	assert.Equal(t, 6, final.Total)
	assert.Equal(t, "join", final.Visited[len(final.Visited)-1])

	// Within a branch the append order follows the stage order.
	for _, b := range []string{"market", "company", "stock"} {
		i := slices.Index(final.Visited, b+"_1")
		j := slices.Index(final.Visited, b+"_2")
		assert.Less(t, i, j)
	}
}

func TestStateGraph_CompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *StateGraph[testState, testUpdate])
		want  error
	}{
		{
			name: "no entry point",
			build: func(g *StateGraph[testState, testUpdate]) {
				g.AddNode("a", "", visit("a", 0))
				g.AddEdge("a", END)
			},
			want: ErrEntryPointNotSet,
		},
		{
			name: "unknown target",
			build: func(g *StateGraph[testState, testUpdate]) {
				g.AddNode("a", "", visit("a", 0))
				g.AddEdge("a", "missing")
				g.SetEntryPoint("a")
			},
			want: ErrNodeNotFound,
		},
		{
			name: "dangling node",
			build: func(g *StateGraph[testState, testUpdate]) {
				g.AddNode("a", "", visit("a", 0))
				g.AddNode("b", "", visit("b", 0))
				g.AddEdge("a", "b")
				g.SetEntryPoint("a")
			},
			want: ErrNoOutgoingEdge,
		},
		{
			name: "unreachable",
			build: func(g *StateGraph[testState, testUpdate]) {
				g.AddNode("a", "", visit("a", 0))
				g.AddNode("b", "", visit("b", 0))
				g.AddEdge("a", END)
				g.AddEdge("b", END)
				g.SetEntryPoint("a")
			},
			want: ErrUnreachable,
		},
		{
			name: "cycle",
			build: func(g *StateGraph[testState, testUpdate]) {
				g.AddNode("a", "", visit("a", 0))
				g.AddNode("b", "", visit("b", 0))
				g.AddNode("c", "", visit("c", 0))
				g.AddEdge("a", "b")
				g.AddEdge("b", "c")
				g.AddEdge("c", "b")
				g.AddEdge("c", END)
				g.SetEntryPoint("a")
			},
			want: ErrCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph()
			tt.build(g)
			_, err := g.Compile()
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("no schema", func(t *testing.T) {
		g := NewStateGraph[testState, testUpdate]()
		g.AddNode("a", "", visit("a", 0))
		g.AddEdge("a", END)
		g.SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrSchemaNotSet)
	})
}

func TestStateGraph_NodeErrorStopsDownstream(t *testing.T) {
	g := newTestGraph()
	boom := errors.New("boom")
	var downstream atomic.Bool

	g.AddNode("start", "", visit("start", 0))
	g.AddNode("bad", "", func(ctx context.Context, s testState) (testUpdate, error) {
		return testUpdate{}, boom
	}, InBranch("x"))
	g.AddNode("good", "", func(ctx context.Context, s testState) (testUpdate, error) {
		<-ctx.Done()
		return testUpdate{Visited: []string{"good"}}, nil
	}, InBranch("y"))
	g.AddNode("after", "", func(ctx context.Context, s testState) (testUpdate, error) {
		downstream.Store(true)
		return testUpdate{}, nil
	})
	g.AddEdge("start", "bad")
	g.AddEdge("start", "good")
	g.AddEdge("bad", "after")
	g.AddEdge("good", "after")
	g.AddEdge("after", END)
	g.SetEntryPoint("start")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.ErrorIs(t, err, boom)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "bad", nodeErr.Node)
	assert.False(t, downstream.Load())
	assert.Equal(t, []string{"start"}, final.Visited)
}

func TestStateGraph_PanicIsRecovered(t *testing.T) {
	g := newTestGraph()
	g.AddNode("a", "", func(ctx context.Context, s testState) (testUpdate, error) {
		panic("kaboom")
	})
	g.AddEdge("a", END)
	g.SetEntryPoint("a")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), testState{})
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
}

func TestStateGraph_MergeErrorIsFatal(t *testing.T) {
	g := newTestGraph()
	g.AddNode("start", "", visit("start", 0))
	g.AddNode("x", "", func(ctx context.Context, s testState) (testUpdate, error) {
		return testUpdate{Owner: "x"}, nil
	}, InBranch("x"))
	g.AddNode("y", "", func(ctx context.Context, s testState) (testUpdate, error) {
		return testUpdate{Owner: "y"}, nil
	}, InBranch("y"))
	g.AddNode("join", "", visit("join", 0))
	g.AddEdge("start", "x")
	g.AddEdge("start", "y")
	g.AddEdge("x", "join")
	g.AddEdge("y", "join")
	g.AddEdge("join", END)
	g.SetEntryPoint("start")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), testState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner already set")
	assert.NotContains(t, final.Visited, "join")
}

func TestStateGraph_ListenersAndOrigin(t *testing.T) {
	g := NewStateGraph[testState, testUpdate]()
	var mu sync.Mutex
	origins := map[string]string{}
	g.SetSchema(SchemaFunc[testState, testUpdate](func(cur testState, u testUpdate, origin string) (testState, error) {
		mu.Lock()
		origins[u.Visited[0]] = origin
		mu.Unlock()
		return mergeTestState(cur, u, origin)
	}))
	g.AddNode("a", "", visit("a", 0))
	g.AddNode("b", "", visit("b", 0), InBranch("stock"))
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")

	var events []NodeEvent
	g.AddListener(NodeListenerFunc[testState](func(ctx context.Context, event NodeEvent, name string, s testState, err error) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	}))

	runnable, err := g.Compile()
	require.NoError(t, err)
	_, err = runnable.Invoke(context.Background(), testState{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": "", "b": "stock"}, origins)
	assert.Equal(t, []NodeEvent{
		EventChainStart,
		NodeEventStart, NodeEventComplete,
		NodeEventStart, NodeEventComplete,
		EventChainEnd,
	}, events)
}

func TestStateGraph_CancelledContext(t *testing.T) {
	g := newTestGraph()
	g.AddNode("a", "", visit("a", 0))
	g.AddEdge("a", END)
	g.SetEntryPoint("a")

	runnable, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runnable.Invoke(ctx, testState{})
	assert.ErrorIs(t, err, context.Canceled)
}
