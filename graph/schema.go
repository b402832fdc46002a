package graph

// Schema defines how a partial update is folded into the state.
//
// origin is the branch of the node that produced the update, or "" for
// mainline nodes. Implementations must not mutate current: running nodes may
// still hold snapshots that share its backing storage.
type Schema[S, U any] interface {
	Update(current S, update U, origin string) (S, error)
}

// SchemaFunc adapts a plain function to the Schema interface.
type SchemaFunc[S, U any] func(current S, update U, origin string) (S, error)

// Update implements Schema.
func (f SchemaFunc[S, U]) Update(current S, update U, origin string) (S, error) {
	return f(current, update, origin)
}
