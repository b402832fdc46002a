package graph

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// SafeGo runs fn in a new goroutine tracked by wg. A panic inside fn is
// recovered and handed to onPanic instead of crashing the process.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}

// PanicError is the error recorded for a node that panicked.
type PanicError struct {
	Node  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in node %s: %v", e.Node, e.Value)
}

func newPanicError(node string, value any) *PanicError {
	return &PanicError{Node: node, Value: value, Stack: debug.Stack()}
}
