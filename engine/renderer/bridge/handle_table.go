package bridge

import (
	"fmt"
	"sync"
)

// handleTable maps handles to native objects. Handles are never reused.
type handleTable struct {
	mu      sync.Mutex
	next    Handle
	objects map[Handle]any
}

func newHandleTable() *handleTable {
	return &handleTable{objects: make(map[Handle]any)}
}

func (t *handleTable) insert(obj any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.objects[t.next] = obj
	return t.next
}

func (t *handleTable) remove(h Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.objects[h]
	delete(t.objects, h)
	return obj, ok
}

// Live returns the number of handles not yet removed.
func (t *handleTable) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.objects)
}

// lookup returns the object behind h if it has type T.
func lookup[T any](t *handleTable, h Handle) (T, error) {
	t.mu.Lock()
	obj, ok := t.objects[h]
	t.mu.Unlock()

	var zero T
	if !ok {
		return zero, fmt.Errorf("unknown handle %d", h)
	}
	v, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("handle %d is a %T, not a %T", h, obj, zero)
	}
	return v, nil
}
