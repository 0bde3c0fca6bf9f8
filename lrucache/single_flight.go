/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"runtime/debug"
	"sync"
)

type singleFlightCall[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// singleFlightGroup suppresses duplicate loads: while a load for a key is in progress,
// other callers for the same key wait for it and receive its result.
type singleFlightGroup[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*singleFlightCall[V]
}

func (g *singleFlightGroup[K, V]) Do(key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*singleFlightCall[V])
	}
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		<-c.done
		return c.val, c.err
	}
	c := &singleFlightCall[V]{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	g.call(c, key, fn)
	if panicErr, ok := c.err.(*PanicError); ok {
		panic(panicErr.Value) // re-panic in the goroutine that executed fn
	}
	return c.val, c.err
}

func (g *singleFlightGroup[K, V]) call(c *singleFlightCall[V], key K, fn func() (V, error)) {
	defer func() {
		if v := recover(); v != nil {
			c.err = &PanicError{Value: v, Stack: debug.Stack()}
		}
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn()
}

// PanicError is returned to callers waiting for a load that panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("cache load panicked: %v\n\n%s", p.Value, p.Stack)
}

// Unwrap returns the panic value if it's an error.
func (p *PanicError) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}
