// Package cleanup runs shutdown work, such as closing the --log-file sink,
// exactly once on the way out of the process, whether the command finished
// or failed.
package cleanup

import (
	"errors"
	"fmt"
	"sync"
)

type hook struct {
	name string
	fn   func() error
}

var (
	mu    sync.Mutex
	stack []hook
)

// Register queues fn under name. Hooks run newest first, so something
// opened later is released before what it depends on.
func Register(name string, fn func() error) {
	if fn == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	stack = append(stack, hook{name: name, fn: fn})
}

// RunAll drains the queue. Every hook runs even when an earlier one fails;
// the failures come back joined, each tagged with its hook name.
func RunAll() error {
	mu.Lock()
	pending := stack
	stack = nil
	mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		h := pending[i]
		if err := h.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}
