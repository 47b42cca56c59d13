// Package hooking allows observers to be notified as an estimation
// progresses.
package hooking

import "sync"

// HookPos names a point in an estimation where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx describes one hook invocation. Domain is the object that invokes
// the hook, Item is the subject at the position (for example, a result) and
// Detail carries position-specific data.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is invoked by a Hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// OnPos returns a hook that forwards only the invocations at pos.
func OnPos(pos *HookPos, hook Hook) Hook {
	return HookFunc(func(ctx HookCtx) {
		if ctx.Pos == pos {
			hook.Func(ctx)
		}
	})
}

// HookableBase implements Hookable. Hooks may be registered while other
// goroutines invoke them; each invocation sees the hooks registered when it
// starts.
type HookableBase struct {
	lock     sync.RWMutex
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return len(h.hookList)
}

// Hooks returns a copy of the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return append([]Hook(nil), h.hookList...)
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook calls every registered hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks() {
		hook.Func(ctx)
	}
}
