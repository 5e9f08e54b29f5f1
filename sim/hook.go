package sim

// HookPos names a site at which a Hookable invokes its hooks, for example
// before an event is handled or after a gap movement.
type HookPos struct {
	Name string
}

// HookCtx carries what a hook needs to know about the site that triggered it.
// Item is the object being processed (an event, an access). Detail is
// position-specific extra information.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosBeforeEvent triggers before the engine hands an event to its handler.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after the handler returns.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc lets a plain function serve as a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// A HookableBase keeps a list of hooks for types that embed it.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	return &HookableBase{Hooks: make([]Hook, 0)}
}

// AcceptHook register a hook
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns how many hooks are registered.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook calls every registered hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
