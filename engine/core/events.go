package core

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/basalto/engine/containers"
)

// EventCode identifies an engine event. Applications extending the
// vocabulary should start their own codes at EventUser.
type EventCode uint16

const (
	// EventQuit asks the run loop to stop after the current frame.
	EventQuit EventCode = iota + 1
	EventKeyPressed
	EventKeyReleased
	EventButtonPressed
	EventButtonReleased
	EventMouseMoved
	EventMouseWheel
	EventResized

	EventUser EventCode = 256
)

// KeyEvent is the payload of EventKeyPressed and EventKeyReleased.
type KeyEvent struct {
	Key KeyCode
}

// MouseEvent is the payload of the button, move and wheel events.
type MouseEvent struct {
	Button Button
	X      int32
	Y      int32
	Scroll float64
}

// ResizeEvent is the payload of EventResized. A zero extent means the
// window was minimized.
type ResizeEvent struct {
	Width  uint32
	Height uint32
}

// EventContext pairs a code with its typed payload.
type EventContext struct {
	Type EventCode
	Data any
}

// EventHandler consumes one event. Returning true marks the event
// handled and stops propagation to later handlers.
type EventHandler func(EventContext) bool

// EventBus routes events to registered handlers. Fire dispatches
// immediately; Enqueue defers until the next Dispatch, which the run
// loop calls once per frame. Each bus is independent state; subsystems
// share one by being handed the same instance.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventCode][]EventHandler
	pending  *containers.RingQueue[EventContext]
}

const pendingEventCapacity = 256

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventCode][]EventHandler),
		pending:  containers.NewRingQueue[EventContext](pendingEventCapacity),
	}
}

// Register appends a handler for the given code. Handlers run in
// registration order.
func (b *EventBus) Register(code EventCode, handler EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[code] = append(b.handlers[code], handler)
}

// Fire dispatches the event to every handler for its code, stopping at
// the first one that reports it handled.
func (b *EventBus) Fire(ctx EventContext) bool {
	b.mu.RLock()
	handlers := b.handlers[ctx.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if handler(ctx) {
			return true
		}
	}
	return false
}

// Enqueue defers the event until the next Dispatch. When the queue is
// full the event is dropped; a full queue means the frame loop has
// stalled, and late-delivered input is worse than lost input.
func (b *EventBus) Enqueue(ctx EventContext) {
	b.mu.Lock()
	err := b.pending.Enqueue(ctx)
	b.mu.Unlock()
	if errors.Is(err, containers.ErrQueueFull) {
		LogWarn("event queue full, dropping event %d", ctx.Type)
	}
}

// Dispatch drains every pending event through Fire.
func (b *EventBus) Dispatch() {
	for {
		b.mu.Lock()
		ctx, err := b.pending.Dequeue()
		b.mu.Unlock()
		if err != nil {
			return
		}
		b.Fire(ctx)
	}
}
