package core

import "testing"

func TestEventBusFireOrderAndStop(t *testing.T) {
	bus := NewEventBus()

	var order []int
	bus.Register(EventQuit, func(EventContext) bool {
		order = append(order, 1)
		return false
	})
	bus.Register(EventQuit, func(EventContext) bool {
		order = append(order, 2)
		return true
	})
	bus.Register(EventQuit, func(EventContext) bool {
		order = append(order, 3)
		return false
	})

	handled := bus.Fire(EventContext{Type: EventQuit})
	if !handled {
		t.Error("Fire should report the event handled")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handler order: got %v, want [1 2]", order)
	}

	if bus.Fire(EventContext{Type: EventResized}) {
		t.Error("event with no handlers reported handled")
	}
}

func TestEventBusEnqueueDispatch(t *testing.T) {
	bus := NewEventBus()

	var got []ResizeEvent
	bus.Register(EventResized, func(ctx EventContext) bool {
		got = append(got, ctx.Data.(ResizeEvent))
		return true
	})

	bus.Enqueue(EventContext{Type: EventResized, Data: ResizeEvent{Width: 100, Height: 50}})
	bus.Enqueue(EventContext{Type: EventResized, Data: ResizeEvent{Width: 200, Height: 150}})
	if len(got) != 0 {
		t.Fatal("queued events dispatched before Dispatch")
	}

	bus.Dispatch()
	if len(got) != 2 {
		t.Fatalf("dispatched events: got %d, want 2", len(got))
	}
	if got[0].Width != 100 || got[1].Width != 200 {
		t.Errorf("dispatch order: got %+v", got)
	}

	// Nothing left for a second drain.
	got = got[:0]
	bus.Dispatch()
	if len(got) != 0 {
		t.Errorf("second Dispatch redelivered %d events", len(got))
	}
}

func TestEventBusPayloadTypes(t *testing.T) {
	bus := NewEventBus()

	var key KeyCode
	bus.Register(EventKeyPressed, func(ctx EventContext) bool {
		key = ctx.Data.(KeyEvent).Key
		return true
	})
	bus.Fire(EventContext{Type: EventKeyPressed, Data: KeyEvent{Key: KeyEscape}})
	if key != KeyEscape {
		t.Errorf("key payload: got %d, want escape", key)
	}
}
