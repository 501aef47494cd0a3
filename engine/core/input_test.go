package core

import "testing"

func TestInputKeyStates(t *testing.T) {
	bus := NewEventBus()
	input := NewInput(bus)

	var pressed, released int
	bus.Register(EventKeyPressed, func(EventContext) bool { pressed++; return true })
	bus.Register(EventKeyReleased, func(EventContext) bool { released++; return true })

	input.ProcessKey(KeyW, true)
	if !input.IsKeyDown(KeyW) {
		t.Error("key should be down after press")
	}
	if pressed != 1 {
		t.Errorf("press events: got %d, want 1", pressed)
	}

	// Holding a key does not fire again.
	input.ProcessKey(KeyW, true)
	if pressed != 1 {
		t.Errorf("press events after repeat: got %d, want 1", pressed)
	}

	input.ProcessKey(KeyW, false)
	if input.IsKeyDown(KeyW) {
		t.Error("key should be up after release")
	}
	if released != 1 {
		t.Errorf("release events: got %d, want 1", released)
	}
}

func TestInputFrameTransitions(t *testing.T) {
	input := NewInput(NewEventBus())

	input.ProcessKey(KeySpace, true)
	if !input.KeyPressedThisFrame(KeySpace) {
		t.Error("press should read as this-frame before Update")
	}

	input.Update()
	if input.KeyPressedThisFrame(KeySpace) {
		t.Error("held key still reads as pressed this frame after Update")
	}
	if !input.IsKeyDown(KeySpace) || !input.WasKeyDown(KeySpace) {
		t.Error("held key should be down in both frames")
	}

	input.ProcessKey(KeySpace, false)
	input.Update()
	if !input.IsKeyUp(KeySpace) {
		t.Error("released key should read up")
	}
}

func TestInputMouse(t *testing.T) {
	bus := NewEventBus()
	input := NewInput(bus)

	var moves, wheels int
	var lastButton MouseEvent
	bus.Register(EventMouseMoved, func(EventContext) bool { moves++; return true })
	bus.Register(EventMouseWheel, func(EventContext) bool { wheels++; return true })
	bus.Register(EventButtonPressed, func(ctx EventContext) bool {
		lastButton = ctx.Data.(MouseEvent)
		return true
	})

	input.ProcessMouseMove(10, 20)
	input.ProcessMouseMove(10, 20)
	if moves != 1 {
		t.Errorf("duplicate position fired %d move events, want 1", moves)
	}

	input.ProcessButton(ButtonLeft, true)
	if !input.IsButtonDown(ButtonLeft) {
		t.Error("button should be down after press")
	}
	if lastButton.X != 10 || lastButton.Y != 20 {
		t.Errorf("button event position: got (%d, %d), want (10, 20)", lastButton.X, lastButton.Y)
	}

	input.Update()
	input.ProcessMouseMove(30, 40)
	x, y := input.MousePosition()
	px, py := input.PreviousMousePosition()
	if x != 30 || y != 40 || px != 10 || py != 20 {
		t.Errorf("positions: got (%d,%d) prev (%d,%d)", x, y, px, py)
	}

	input.ProcessMouseWheel(1.5)
	if wheels != 1 {
		t.Errorf("wheel events: got %d, want 1", wheels)
	}
}

func TestInputOutOfRangeKeyIgnored(t *testing.T) {
	input := NewInput(NewEventBus())
	input.ProcessKey(KeyCode(maxKeys), true)
	if input.IsKeyDown(KeyCode(maxKeys)) {
		t.Error("out-of-range key should never read down")
	}
}
