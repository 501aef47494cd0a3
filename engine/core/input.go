package core

// Button identifies a mouse button.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle

	ButtonCount
)

// KeyCode identifies a keyboard key. Values follow the windowing
// system's layout: printable keys are their ASCII code, function and
// modifier keys sit above 255.
type KeyCode uint16

const (
	KeySpace KeyCode = 32
	KeyA     KeyCode = 65
	KeyD     KeyCode = 68
	KeyS     KeyCode = 83
	KeyW     KeyCode = 87

	KeyEscape    KeyCode = 256
	KeyEnter     KeyCode = 257
	KeyTab       KeyCode = 258
	KeyRight     KeyCode = 262
	KeyLeft      KeyCode = 263
	KeyDown      KeyCode = 264
	KeyUp        KeyCode = 265
	KeyF1        KeyCode = 290
	KeyF2        KeyCode = 291
	KeyF3        KeyCode = 292
	KeyLeftShift KeyCode = 340
	KeyLeftCtrl  KeyCode = 341

	maxKeys = 512
)

type keyboardState struct {
	keys [maxKeys]bool
}

type mouseState struct {
	x, y    int32
	buttons [ButtonCount]bool
}

// Input tracks keyboard and mouse state across frames. The Process
// methods are fed by the platform's callbacks and fire events on the
// bus; the Is/Was queries compare the current frame against the last.
//
// All methods run on the main thread, between the platform's event
// pump and the frame update. No locking.
type Input struct {
	bus *EventBus

	keyboardCurrent  keyboardState
	keyboardPrevious keyboardState
	mouseCurrent     mouseState
	mousePrevious    mouseState
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update copies the current states into the previous ones. The run
// loop calls it at the end of each frame, after all input queries.
func (in *Input) Update() {
	in.keyboardPrevious = in.keyboardCurrent
	in.mousePrevious = in.mouseCurrent
}

// ProcessKey records a key transition and fires the matching event.
// Repeats (no state change) are dropped.
func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key >= maxKeys {
		return
	}
	if in.keyboardCurrent.keys[key] == pressed {
		return
	}
	in.keyboardCurrent.keys[key] = pressed

	code := EventKeyReleased
	if pressed {
		code = EventKeyPressed
	}
	in.bus.Fire(EventContext{Type: code, Data: KeyEvent{Key: key}})
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return key < maxKeys && in.keyboardCurrent.keys[key]
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.IsKeyDown(key)
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return key < maxKeys && in.keyboardPrevious.keys[key]
}

// KeyPressedThisFrame reports a down transition between the previous
// frame and this one.
func (in *Input) KeyPressedThisFrame(key KeyCode) bool {
	return in.IsKeyDown(key) && !in.WasKeyDown(key)
}

// ProcessButton records a mouse button transition and fires the
// matching event.
func (in *Input) ProcessButton(button Button, pressed bool) {
	if button >= ButtonCount {
		return
	}
	if in.mouseCurrent.buttons[button] == pressed {
		return
	}
	in.mouseCurrent.buttons[button] = pressed

	code := EventButtonReleased
	if pressed {
		code = EventButtonPressed
	}
	in.bus.Fire(EventContext{Type: code, Data: MouseEvent{
		Button: button,
		X:      in.mouseCurrent.x,
		Y:      in.mouseCurrent.y,
	}})
}

func (in *Input) IsButtonDown(button Button) bool {
	return button < ButtonCount && in.mouseCurrent.buttons[button]
}

func (in *Input) WasButtonDown(button Button) bool {
	return button < ButtonCount && in.mousePrevious.buttons[button]
}

// ProcessMouseMove records the cursor position and fires a move event.
// Duplicate positions are dropped.
func (in *Input) ProcessMouseMove(x, y int32) {
	if in.mouseCurrent.x == x && in.mouseCurrent.y == y {
		return
	}
	in.mouseCurrent.x = x
	in.mouseCurrent.y = y
	in.bus.Fire(EventContext{Type: EventMouseMoved, Data: MouseEvent{X: x, Y: y}})
}

func (in *Input) MousePosition() (int32, int32) {
	return in.mouseCurrent.x, in.mouseCurrent.y
}

func (in *Input) PreviousMousePosition() (int32, int32) {
	return in.mousePrevious.x, in.mousePrevious.y
}

// ProcessMouseWheel fires a wheel event. Wheel input is edge-only, no
// state is kept.
func (in *Input) ProcessMouseWheel(delta float64) {
	in.bus.Fire(EventContext{Type: EventMouseWheel, Data: MouseEvent{Scroll: delta}})
}
