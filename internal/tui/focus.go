package tui

// Control is a focusable element of the exam dialog.
type Control int

const (
	ControlPrevious Control = iota
	ControlNext
	ControlSubmit
	ControlExit
)

func (c Control) String() string {
	switch c {
	case ControlPrevious:
		return "Previous"
	case ControlNext:
		return "Next"
	case ControlSubmit:
		return "Submit"
	case ControlExit:
		return "Exit"
	default:
		return ""
	}
}

// FocusRing cycles focus through the dialog controls. Tab order never
// leaves the ring: moving past either end wraps.
type FocusRing struct {
	controls []Control
	pos      int
}

// NewFocusRing focuses the first of controls.
func NewFocusRing(controls ...Control) FocusRing {
	return FocusRing{controls: controls}
}

// Current is the focused control.
func (r FocusRing) Current() Control {
	if len(r.controls) == 0 {
		return ControlSubmit
	}
	return r.controls[r.pos]
}

// Controls lists the ring in tab order.
func (r FocusRing) Controls() []Control { return r.controls }

// Next moves focus forward.
func (r FocusRing) Next() FocusRing {
	if len(r.controls) > 0 {
		r.pos = (r.pos + 1) % len(r.controls)
	}
	return r
}

// Prev moves focus backward.
func (r FocusRing) Prev() FocusRing {
	if n := len(r.controls); n > 0 {
		r.pos = (r.pos - 1 + n) % n
	}
	return r
}
