// Package intent implements component J: the two channels a live session
// accepts changes through. Performance intents (SetMacro, NudgeMacro,
// ToggleLayer, JumpSection, SetTempo) are validated first. SetMacro and
// NudgeMacro then write the scheduler's MacroTable directly; the others
// are forwarded as control-ring messages and take effect on a bar
// boundary.
// Structural intents are AST-level diffs gated by an explicit accept
// before they ever reach the compiler.
//
// Action/Doer/Enabler is adapted from the teacher's tracker/action.go: a
// Doer performs the intent, an optional Enabler on the same value reports
// whether it is currently allowed (range/existence validation), and
// Action.Do refuses to call through to a disabled Doer.
package intent

// Doer performs an intent.
type Doer interface {
	Do()
}

// Enabler reports whether a Doer implementing it is currently allowed to
// run. A Doer that does not implement Enabler is always allowed.
type Enabler interface {
	Enabled() bool
}

// Action wraps a Doer, checking Enabler before calling through.
type Action struct {
	doer Doer
}

// MakeAction wraps doer in an Action.
func MakeAction(doer Doer) Action {
	return Action{doer: doer}
}

// Do runs the action if it is enabled and has a Doer.
func (a Action) Do() {
	if a.doer == nil {
		return
	}
	if e, ok := a.doer.(Enabler); ok && !e.Enabled() {
		return
	}
	a.doer.Do()
}

// Enabled reports whether the action would currently run.
func (a Action) Enabled() bool {
	if a.doer == nil {
		return false
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true
	}
	return e.Enabled()
}
