package exam

import "github.com/stemsi/exstem-learn/internal/model"

// Key identifies a keyboard key by its normalized name.
type Key string

const (
	KeyLeft  Key = "left"
	KeyRight Key = "right"
	Key1     Key = "1"
	Key2     Key = "2"
	Key3     Key = "3"
	Key4     Key = "4"
)

// ActionKind enumerates what a key does during an exam.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionPrevious
	ActionNext
	ActionSelect
)

// Action is the effect bound to a key. Option is set for ActionSelect.
type Action struct {
	Kind   ActionKind
	Option string
}

// KeyMap binds keys to exam actions.
type KeyMap map[Key]Action

// DefaultKeyMap binds arrows to navigation and 1–4 to options A–D.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		KeyLeft:  {Kind: ActionPrevious},
		KeyRight: {Kind: ActionNext},
		Key1:     {Kind: ActionSelect, Option: model.OptionA},
		Key2:     {Kind: ActionSelect, Option: model.OptionB},
		Key3:     {Kind: ActionSelect, Option: model.OptionC},
		Key4:     {Kind: ActionSelect, Option: model.OptionD},
	}
}

// Lookup returns the action bound to k.
func (m KeyMap) Lookup(k Key) (Action, bool) {
	a, ok := m[k]
	if !ok || a.Kind == ActionNone {
		return Action{}, false
	}
	return a, true
}
