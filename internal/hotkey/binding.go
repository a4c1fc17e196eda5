package hotkey

import (
	"fmt"
	"strings"

	hook "github.com/robotn/gohook"
)

// Binding is a parsed key combination such as "f8" or "ctrl+space".
type Binding struct {
	Spec  string
	Codes []uint16
}

// Key name aliases accepted on top of the gohook keycode table.
var aliases = map[string]string{
	"control": "ctrl",
	"escape":  "esc",
	"return":  "enter",
	"win":     "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"menu":    "alt",
}

// ParseBinding parses a "+"-separated key combination into keycodes.
func ParseBinding(spec string) (Binding, error) {
	if strings.TrimSpace(spec) == "" {
		return Binding{}, fmt.Errorf("empty key binding")
	}

	b := Binding{Spec: spec}
	seen := make(map[uint16]bool)

	for _, part := range strings.Split(spec, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		code, ok := hook.Keycode[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown key %q in binding %q", part, spec)
		}
		if seen[code] {
			return Binding{}, fmt.Errorf("duplicate key %q in binding %q", part, spec)
		}
		seen[code] = true
		b.Codes = append(b.Codes, code)
	}

	return b, nil
}

// IsZero reports whether the binding is unset.
func (b Binding) IsZero() bool {
	return len(b.Codes) == 0
}

// satisfied reports whether every key of the binding is currently held.
func (b Binding) satisfied(held map[uint16]bool) bool {
	if b.IsZero() {
		return false
	}
	for _, code := range b.Codes {
		if !held[code] {
			return false
		}
	}
	return true
}
