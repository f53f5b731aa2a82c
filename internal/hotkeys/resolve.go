package hotkeys

import (
	"sort"
	"strings"

	"github.com/1broseidon/steward/internal/command"
	"github.com/1broseidon/steward/internal/store"
)

// Binding is a key combination bound to a command name.
type Binding struct {
	KeyCombination string
	Command        string
}

// Skipped is a stored keybind that will not be grabbed.
type Skipped struct {
	KeyCombination string
	Command        string
	Reason         string
}

var modifiers = map[string]bool{
	"shift": true, "lock": true, "control": true,
	"mod1": true, "mod2": true, "mod3": true, "mod4": true, "mod5": true,
	"any": true,
}

// Resolve filters stored keybinds down to the ones that can be grabbed,
// sorted by key combination.
func Resolve(binds []store.Keybind) ([]Binding, []Skipped) {
	var plan []Binding
	var skipped []Skipped
	seen := make(map[string]bool)

	sorted := make([]store.Keybind, len(binds))
	copy(sorted, binds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].KeyCombination < sorted[j].KeyCombination })

	for _, kb := range sorted {
		combo := strings.TrimSpace(kb.KeyCombination)
		skip := func(reason string) {
			skipped = append(skipped, Skipped{KeyCombination: kb.KeyCombination, Command: kb.Command, Reason: reason})
		}
		switch {
		case !command.IsCommand(kb.Command):
			skip("unknown command")
		case !validCombo(combo):
			skip("malformed key combination")
		case seen[strings.ToLower(combo)]:
			skip("duplicate key combination")
		default:
			seen[strings.ToLower(combo)] = true
			plan = append(plan, Binding{KeyCombination: combo, Command: kb.Command})
		}
	}
	return plan, skipped
}

// validCombo accepts the xgbutil keybind syntax: zero or more modifiers and
// exactly one trailing key, joined by '-'.
func validCombo(combo string) bool {
	if combo == "" {
		return false
	}
	parts := strings.Split(combo, "-")
	key := parts[len(parts)-1]
	if key == "" || modifiers[strings.ToLower(key)] {
		return false
	}
	for _, mod := range parts[:len(parts)-1] {
		if !modifiers[strings.ToLower(mod)] {
			return false
		}
	}
	return true
}
