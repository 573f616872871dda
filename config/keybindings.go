package config

import (
	"fmt"
	"sort"
	"strings"
)

// Island surface actions
const (
	ActionPrevious = "previous"
	ActionNext     = "next"
	ActionChoose   = "choose"
	ActionDismiss  = "dismiss"
	ActionHold     = "hold"
	ActionQuit     = "quit"
)

// KeyBindingEntry binds keys to one island action
type KeyBindingEntry struct {
	Keys        []string `yaml:"keys" mapstructure:"keys"`
	Description string   `yaml:"description,omitempty" mapstructure:"description"`
	Enabled     *bool    `yaml:"enabled,omitempty" mapstructure:"enabled"`
}

// GetDefaultKeybindings returns the default keybinding configuration.
// Entries in overlay.keybindings replace the matching default.
func GetDefaultKeybindings() map[string]KeyBindingEntry {
	enabled := true
	return map[string]KeyBindingEntry{
		ActionPrevious: {Keys: []string{"left", "h", "shift+tab"}, Description: "select previous dialogue action", Enabled: &enabled},
		ActionNext:     {Keys: []string{"right", "l", "tab"}, Description: "select next dialogue action", Enabled: &enabled},
		ActionChoose:   {Keys: []string{"enter"}, Description: "choose the selected action", Enabled: &enabled},
		ActionDismiss:  {Keys: []string{"esc"}, Description: "dismiss the overlay", Enabled: &enabled},
		ActionHold:     {Keys: []string{" "}, Description: "hold or release the message timer", Enabled: &enabled},
		ActionQuit:     {Keys: []string{"ctrl+c"}, Description: "stop the agent", Enabled: &enabled},
	}
}

// ResolveKeybindings merges overrides onto the defaults. Disabled actions
// resolve to no keys.
func ResolveKeybindings(overrides map[string]KeyBindingEntry) map[string][]string {
	merged := GetDefaultKeybindings()
	for action, entry := range overrides {
		if _, ok := merged[action]; !ok {
			continue
		}
		if entry.Keys == nil {
			entry.Keys = merged[action].Keys
		}
		merged[action] = entry
	}

	out := make(map[string][]string, len(merged))
	for action, entry := range merged {
		if entry.Enabled != nil && !*entry.Enabled {
			out[action] = nil
			continue
		}
		out[action] = entry.Keys
	}
	return out
}

// ValidateKeybindings rejects unknown actions and keys bound to more than one action
func ValidateKeybindings(overrides map[string]KeyBindingEntry) error {
	defaults := GetDefaultKeybindings()
	for action := range overrides {
		if _, ok := defaults[action]; !ok {
			return fmt.Errorf("unknown keybinding action %q", action)
		}
	}

	owners := make(map[string]string)
	resolved := ResolveKeybindings(overrides)
	actions := make([]string, 0, len(resolved))
	for action := range resolved {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	var conflicts []string
	for _, action := range actions {
		for _, k := range resolved[action] {
			if other, taken := owners[k]; taken {
				conflicts = append(conflicts, fmt.Sprintf("%q (%s, %s)", k, other, action))
				continue
			}
			owners[k] = action
		}
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("conflicting keybindings: %s", strings.Join(conflicts, ", "))
	}
	return nil
}
