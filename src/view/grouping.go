// Package view contains presentation helpers computed from registry
// snapshots. Grouping instances under one logical game is a display
// concern; the registry itself never groups.
package view

import (
	"strings"

	"github.com/samber/lo"

	"github.com/escaperoom/backoffice/src/types"
)

// GameGroup is one logical game tab: all connected instances sharing a
// base ID.
type GameGroup struct {
	BaseID    string                 `json:"baseId"`
	Instances []types.GameConnection `json:"instances"`
}

// groupAliases collapses distinct gameId prefixes into one logical
// game, matching the operator console's tab layout.
var groupAliases = map[string]string{
	"sidequest-computer": "sidequest",
	"sidequest-uplink":   "sidequest",
}

// BaseID extracts the logical game ID from a possibly role-qualified
// gameId: "labyrinthe:explorer" -> "labyrinthe". Alias prefixes such as
// "sidequest-computer" map onto their shared group.
func BaseID(gameID string) string {
	base, _, _ := strings.Cut(gameID, ":")
	if alias, ok := groupAliases[base]; ok {
		return alias
	}
	return base
}

// GroupByBase groups a snapshot by base gameId, preserving the
// snapshot's order for both groups and instances.
func GroupByBase(snapshot []types.GameConnection) []GameGroup {
	grouped := lo.GroupBy(snapshot, func(g types.GameConnection) string {
		return BaseID(g.GameID)
	})

	// Non-nil even when empty so the list endpoints render [] alike.
	groups := make([]GameGroup, 0, len(grouped))
	seen := make(map[string]bool)
	for _, g := range snapshot {
		base := BaseID(g.GameID)
		if seen[base] {
			continue
		}
		seen[base] = true
		groups = append(groups, GameGroup{BaseID: base, Instances: grouped[base]})
	}
	return groups
}
