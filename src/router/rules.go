package router

// Command is an ephemeral routed command. It is never stored; its only
// effect is the forward plus any synthesized follow-ups.
type Command struct {
	GameID  string
	Action  string
	Payload map[string]any
}

// Rule synthesizes follow-up commands after a command matching its
// trigger pair has been forwarded.
//
// The table must stay acyclic: no rule may reach, directly or through
// other rules, the (gameId, action) pair that triggered it. The known
// set is finite and static, so this is audited by inspection (and a
// test) rather than guarded at runtime.
type Rule struct {
	GameID  string
	Action  string
	Effects []Command
}

// DefaultRules returns the static cross-game interception table.
// The aria dilemma phase freezes the concurrently running labyrinth:
// both labyrinth roles are paused when the dilemma starts and resumed
// when it ends.
func DefaultRules() []Rule {
	return []Rule{
		{
			GameID: "aria",
			Action: "enable_dilemma",
			Effects: []Command{
				{GameID: "labyrinthe:explorer", Action: "dilemma_start", Payload: map[string]any{}},
				{GameID: "labyrinthe:protector", Action: "dilemma_start", Payload: map[string]any{}},
			},
		},
		{
			GameID: "aria",
			Action: "disable_dilemma",
			Effects: []Command{
				{GameID: "labyrinthe:explorer", Action: "dilemma_end", Payload: map[string]any{}},
				{GameID: "labyrinthe:protector", Action: "dilemma_end", Payload: map[string]any{}},
			},
		},
	}
}
