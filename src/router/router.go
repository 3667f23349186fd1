package router

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/escaperoom/backoffice/src/types"
)

// ErrGameNotFound reports a routed command whose target gameId has no
// live connection. Whether the game never connected or dropped a moment
// earlier is indistinguishable here and treated the same.
var ErrGameNotFound = errors.New("game not found")

// Targets resolves a gameId to live connection IDs.
type Targets interface {
	FindByGameID(gameID string) []string
}

// Sender delivers a message to one connection. A false return means the
// connection is gone or its buffer is full.
type Sender interface {
	SendToClient(clientID string, msg types.Message) bool
}

// Router forwards operator commands to matching game connections and
// applies the interception rule table.
type Router struct {
	targets Targets
	sender  Sender
	rules   []Rule
	logger  zerolog.Logger
}

// New creates a router over the given registry and transport.
func New(targets Targets, sender Sender, rules []Rule, logger zerolog.Logger) *Router {
	return &Router{
		targets: targets,
		sender:  sender,
		rules:   rules,
		logger:  logger.With().Str("component", "router").Logger(),
	}
}

// Route forwards {actionId, payload} to every connection whose gameId
// matches exactly. Duplicate gameIds are legal; all matches receive the
// command. No match returns ErrGameNotFound with no side effects.
// After a successful forward the rule table is evaluated and each
// synthesized command is routed recursively; their failures are logged,
// never propagated to the original caller.
func (r *Router) Route(gameID, action string, payload map[string]any) error {
	ids := r.targets.FindByGameID(gameID)
	if len(ids) == 0 {
		return ErrGameNotFound
	}

	msg := types.Message{
		Event: types.EventCommand,
		Data: map[string]any{
			"actionId": action,
			"payload":  payload,
		},
		Timestamp: time.Now(),
	}
	for _, id := range ids {
		// Fire and forget; one dead connection must not block the rest.
		if !r.sender.SendToClient(id, msg) {
			r.logger.Warn().
				Str("connection_id", id).
				Str("game_id", gameID).
				Str("action", action).
				Msg("command send failed")
		}
	}
	r.logger.Info().
		Str("game_id", gameID).
		Str("action", action).
		Int("targets", len(ids)).
		Msg("command routed")

	r.intercept(gameID, action)
	return nil
}

func (r *Router) intercept(gameID, action string) {
	for _, rule := range r.rules {
		if rule.GameID != gameID || rule.Action != action {
			continue
		}
		for _, cmd := range rule.Effects {
			if err := r.Route(cmd.GameID, cmd.Action, cmd.Payload); err != nil {
				r.logger.Warn().
					Str("game_id", cmd.GameID).
					Str("action", cmd.Action).
					Msg("synthesized command target not connected")
			}
		}
		r.logger.Info().
			Str("game_id", gameID).
			Str("action", action).
			Int("synthesized", len(rule.Effects)).
			Msg("interception rule applied")
	}
}
