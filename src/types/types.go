package types

import "time"

// Message is a single named event exchanged over a WebSocket connection.
type Message struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
	ClientID  string         `json:"clientId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventHandler handles an incoming event from a connected client.
type EventHandler func(clientID string, msg Message) error

// GameAction is one operator-invocable action declared by a game client.
type GameAction struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Params []string `json:"params,omitempty"`
}

// GameConnection is the registry entry for one live game client.
// State is an opaque key/value blob; the hub never interprets its keys.
type GameConnection struct {
	ConnectionID     string         `json:"connectionId"`
	GameID           string         `json:"gameId"`
	Role             string         `json:"role,omitempty"`
	Name             string         `json:"name"`
	AvailableActions []GameAction   `json:"availableActions"`
	State            map[string]any `json:"state"`
}

// ClientInfo holds metadata about a connected WebSocket client.
type ClientInfo struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind,omitempty"`
	Name        string    `json:"name,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
	Channels    []string  `json:"channels"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}
