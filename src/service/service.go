package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/escaperoom/backoffice/src/hub"
	"github.com/escaperoom/backoffice/src/registry"
	"github.com/escaperoom/backoffice/src/relay"
	"github.com/escaperoom/backoffice/src/router"
	"github.com/escaperoom/backoffice/src/types"
)

var validate = validator.New()

// Gamemaster wires the transport event surface to the registry, the
// command router and the broadcast publisher.
type Gamemaster struct {
	hub       *hub.Hub
	registry  *registry.Registry
	router    *router.Router
	publisher *relay.Publisher
	logger    zerolog.Logger
}

// New creates the gamemaster service over its collaborators.
func New(h *hub.Hub, reg *registry.Registry, rt *router.Router, pub *relay.Publisher, logger zerolog.Logger) *Gamemaster {
	return &Gamemaster{
		hub:       h,
		registry:  reg,
		router:    rt,
		publisher: pub,
		logger:    logger.With().Str("component", "gamemaster").Logger(),
	}
}

// Bind registers all event handlers and lifecycle callbacks on the hub.
func (g *Gamemaster) Bind() {
	g.hub.OnConnection(g.onConnect)
	g.hub.OnDisconnection(g.onDisconnect)

	g.hub.RegisterHandler(types.EventRegisterGame, g.handleRegisterGame)
	g.hub.RegisterHandler(types.EventStateUpdate, g.handleStateUpdate)
	g.hub.RegisterHandler(types.EventRegisterScreen, g.subscribeTo(relay.ChannelScreen))
	g.hub.RegisterHandler(types.EventRegisterRecorder, g.subscribeTo(relay.ChannelRecorder))
	g.hub.RegisterHandler(types.EventRegisterCamera, g.subscribeTo(relay.ChannelCamera))
	g.hub.RegisterHandler(types.EventRegisterMusic, g.subscribeTo(relay.ChannelMusic))
	g.hub.RegisterHandler(types.EventUnregisterScreen, g.unsubscribeFrom(relay.ChannelScreen))
	g.hub.RegisterHandler(types.EventUnregisterRecorder, g.unsubscribeFrom(relay.ChannelRecorder))
	g.hub.RegisterHandler(types.EventUnregisterCamera, g.unsubscribeFrom(relay.ChannelCamera))
	g.hub.RegisterHandler(types.EventUnregisterMusic, g.unsubscribeFrom(relay.ChannelMusic))
	g.hub.RegisterHandler(types.EventRegisterOperator, g.handleRegisterOperator)
	g.hub.RegisterHandler(types.EventCommandRequest, g.handleCommand)
	g.hub.RegisterHandler(types.EventAdminMessage, g.handleAdminMessage)
	g.hub.RegisterHandler(types.EventRecordStartReq, g.handleRecordStart)
	g.hub.RegisterHandler(types.EventRecordStopReq, g.handleRecordStop)
	g.hub.RegisterHandler(types.EventRebootCamera, g.handleRebootCamera)
	g.hub.RegisterHandler(types.EventCameraFrame, g.handleCameraFrame)
	g.hub.RegisterHandler(types.EventAudioChunk, g.handleAudioChunk)
	g.hub.RegisterHandler(types.EventMusicToggle, g.handleMusicToggle)
	g.hub.RegisterHandler(types.EventMusicState, g.handleMusicState)
}

// onConnect subscribes handshake-declared clients to their channels.
func (g *Gamemaster) onConnect(clientID string) {
	info := g.hub.ClientInfo(clientID)
	if info == nil {
		return
	}
	switch info.Kind {
	case hub.KindScreen:
		g.hub.Subscribe(relay.ChannelScreen, clientID)
	case hub.KindRecorder:
		g.hub.Subscribe(relay.ChannelRecorder, clientID)
	}
}

// onDisconnect drops the registry entry the instant the transport
// closes. A reconnecting client is a brand-new connection.
func (g *Gamemaster) onDisconnect(clientID string) {
	g.registry.Remove(clientID)
}

type registerPayload struct {
	GameID           string             `json:"gameId" validate:"required"`
	Role             string             `json:"role"`
	Name             string             `json:"name" validate:"required"`
	AvailableActions []types.GameAction `json:"availableActions"`
}

func (g *Gamemaster) handleRegisterGame(clientID string, msg types.Message) error {
	var p registerPayload
	if err := decode(msg.Data, &p); err != nil {
		return fmt.Errorf("register:game payload: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("register:game payload: %w", err)
	}
	g.registry.Register(clientID, types.GameConnection{
		GameID:           p.GameID,
		Role:             p.Role,
		Name:             p.Name,
		AvailableActions: p.AvailableActions,
		State:            map[string]any{},
	})
	return nil
}

type statePayload struct {
	State            map[string]any     `json:"state"`
	AvailableActions []types.GameAction `json:"availableActions"`
}

func (g *Gamemaster) handleStateUpdate(clientID string, msg types.Message) error {
	var p statePayload
	if err := decode(msg.Data, &p); err != nil {
		return fmt.Errorf("state:update payload: %w", err)
	}
	// Silent no-op when the connection already closed.
	g.registry.UpdateState(clientID, p.AvailableActions, p.State)
	return nil
}

func (g *Gamemaster) subscribeTo(channel string) types.EventHandler {
	return func(clientID string, _ types.Message) error {
		g.hub.Subscribe(channel, clientID)
		return nil
	}
}

// unsubscribeFrom lets a consumer leave a relay channel without
// dropping its connection, e.g. a screen going dark between sessions.
func (g *Gamemaster) unsubscribeFrom(channel string) types.EventHandler {
	return func(clientID string, _ types.Message) error {
		g.hub.Unsubscribe(channel, clientID)
		return nil
	}
}

// handleRegisterOperator subscribes nothing extra: snapshot broadcasts
// already reach every connection. It replays the current snapshot so a
// freshly opened console does not wait for the next registry change.
func (g *Gamemaster) handleRegisterOperator(clientID string, _ types.Message) error {
	g.hub.SendToClient(clientID, types.Message{
		Event:     types.EventGamesUpdated,
		Data:      map[string]any{"games": g.registry.Snapshot()},
		Timestamp: time.Now(),
	})
	return nil
}

type commandPayload struct {
	GameID   string         `json:"gameId" validate:"required"`
	ActionID string         `json:"actionId" validate:"required"`
	Payload  map[string]any `json:"payload"`
}

func (g *Gamemaster) handleCommand(clientID string, msg types.Message) error {
	var p commandPayload
	if err := decode(msg.Data, &p); err != nil {
		return fmt.Errorf("command payload: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("command payload: %w", err)
	}
	if err := g.router.Route(p.GameID, p.ActionID, p.Payload); err != nil {
		if errors.Is(err, router.ErrGameNotFound) {
			// Transient indicator on the issuing console only.
			g.hub.SendToClient(clientID, types.Message{
				Event: types.EventCommandError,
				Data: map[string]any{
					"gameId": p.GameID,
					"error":  "Game not found",
				},
				Timestamp: time.Now(),
			})
			return nil
		}
		return err
	}
	return nil
}

type adminMessagePayload struct {
	Text      string `json:"text" validate:"required"`
	Duration  int    `json:"duration"`
	PlaySound bool   `json:"playSound"`
}

func (g *Gamemaster) handleAdminMessage(_ string, msg types.Message) error {
	var p adminMessagePayload
	if err := decode(msg.Data, &p); err != nil {
		return fmt.Errorf("admin:message payload: %w", err)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("admin:message payload: %w", err)
	}
	g.publisher.DisplayMessage(p.Text, p.Duration, p.PlaySound)
	return nil
}

func (g *Gamemaster) handleRecordStart(_ string, _ types.Message) error {
	g.publisher.SetRecording(true)
	return nil
}

func (g *Gamemaster) handleRecordStop(_ string, _ types.Message) error {
	g.publisher.SetRecording(false)
	return nil
}

func (g *Gamemaster) handleRebootCamera(_ string, msg types.Message) error {
	name, _ := msg.Data["name"].(string)
	if name == "" {
		return fmt.Errorf("admin:reboot_camera: name is required")
	}
	g.publisher.RebootCamera(name)
	return nil
}

// handleCameraFrame republishes one frame from a camera producer. Only
// handshake-declared cameras are accepted; the frame is tagged with the
// producer's declared name.
func (g *Gamemaster) handleCameraFrame(clientID string, msg types.Message) error {
	info := g.hub.ClientInfo(clientID)
	if info == nil || info.Kind != hub.KindCamera {
		return nil
	}
	frame, _ := msg.Data["frame"].(string)
	if frame == "" {
		return nil
	}
	g.publisher.RelayFrame(info.Name, frame)
	return nil
}

func (g *Gamemaster) handleAudioChunk(_ string, msg types.Message) error {
	g.publisher.RelayAudio(msg.Data)
	return nil
}

func (g *Gamemaster) handleMusicToggle(_ string, msg types.Message) error {
	g.publisher.MusicToggle(msg.Data)
	return nil
}

func (g *Gamemaster) handleMusicState(_ string, msg types.Message) error {
	g.publisher.MusicState(msg.Data)
	return nil
}

// decode converts a generic event payload into a typed struct via a
// JSON round trip.
func decode(data map[string]any, out any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
