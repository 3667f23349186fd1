package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/escaperoom/backoffice/src/types"
)

// Broadcast channels. Screens, recorders and camera viewers join these
// at handshake or via a register:* event; snapshot broadcasts go to
// every connection instead.
const (
	ChannelScreen   = "screen"
	ChannelRecorder = "recorder"
	ChannelCamera   = "camera"
	ChannelMusic    = "music"
)

// DefaultMessageDuration is how long screens show an operator message
// when the operator did not pick a duration, in seconds.
const DefaultMessageDuration = 10

// settleDelay is how long Run waits after the first change signal
// before snapshotting. Mutations still landing mid-burst re-arm the
// coalesced signal inside this window and fold into the same
// broadcast instead of racing one broadcast each.
const settleDelay = 5 * time.Millisecond

// Broadcaster is the transport surface the publisher emits on.
type Broadcaster interface {
	BroadcastAll(msg types.Message)
	Publish(channel string, msg types.Message)
	SendToClient(clientID string, msg types.Message) bool
	FindClients(kind, name string) []string
}

// Snapshotter provides the settled registry view and its change signal.
type Snapshotter interface {
	Snapshot() []types.GameConnection
	Changes() <-chan struct{}
}

// Mirror republishes outbound broadcasts to an external channel, such
// as the Redis bridge. It never feeds anything back into the hub.
type Mirror interface {
	Publish(msg types.Message) error
	Available() bool
}

// Publisher pushes the registry snapshot to all observers whenever it
// settles, and relays operator-authored broadcasts (screen messages,
// record control) and best-effort media (camera frames, audio chunks).
type Publisher struct {
	hub      Broadcaster
	registry Snapshotter
	mirror   Mirror
	duration int // default screen message duration, seconds
	logger   zerolog.Logger
}

// NewPublisher creates a publisher. A duration of zero falls back to
// DefaultMessageDuration.
func NewPublisher(hub Broadcaster, registry Snapshotter, duration int, logger zerolog.Logger) *Publisher {
	if duration <= 0 {
		duration = DefaultMessageDuration
	}
	return &Publisher{
		hub:      hub,
		registry: registry,
		duration: duration,
		logger:   logger.With().Str("component", "publisher").Logger(),
	}
}

// SetMirror attaches an outbound mirror for broadcast events.
func (p *Publisher) SetMirror(m Mirror) {
	p.mirror = m
}

// Run republishes the snapshot on every settled registry change until
// the context is cancelled. The registry's change signal is coalesced,
// so a burst of mutations yields one broadcast of the final state.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-p.registry.Changes():
			select {
			case <-time.After(settleDelay):
			case <-ctx.Done():
				return
			}
			// Drain the signal a mid-burst mutation may have re-armed;
			// the snapshot below already covers it.
			select {
			case <-p.registry.Changes():
			default:
			}
			p.BroadcastSnapshot()
		case <-ctx.Done():
			return
		}
	}
}

// BroadcastSnapshot emits the full registry snapshot to every connected
// client. Full snapshot, not a diff: the registry is small and updates
// are human-paced.
func (p *Publisher) BroadcastSnapshot() {
	snapshot := p.registry.Snapshot()
	msg := types.Message{
		Event:     types.EventGamesUpdated,
		Data:      map[string]any{"games": snapshot},
		Timestamp: time.Now(),
	}
	p.hub.BroadcastAll(msg)
	p.toMirror(msg)
	p.logger.Debug().Int("games", len(snapshot)).Msg("snapshot broadcast")
}

// DisplayMessage publishes an operator message verbatim to all screens.
func (p *Publisher) DisplayMessage(text string, duration int, playSound bool) {
	if duration <= 0 {
		duration = p.duration
	}
	msg := types.Message{
		Event: types.EventDisplayMessage,
		Data: map[string]any{
			"text":      text,
			"duration":  duration,
			"playSound": playSound,
		},
		Timestamp: time.Now(),
	}
	p.hub.Publish(ChannelScreen, msg)
	p.toMirror(msg)
	p.logger.Info().Int("duration", duration).Msg("screen message published")
}

// SetRecording toggles the recording signal on the audio-capture
// endpoint (everything subscribed to the recorder channel).
func (p *Publisher) SetRecording(on bool) {
	event := types.EventRecordStop
	if on {
		event = types.EventRecordStart
	}
	msg := types.Message{Event: event, Timestamp: time.Now()}
	p.hub.Publish(ChannelRecorder, msg)
	p.toMirror(msg)
	p.logger.Info().Bool("recording", on).Msg("record control published")
}

func (p *Publisher) toMirror(msg types.Message) {
	if p.mirror == nil || !p.mirror.Available() {
		return
	}
	if err := p.mirror.Publish(msg); err != nil {
		p.logger.Error().Err(err).Str("event", msg.Event).Msg("mirror publish failed")
	}
}
