package relay

import (
	"time"

	"github.com/escaperoom/backoffice/src/types"
)

// Media paths are best-effort and unbuffered: nothing is stored, a
// dropped frame or chunk is simply never seen.

// RelayFrame republishes one camera frame, tagged with the producer's
// declared name, to everyone watching the camera channel.
func (p *Publisher) RelayFrame(producerName, frame string) {
	p.hub.Publish(ChannelCamera, types.Message{
		Event: types.EventCameraFrame,
		Data: map[string]any{
			"name":  producerName,
			"frame": frame,
		},
		Timestamp: time.Now(),
	})
}

// RebootCamera tells the named camera producer to reload from scratch.
// It reports how many producers were addressed.
func (p *Publisher) RebootCamera(name string) int {
	ids := p.hub.FindClients("camera", name)
	msg := types.Message{Event: types.EventCmdReboot, Timestamp: time.Now()}
	sent := 0
	for _, id := range ids {
		if p.hub.SendToClient(id, msg) {
			sent++
		}
	}
	p.logger.Info().Str("camera", name).Int("sent", sent).Msg("camera reboot issued")
	return sent
}

// RelayAudio forwards a microphone audio chunk to all screens.
func (p *Publisher) RelayAudio(data map[string]any) {
	p.hub.Publish(ChannelScreen, types.Message{
		Event:     types.EventAudioChunk,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// MusicToggle forwards a play/pause request to the music agent.
func (p *Publisher) MusicToggle(data map[string]any) {
	p.hub.Publish(ChannelMusic, types.Message{
		Event:     types.EventMusicToggle,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// MusicState broadcasts the music agent's playback state to everyone.
func (p *Publisher) MusicState(data map[string]any) {
	p.hub.BroadcastAll(types.Message{
		Event:     types.EventMusicState,
		Data:      data,
		Timestamp: time.Now(),
	})
}
