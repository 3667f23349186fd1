package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escaperoom/backoffice/src/types"
)

func TestEnvelopeSerialization(t *testing.T) {
	msg := types.Message{
		Event: "games_updated",
		Data: map[string]any{
			"games": []any{map[string]any{"gameId": "aria"}},
		},
		Timestamp: time.Now().Truncate(time.Second),
	}

	env := envelope{
		InstanceID: "instance-abc",
		Message:    msg,
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, env.InstanceID, decoded.InstanceID)
	assert.Equal(t, msg.Event, decoded.Message.Event)
	games := decoded.Message.Data["games"].([]any)
	require.Len(t, games, 1)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	msg := types.Message{
		Event: "screen:display_message",
		Data: map[string]any{
			"text":      "MESSAGE ENTRANT",
			"duration":  float64(10),
			"playSound": true,
		},
		Timestamp: time.Now().Truncate(time.Millisecond),
	}

	env := envelope{InstanceID: "node-1", Message: msg}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "node-1", decoded.InstanceID)
	assert.Equal(t, msg.Data["text"], decoded.Message.Data["text"])
	assert.Equal(t, msg.Data["duration"], decoded.Message.Data["duration"])
	assert.Equal(t, msg.Data["playSound"], decoded.Message.Data["playSound"])
}

func TestBridgeNotAvailableBeforeStart(t *testing.T) {
	b := NewRedisBridge("localhost:6379", "", 0, "backoffice:", zerolog.Nop())
	assert.False(t, b.Available())
}
