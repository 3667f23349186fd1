package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds process configuration, loaded from the environment.
type Config struct {
	// Addr is the listen address for the HTTP and WebSocket endpoint.
	Addr string `envconfig:"ADDR" default:":3000"`

	// MaxMessageSize caps a single WebSocket message, in bytes.
	// Oversized payloads are rejected, not buffered.
	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"1000000"`

	// MessageDuration is the default screen message display time, seconds.
	MessageDuration int `envconfig:"SCREEN_MESSAGE_DURATION" default:"10"`

	ReadBufferSize  int `envconfig:"WS_READ_BUFFER" default:"1024"`
	WriteBufferSize int `envconfig:"WS_WRITE_BUFFER" default:"1024"`

	Redis Redis
}

// Redis configures the optional broadcast mirror. An empty addr
// disables the mirror and the hub runs standalone.
type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_PREFIX" default:"backoffice:"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
