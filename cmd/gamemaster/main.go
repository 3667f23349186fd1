package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/escaperoom/backoffice/config"
	"github.com/escaperoom/backoffice/src/bridge"
	"github.com/escaperoom/backoffice/src/hub"
	"github.com/escaperoom/backoffice/src/registry"
	"github.com/escaperoom/backoffice/src/relay"
	"github.com/escaperoom/backoffice/src/router"
	"github.com/escaperoom/backoffice/src/server"
	"github.com/escaperoom/backoffice/src/service"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	h := hub.New(logger)
	reg := registry.New(logger)
	rt := router.New(reg, h, router.DefaultRules(), logger)
	pub := relay.NewPublisher(h, reg, cfg.MessageDuration, logger)

	// The Redis mirror is optional; without it the hub runs standalone.
	var mirror bridge.Bridge
	if cfg.Redis.Addr != "" {
		rb := bridge.NewRedisBridge(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, logger)
		if err := rb.Start(); err != nil {
			logger.Warn().Err(err).Msg("redis mirror unavailable, running standalone")
		} else {
			mirror = rb
			pub.SetMirror(rb)
		}
	}

	gm := service.New(h, reg, rt, pub, logger)
	gm.Bind()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go h.Run()
	go pub.Run(ctx)

	srv := server.New(cfg, h, reg, rt, server.WSHandler(cfg, h, logger), logger)

	go func() {
		if err := srv.Listen(); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("backoffice running")
	if ip := localIP(); ip != "" {
		logger.Info().Str("ip", ip).Msg("reachable on local network")
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	if mirror != nil {
		if err := mirror.Stop(); err != nil {
			logger.Error().Err(err).Msg("redis mirror stop error")
		}
	}
	h.Stop()
}

// localIP returns the first non-loopback IPv4 address, so operators can
// point the consoles and screens at the right host.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if v4 := ipNet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
