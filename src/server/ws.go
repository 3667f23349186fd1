package server

import (
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/escaperoom/backoffice/config"
	"github.com/escaperoom/backoffice/src/hub"
)

// WSHandler returns a raw fasthttp handler that upgrades connections at
// /ws and attaches them to the hub. The handshake query may declare a
// client kind and name (?type=camera&name=Cam1), mirroring the camera
// producer handshake; plain connections identify via register:* events.
func WSHandler(cfg config.Config, h *hub.Hub, logger zerolog.Logger) fasthttp.RequestHandler {
	upgrader := websocket.FastHTTPUpgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     func(_ *fasthttp.RequestCtx) bool { return true },
	}
	log := logger.With().Str("component", "ws").Logger()

	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		connectionID := uuid.New().String()
		kind := string(ctx.QueryArgs().Peek("type"))
		name := string(ctx.QueryArgs().Peek("name"))

		err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			// Oversized payloads abort the read; they are never buffered.
			conn.SetReadLimit(cfg.MaxMessageSize)
			client := hub.NewClient(connectionID, kind, name, &fasthttpConn{conn}, h)
			h.Register(client)
			go client.WritePump()
			client.ReadPump()
		})
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// fasthttpConn wraps fasthttp/websocket.Conn to satisfy types.Conn.
type fasthttpConn struct {
	conn *websocket.Conn
}

func (f *fasthttpConn) WriteJSON(v any) error { return f.conn.WriteJSON(v) }
func (f *fasthttpConn) ReadJSON(v any) error  { return f.conn.ReadJSON(v) }
func (f *fasthttpConn) Close() error          { return f.conn.Close() }
