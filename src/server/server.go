package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/escaperoom/backoffice/config"
	"github.com/escaperoom/backoffice/src/router"
	"github.com/escaperoom/backoffice/src/types"
	"github.com/escaperoom/backoffice/src/view"
)

// GameLister is the registry surface the HTTP façade reads.
type GameLister interface {
	Snapshot() []types.GameConnection
	Count() int
}

// CommandRouter routes one operator command.
type CommandRouter interface {
	Route(gameID, action string, payload map[string]any) error
}

// ClientRegistrar is the hub surface the HTTP façade reads for health
// and diagnostics.
type ClientRegistrar interface {
	ClientCount() int
	ConnectedClients() []string
	ClientInfo(clientID string) *types.ClientInfo
}

// Server is the stateless HTTP façade plus the WebSocket endpoint,
// served from one fasthttp listener.
type Server struct {
	app    *fiber.App
	hub    ClientRegistrar
	games  GameLister
	router CommandRouter
	cfg    config.Config
	logger zerolog.Logger

	fasthttpServer *fasthttp.Server
	acceptWS       func(ctx *fasthttp.RequestCtx)
}

// New builds the server. The WebSocket accept function is supplied by
// the transport wiring (see WSHandler).
func New(cfg config.Config, hub ClientRegistrar, games GameLister, rt CommandRouter, acceptWS fasthttp.RequestHandler, logger zerolog.Logger) *Server {
	s := &Server{
		hub:      hub,
		games:    games,
		router:   rt,
		cfg:      cfg,
		logger:   logger.With().Str("component", "server").Logger(),
		acceptWS: acceptWS,
	}

	app := fiber.New()
	app.Use(cors.New())
	app.Get("/api/games", s.handleListGames)
	app.Get("/api/games/groups", s.handleListGroups)
	app.Get("/api/clients", s.handleListClients)
	app.Post("/api/games/:gameId/command", s.handleCommand)
	app.Get("/healthz", s.handleHealth)
	s.app = app
	return s
}

func (s *Server) handleListGames(c fiber.Ctx) error {
	return c.JSON(s.games.Snapshot())
}

// handleListGroups returns the snapshot grouped by logical game, the
// way the console lays out its tabs.
func (s *Server) handleListGroups(c fiber.Ctx) error {
	return c.JSON(view.GroupByBase(s.games.Snapshot()))
}

// handleListClients exposes every live connection, registered as a
// game or not, for the operator's diagnostics panel.
func (s *Server) handleListClients(c fiber.Ctx) error {
	ids := s.hub.ConnectedClients()
	clients := make([]types.ClientInfo, 0, len(ids))
	for _, id := range ids {
		if info := s.hub.ClientInfo(id); info != nil {
			clients = append(clients, *info)
		}
	}
	return c.JSON(clients)
}

type commandRequest struct {
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
}

func (s *Server) handleCommand(c fiber.Ctx) error {
	gameID := c.Params("gameId")

	var req commandRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action is required"})
	}

	if err := s.router.Route(gameID, req.Action, req.Payload); err != nil {
		if errors.Is(err, router.ErrGameNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		s.logger.Error().Err(err).Str("game_id", gameID).Msg("route failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"games":   s.games.Count(),
	})
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP and WebSocket traffic on one listener. Fiber v3
// does not expose *fasthttp.RequestCtx, so the /ws upgrade is
// dispatched before the fiber handler.
func (s *Server) Listen() error {
	fiberHandler := s.app.Handler()
	s.fasthttpServer = &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) == "/ws" {
				s.acceptWS(ctx)
				return
			}
			fiberHandler(ctx)
		},
		Name: "backoffice",
	}
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("listening")
	return s.fasthttpServer.ListenAndServe(s.cfg.Addr)
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown() error {
	if s.fasthttpServer == nil {
		return nil
	}
	return s.fasthttpServer.Shutdown()
}
