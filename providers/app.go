// Package providers wires the realtime core to its HTTP surface: the REST
// API served through Fiber and the raw fasthttp WebSocket upgrade at /ws.
package providers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/daybook-app/server/config"
	"github.com/daybook-app/server/src/auth"
	"github.com/daybook-app/server/src/bridge"
	"github.com/daybook-app/server/src/hub"
	"github.com/daybook-app/server/src/protocol"
	"github.com/daybook-app/server/src/store"
)

// App is the composition root for the server: it owns the connection
// registry, the broadcast bridge, and the command dispatcher, and exposes
// them through HTTP.
type App struct {
	cfg      *config.Config
	registry *hub.Registry
	bridge   bridge.Broadcaster
	dispatch *protocol.Dispatcher
	verifier *auth.TokenVerifier

	todos store.TodoStore
	diary store.DiaryStore
	moods store.MoodStore
	users store.UserStore

	fiberApp *fiber.App
	logger   zerolog.Logger
}

// NewApp constructs the server components and registers all routes.
func NewApp(cfg *config.Config, todos store.TodoStore, diary store.DiaryStore, moods store.MoodStore, users store.UserStore, logger zerolog.Logger) *App {
	registry := hub.NewRegistry(logger)
	b := bridge.NewLocal(registry, logger)

	a := &App{
		cfg:      cfg,
		registry: registry,
		bridge:   b,
		dispatch: protocol.NewDispatcher(todos, diary, moods, registry, b, logger),
		verifier: auth.NewTokenVerifier([]byte(cfg.JWTSigningKey), []byte(cfg.AutomationSecret), cfg.AccessTTL),
		todos:    todos,
		diary:    diary,
		moods:    moods,
		users:    users,
		logger:   logger,
	}

	a.fiberApp = fiber.New()
	a.registerRoutes(a.fiberApp)
	return a
}

// Registry exposes the connection registry for diagnostics and tests.
func (a *App) Registry() *hub.Registry { return a.registry }

// Bridge exposes the broadcast bridge for non-socket mutation paths.
func (a *App) Bridge() bridge.Broadcaster { return a.bridge }
