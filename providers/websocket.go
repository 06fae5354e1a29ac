package providers

import (
	"context"
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/daybook-app/server/src/hub"
)

// Handler returns the root fasthttp handler. WebSocket upgrades at /ws are
// routed ahead of the Fiber app, since Fiber v3 does not expose
// *fasthttp.RequestCtx to its handlers.
func (a *App) Handler() fasthttp.RequestHandler {
	fiberHandler := a.fiberApp.Handler()
	ws := a.websocketHandler()

	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/ws" {
			ws(ctx)
			return
		}
		fiberHandler(ctx)
	}
}

// websocketHandler upgrades the connection and runs a session for it. The
// session owns the socket lifecycle: auth deadline, command dispatch, and
// registry teardown.
func (a *App) websocketHandler() fasthttp.RequestHandler {
	upgrader := websocket.FastHTTPUpgrader{
		ReadBufferSize:  a.cfg.ReadBufferSize,
		WriteBufferSize: a.cfg.WriteBufferSize,
	}

	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		clientID := uuid.New().String()

		err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			client := hub.NewClient(clientID, conn, a.cfg.SendBufferSize)
			sess := hub.NewSession(client, a.registry, a.verifier, a.dispatch, a.cfg.AuthDeadline, a.logger)
			sess.Run(context.Background())
		})
		if err != nil {
			a.logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}
