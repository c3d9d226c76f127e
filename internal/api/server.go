// Package api exposes the messaging module over HTTP and WebSocket.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/auth"
	"github.com/biodun42/NexThread/internal/directory"
	"github.com/biodun42/NexThread/internal/events"
	"github.com/biodun42/NexThread/internal/presence"
	"github.com/biodun42/NexThread/internal/store"
	"github.com/biodun42/NexThread/internal/uploader"
)

type Deps struct {
	Accounts   store.AccountStore
	Messages   store.MessageStore
	Uploader   *uploader.Uploader
	Cache      *presence.Cache
	Events     *events.Publisher
	JWT        *auth.JWTValidator
	Visibility directory.Visibility
	Grace      time.Duration
	Log        *zap.SugaredLogger
}

func NewServer(d Deps) *fiber.App {
	app := fiber.New()
	app.Use(fiberlogger.New())

	h := &handlers{
		deps:     d,
		trackers: newTrackerRegistry(d),
	}

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/v1")
	api.Use(h.requireAuth)

	api.Get("/contacts", h.listContacts)
	api.Get("/contacts/search", h.searchContacts)
	api.Get("/presence/:account_id", h.getPresence)
	api.Post("/follow/:account_id", h.follow)
	api.Delete("/follow/:account_id", h.unfollow)
	api.Get("/conversations/:contact_id/messages", h.history)
	api.Get("/conversations/:contact_id/preview", h.preview)
	api.Post("/uploads", h.upload)

	ws := app.Group("/v1/ws", h.requireAuth, upgradeRequired)
	ws.Get("/contacts", websocket.New(h.contactsWS))
	ws.Get("/conversations/:contact_id", websocket.New(h.conversationWS))
	ws.Get("/presence", websocket.New(h.presenceWS))

	return app
}

func upgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
