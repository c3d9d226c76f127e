package api

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/biodun42/NexThread/internal/apperr"
	"github.com/biodun42/NexThread/internal/conversation"
	"github.com/biodun42/NexThread/internal/directory"
	"github.com/biodun42/NexThread/internal/presence"
	"github.com/biodun42/NexThread/internal/uploader"
)

type handlers struct {
	deps     Deps
	trackers *trackerRegistry
}

func (h *handlers) requireAuth(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		hdr := c.Get("Authorization")
		const pref = "Bearer "
		if !strings.HasPrefix(hdr, pref) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth"})
		}
		token = hdr[len(pref):]
	}
	sub, err := h.deps.JWT.Validate(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	c.Locals("account_id", sub)
	return c.Next()
}

func accountID(c *fiber.Ctx) string {
	id, _ := c.Locals("account_id").(string)
	return id
}

func (h *handlers) listContacts(c *fiber.Ctx) error {
	self, err := h.deps.Accounts.Get(c.Context(), accountID(c))
	if err != nil {
		return statusFor(c, err)
	}
	all, err := h.deps.Accounts.List(c.Context())
	if err != nil {
		return statusFor(c, err)
	}
	contacts := directory.Filter(self, all, h.deps.Visibility)
	return c.JSON(fiber.Map{"status": "success", "data": contacts})
}

func (h *handlers) searchContacts(c *fiber.Ctx) error {
	term := strings.ToLower(c.Query("q"))
	self, err := h.deps.Accounts.Get(c.Context(), accountID(c))
	if err != nil {
		return statusFor(c, err)
	}
	all, err := h.deps.Accounts.List(c.Context())
	if err != nil {
		return statusFor(c, err)
	}
	contacts := directory.Filter(self, all, h.deps.Visibility)
	matched := contacts[:0]
	for _, a := range contacts {
		if strings.Contains(strings.ToLower(a.Name), term) {
			matched = append(matched, a)
		}
	}
	return c.JSON(fiber.Map{"status": "success", "data": matched})
}

func (h *handlers) getPresence(c *fiber.Ctx) error {
	id := c.Params("account_id")

	// Cache first; fall back to the account document.
	if h.deps.Cache != nil {
		if st, lastSeen, err := h.deps.Cache.Get(c.Context(), id); err == nil {
			return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{
				"account": id, "presence": st, "last_seen": lastSeen,
			}})
		}
	}
	a, err := h.deps.Accounts.Get(c.Context(), id)
	if err != nil {
		return statusFor(c, err)
	}
	st, text := presence.Describe(a, time.Now())
	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{
		"account": id, "presence": st, "text": text, "last_seen": a.LastSeen,
	}})
}

func (h *handlers) follow(c *fiber.Ctx) error {
	target := c.Params("account_id")
	if target == accountID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot follow yourself"})
	}
	if err := h.deps.Accounts.Follow(c.Context(), accountID(c), target); err != nil {
		return statusFor(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (h *handlers) unfollow(c *fiber.Ctx) error {
	if err := h.deps.Accounts.Unfollow(c.Context(), accountID(c), c.Params("account_id")); err != nil {
		return statusFor(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

func (h *handlers) history(c *fiber.Ctx) error {
	self := accountID(c)
	contact := c.Params("contact_id")
	if contact == self {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no self conversations"})
	}
	msgs, err := h.deps.Messages.History(c.Context(), conversation.NewKey(self, contact))
	if err != nil {
		return statusFor(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": msgs})
}

// preview derives the sidebar line for one contact: last message,
// truncated text or image placeholder, unread marker.
func (h *handlers) preview(c *fiber.Ctx) error {
	self := accountID(c)
	contact := c.Params("contact_id")
	if contact == self {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no self conversations"})
	}
	msgs, err := h.deps.Messages.History(c.Context(), conversation.NewKey(self, contact))
	if err != nil {
		return statusFor(c, err)
	}
	last, unread := directory.Preview(self, msgs, contact)
	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{
		"text":   directory.FormatPreview(last),
		"unread": unread,
	}})
}

func (h *handlers) upload(c *fiber.Ctx) error {
	if h.deps.Uploader == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "attachments disabled"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer f.Close()
	data := make([]byte, fh.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.deps.Uploader.Upload(c.Context(), accountID(c), uploader.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil)
	if err != nil {
		return statusFor(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": res})
}

func statusFor(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		code = fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrNotAuthorized):
		code = fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrUpload), errors.Is(err, apperr.ErrWrite), errors.Is(err, apperr.ErrSubscription):
		code = fiber.StatusBadGateway
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
