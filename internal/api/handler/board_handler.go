package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tokenline/queue-display/internal/core/ports"
	"github.com/tokenline/queue-display/internal/hub"
	"github.com/tokenline/queue-display/internal/syncer"
)

// BoardHandler serves the render-only projections: one-shot JSON views for
// page loads and a server-sent event stream for live boards.
type BoardHandler struct {
	store ports.StateStore
	views ports.ViewService
	hub   *hub.Hub
	sync  *syncer.Synchronizer
}

func NewBoardHandler(store ports.StateStore, views ports.ViewService, h *hub.Hub, sync *syncer.Synchronizer) *BoardHandler {
	return &BoardHandler{store: store, views: views, hub: h, sync: sync}
}

// AdminView returns the console projection for one counter. Always loads
// fresh state: the in-memory snapshot is a cache another writer may have
// outdated.
//
// @Summary      Admin console view
// @Tags         views
// @Produce      json
// @Param        sector   query     string  false  "Sector (defaults to active)"
// @Param        counter  query     string  true   "Counter identifier"
// @Success      200   {object}  ports.AdminView
// @Router       /views/admin [get]
func (h *BoardHandler) AdminView(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}
	counter := c.QueryParam("counter")
	if counter == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "counter is required")
	}

	state, err := h.store.Load(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.views.Admin(state, c.QueryParam("sector"), counter))
}

// LobbyView returns the public board projection.
//
// @Summary      Public lobby view
// @Tags         views
// @Produce      json
// @Param        sector  query     string  false  "Sector (defaults to active)"
// @Success      200   {object}  ports.LobbyView
// @Router       /views/lobby [get]
func (h *BoardHandler) LobbyView(c echo.Context) error {
	state, err := h.store.Load(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.views.Lobby(state, c.QueryParam("sector")))
}

// Stream attaches the caller to the live board feed over server-sent
// events. The first frame is pushed immediately from the synchronizer's
// snapshot; afterwards the client receives a frame on every state change
// and lobby poll.
//
// @Summary      Live board stream (SSE)
// @Tags         views
// @Produce      text/event-stream
// @Param        view     query  string  false  "admin or lobby (default lobby)"
// @Param        sector   query  string  false  "Sector (defaults to active)"
// @Param        counter  query  string  false  "Counter (admin view only)"
// @Router       /board/stream [get]
func (h *BoardHandler) Stream(c echo.Context) error {
	view := c.QueryParam("view")
	if view == "" {
		view = hub.ViewLobby
	}
	if view != hub.ViewLobby && view != hub.ViewAdmin {
		return echo.NewHTTPError(http.StatusBadRequest, "view must be admin or lobby")
	}

	sector := c.QueryParam("sector")
	if sector == "" {
		sector = h.sync.Snapshot().ActiveSector
	}

	sub := hub.Subscription{View: view, Sector: sector, Counter: c.QueryParam("counter")}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	client := &hub.Client{
		ID:           uuid.NewString(),
		Send:         make(chan []byte, 8),
		Subscription: sub,
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if first, err := h.sync.RenderFor(sub); err == nil {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", first); err != nil {
			return nil
		}
		w.Flush()
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-client.Send:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
