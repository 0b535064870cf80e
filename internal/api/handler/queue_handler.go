package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tokenline/queue-display/internal/api/metrics"
	"github.com/tokenline/queue-display/internal/core/ports"
)

type QueueHandler struct {
	queue ports.QueueService
}

func NewQueueHandler(queue ports.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

type issueTokenRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Type   string `json:"type" validate:"omitempty,oneof=regular priority"`
	Sector string `json:"sector" validate:"omitempty,max=60"`
}

type callRequest struct {
	Counter string `json:"counter" validate:"required,max=20"`
	Sector  string `json:"sector" validate:"omitempty,max=60"`
}

type setSectorRequest struct {
	Sector string `json:"sector" validate:"required,max=60"`
}

// IssueToken adds a new waiting token to the queue. Replays carrying the
// same Idempotency-Key return the originally issued token.
//
// @Summary      Issue a token
// @Tags         queue
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string            false  "Replay protection key"
// @Param        body             body      issueTokenRequest true   "Token details"
// @Success      201   {object}  domain.Token
// @Failure      400   {object}  map[string]string
// @Router       /tokens [post]
func (h *QueueHandler) IssueToken(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req issueTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.queue.IssueToken(c.Request().Context(), ports.IssueTokenInput{
		Sector:    req.Sector,
		Name:      req.Name,
		Type:      req.Type,
		RequestID: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	metrics.TokensIssuedTotal.WithLabelValues(token.Sector, token.Type).Inc()
	return c.JSON(http.StatusCreated, token)
}

// CallNext finishes the counter's current token and calls the oldest
// waiting one. An empty queue is not an error: the response simply carries
// no called token.
//
// @Summary      Call the next token to a counter
// @Tags         queue
// @Accept       json
// @Produce      json
// @Param        body  body      callRequest  true  "Counter to call to"
// @Success      200   {object}  ports.CallResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /queue/next [post]
func (h *QueueHandler) CallNext(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req callRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.queue.CallNext(c.Request().Context(), ports.CallInput{
		Sector:  req.Sector,
		Counter: req.Counter,
	})
	if err != nil {
		return err
	}

	if result.Called != nil {
		metrics.CallsTotal.WithLabelValues(result.Called.Sector).Inc()
	}
	return c.JSON(http.StatusOK, result)
}

// RepeatCall re-announces the token serving at the counter.
//
// @Summary      Repeat the announcement for a counter
// @Tags         queue
// @Accept       json
// @Produce      json
// @Param        body  body      callRequest  true  "Counter to repeat for"
// @Success      200   {object}  domain.Token
// @Failure      404   {object}  map[string]string
// @Router       /queue/repeat [post]
func (h *QueueHandler) RepeatCall(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req callRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.queue.RepeatCall(c.Request().Context(), ports.CallInput{
		Sector:  req.Sector,
		Counter: req.Counter,
	})
	if err != nil {
		return err
	}

	metrics.RepeatCallsTotal.Inc()
	return c.JSON(http.StatusOK, token)
}

// SetSector switches the sector all views filter on.
//
// @Summary      Set the active sector
// @Tags         queue
// @Accept       json
// @Success      204
// @Failure      400   {object}  map[string]string
// @Router       /queue/sector [put]
func (h *QueueHandler) SetSector(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}

	var req setSectorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.queue.SetActiveSector(c.Request().Context(), req.Sector); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
