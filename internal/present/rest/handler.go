package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/carelog"
	"github.com/totegamma/carelog/internal/domain"
	"github.com/totegamma/carelog/internal/present/rest/middleware"
	"github.com/totegamma/carelog/internal/present/rest/presenter"
	"github.com/totegamma/carelog/internal/service"
	"github.com/totegamma/carelog/internal/usecase"
)

const apiVersion = "1.0"

type Handler struct {
	contract string
	document *usecase.DocumentUsecase
	signal   *service.SignalService
}

// NewHandler wires the store endpoints. signal may be nil, in which case /realtime is unavailable.
func NewHandler(
	contract string,
	document *usecase.DocumentUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		contract: contract,
		document: document,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/carelog", h.handleWellKnown)
	e.POST("/execute", h.handleExecute)
	e.POST("/query", h.handleQuery)
	e.GET("/health", h.handleHealth)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	return presenter.OK(c, carelog.WellKnown{
		Version:  apiVersion,
		Contract: h.contract,
		Endpoints: map[string]string{
			carelog.EndpointExecute:  "/execute",
			carelog.EndpointQuery:    "/query",
			carelog.EndpointHealth:   "/health",
			carelog.EndpointRealtime: "/realtime",
		},
	})
}

func (h *Handler) handleExecute(c echo.Context) error {
	ctx := c.Request().Context()

	var req carelog.ExecuteRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	receipt, err := h.document.Execute(ctx, middleware.Requester(ctx), req)
	if err != nil {
		return h.fail(c, err)
	}

	return presenter.OK(c, receipt)
}

func (h *Handler) handleQuery(c echo.Context) error {
	ctx := c.Request().Context()

	var req carelog.QueryRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	resp, err := h.document.Query(ctx, req)
	if err != nil {
		return h.fail(c, err)
	}

	return presenter.OK(c, resp)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return presenter.BadRequest(c, err)
	case errors.Is(err, domain.ErrAuthorizationDenied):
		return presenter.Forbidden(c, err)
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return presenter.Conflict(c, err)
	default:
		return presenter.InternalError(c, err)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Request is a realtime control message. "listen" replaces the subscribed uri prefixes
// and "h" is a heartbeat.
type Request struct {
	Type     string   `json:"type"`
	Prefixes []string `json:"prefixes"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return presenter.Unavailable(c, "realtime is not configured")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.String("error", err.Error()), slog.String("module", "realtime"))
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	prefixes := make(chan []string)
	events := make(chan carelog.Event)
	go h.signal.Realtime(ctx, prefixes, events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		readControl(ctx, ws, prefixes)
	}()

	for {
		select {
		case <-done:
			return nil
		case event := <-events:
			if err := ws.WriteJSON(event); err != nil {
				slog.WarnContext(ctx, "event delivery failed", slog.String("error", err.Error()), slog.String("module", "realtime"))
				return nil
			}
		}
	}
}

// readControl applies control messages until the socket closes or ctx ends.
func readControl(ctx context.Context, ws *websocket.Conn, prefixes chan<- []string) {
	for {
		var req Request
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.DebugContext(ctx, "realtime client went away", slog.String("error", err.Error()), slog.String("module", "realtime"))
			}
			return
		}

		switch req.Type {
		case "listen":
			select {
			case prefixes <- req.Prefixes:
			case <-ctx.Done():
				return
			}
			slog.DebugContext(ctx, "realtime listen", slog.Any("prefixes", req.Prefixes), slog.String("module", "realtime"))
		case "h":
		default:
			slog.InfoContext(ctx, "unknown realtime request", slog.String("type", req.Type), slog.String("module", "realtime"))
		}
	}
}
