// Package server exposes the decision engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimengine/internal/model"
)

// EvaluatePath is the single evaluation endpoint.
const EvaluatePath = "/v1/encounters/evaluate"

// Evaluator runs one encounter through the decision pipeline.
type Evaluator interface {
	ProcessEncounter(ctx context.Context, in *model.EncounterInput, doc model.DocumentationQuality) *model.ProcessResult
}

// Pinger reports reference store reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// Timeout bounds one evaluation. Zero means only the request context.
	Timeout time.Duration
	// DB is optional; when nil /health does not check a database.
	DB Pinger
}

type handler struct {
	eval Evaluator
	log  zerolog.Logger
	opts Options
}

// New builds the echo instance with middleware and routes registered.
func New(eval Evaluator, log zerolog.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(log))
	e.Use(RequestID())
	e.Use(Logger(log))

	h := &handler{eval: eval, log: log, opts: opts}
	e.GET("/health", h.health)
	e.POST(EvaluatePath, h.evaluate)
	return e
}

func (h *handler) health(c echo.Context) error {
	if h.opts.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.opts.DB.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) evaluate(c echo.Context) error {
	var req model.EvaluationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed evaluation request")
	}

	ctx := c.Request().Context()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	res := h.eval.ProcessEncounter(ctx, &req.Encounter, req.Documentation)
	return c.JSON(http.StatusOK, res)
}
