package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 3 * time.Second

// Pinger is a backing store the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	stores map[string]Pinger
}

func NewHealthHandler(stores map[string]Pinger) *HealthHandler {
	return &HealthHandler{stores: stores}
}

type storeStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                 `json:"status"`
	Dependencies map[string]storeStatus `json:"dependencies"`
}

// Liveness
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings every store concurrently.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		g    errgroup.Group
		resp = readinessResponse{Status: "ok", Dependencies: make(map[string]storeStatus, len(h.stores))}
	)
	for name, p := range h.stores {
		g.Go(func() error {
			st := storeStatus{Status: "ok"}
			if err := p.Ping(ctx); err != nil {
				st = storeStatus{Status: "unhealthy", Error: err.Error()}
			}
			mu.Lock()
			resp.Dependencies[name] = st
			if st.Error != "" {
				resp.Status = "degraded"
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
