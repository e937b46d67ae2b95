package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
)

const maxRowBody = 64 << 10

// TableHandler serves /rest/v1/<table> for one record type.
type TableHandler[R domain.Record, D domain.Draft[R], P domain.Patch[R]] struct {
	svc ports.RecordService[R, D, P]
}

func NewTableHandler[R domain.Record, D domain.Draft[R], P domain.Patch[R]](svc ports.RecordService[R, D, P]) *TableHandler[R, D, P] {
	return &TableHandler[R, D, P]{svc: svc}
}

// Register mounts the table's routes on g. writeGuards run before every
// mutating route.
func (h *TableHandler[R, D, P]) Register(g *echo.Group, writeGuards ...echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.POST("", h.Create, writeGuards...)
	g.PATCH("/:id", h.Update, writeGuards...)
	g.DELETE("/:id", h.Delete, writeGuards...)
	g.DELETE("", h.DeleteByOwner)
}

// List returns every row, newest first.
//
// @Summary      List rows
// @Tags         rest
// @Produce      json
// @Security     ApiKeyAuth
// @Param        table  path      string  true  "lost_found_posts, job_posts or news_posts"
// @Success      200    {array}   object
// @Router       /rest/v1/{table} [get]
func (h *TableHandler[R, D, P]) List(c echo.Context) error {
	rows, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Create inserts a row owned by the caller. The body may name the owner in
// the table's owner column; it must then be the caller.
//
// @Summary      Insert a row
// @Tags         rest
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Param        table  path      string  true  "Table name"
// @Success      201    {object}  object
// @Failure      400    {object}  api.ErrorResponse
// @Failure      401    {object}  api.ErrorResponse
// @Failure      403    {object}  api.ErrorResponse
// @Failure      422    {object}  api.ErrorResponse
// @Router       /rest/v1/{table} [post]
func (h *TableHandler[R, D, P]) Create(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRowBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	var draft D
	if err := json.Unmarshal(body, &draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	var owner map[string]json.RawMessage
	if err := json.Unmarshal(body, &owner); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	var ownerID string
	if raw, ok := owner[h.svc.Table().OwnerColumn()]; ok {
		if err := json.Unmarshal(raw, &ownerID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "owner must be a string")
		}
	}

	row, err := h.svc.Create(c.Request().Context(), actorFrom(c), ownerID, draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, row)
}

// Update applies a partial change to a row and returns it.
//
// @Summary      Update a row
// @Tags         rest
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Param        table  path      string  true  "Table name"
// @Param        id     path      string  true  "Row id"
// @Success      200    {object}  object
// @Failure      403    {object}  api.ErrorResponse
// @Failure      404    {object}  api.ErrorResponse
// @Router       /rest/v1/{table}/{id} [patch]
func (h *TableHandler[R, D, P]) Update(c echo.Context) error {
	var patch P
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, maxRowBody)).Decode(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	row, err := h.svc.Update(c.Request().Context(), actorFrom(c), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, row)
}

// Delete removes one row.
//
// @Summary      Delete a row
// @Tags         rest
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Param        table  path  string  true  "Table name"
// @Param        id     path  string  true  "Row id"
// @Success      204
// @Failure      403    {object}  api.ErrorResponse
// @Failure      404    {object}  api.ErrorResponse
// @Router       /rest/v1/{table}/{id} [delete]
func (h *TableHandler[R, D, P]) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteByOwner removes every row owned by owner_id. Deleting zero rows
// succeeds.
//
// @Summary      Delete all rows of an owner
// @Tags         rest
// @Produce      json
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Param        table     path      string  true  "Table name"
// @Param        owner_id  query     string  true  "Owner identity id"
// @Success      200       {object}  deletedResponse
// @Failure      400       {object}  api.ErrorResponse
// @Failure      403       {object}  api.ErrorResponse
// @Router       /rest/v1/{table} [delete]
func (h *TableHandler[R, D, P]) DeleteByOwner(c echo.Context) error {
	ownerID := c.QueryParam("owner_id")
	if ownerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "owner_id is required")
	}

	n, err := h.svc.DeleteByOwner(c.Request().Context(), actorFrom(c), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}
