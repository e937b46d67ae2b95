package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/core/ports"
)

const maxImageSize = 5 << 20

// MediaHandler accepts post images and returns the URL to store in
// image_url.
type MediaHandler struct {
	store ports.MediaStore
}

func NewMediaHandler(store ports.MediaStore) *MediaHandler {
	return &MediaHandler{store: store}
}

// Upload stores a multipart "file" field.
//
// @Summary      Upload an image
// @Tags         storage
// @Accept       mpfd
// @Produce      json
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image, at most 5 MiB"
// @Success      201   {object}  uploadResponse
// @Failure      400   {object}  api.ErrorResponse
// @Failure      413   {object}  api.ErrorResponse
// @Failure      415   {object}  api.ErrorResponse
// @Router       /storage/v1/images [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > maxImageSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 5 MiB")
	}
	if ct := fh.Header.Get(echo.HeaderContentType); !strings.HasPrefix(ct, "image/") {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "only images are accepted")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := h.store.Upload(c.Request().Context(), identity.ID, fh.Filename, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{URL: url})
}
