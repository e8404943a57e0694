package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

const uploadField = "image"

type UploadHTTP struct {
	Svc *service.UploadService
}

func (h *UploadHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "upload.upload_image")

	fh, err := c.FormFile(uploadField)
	if err != nil {
		return badRequest(l, "upload_failed", "No image uploaded", err)
	}

	image, err := h.Svc.SaveImage(ctx, fh)
	if err != nil {
		return fail(l, "upload_failed", err)
	}
	return c.JSON(http.StatusOK, transport.UploadResponse{Message: "Image uploaded successfully", Image: image})
}

type ConfigHTTP struct {
	PayPalClientID string
}

func (h *ConfigHTTP) PayPal(c echo.Context) error {
	id := h.PayPalClientID
	if id == "" {
		id = "sb"
	}
	return c.JSON(http.StatusOK, transport.PayPalConfigResponse{ClientID: id})
}
