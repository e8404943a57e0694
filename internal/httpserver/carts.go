package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	who, err := principal(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.GetCart(ctx, who.UserID)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) PutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.put_cart")

	who, err := principal(c)
	if err != nil {
		return err
	}

	var in transport.Cart
	if err := c.Bind(&in); err != nil {
		return badRequest(l, "put_cart_failed", "Invalid request body", err)
	}

	cart, err := h.Svc.PutCart(ctx, who.UserID, in)
	if err != nil {
		return fail(l, "put_cart_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	who, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.Svc.ClearCart(ctx, who.UserID); err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
