package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	who, err := principal(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_failed", "Invalid request body", err)
	}

	order, err := h.Svc.CreateOrder(ctx, who.UserID, req)
	if err != nil {
		return fail(l, "create_order_failed", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalPrice)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	who, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "get_order_failed", "Invalid order id", err)
	}

	order, err := h.Svc.GetOrder(ctx, who, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	who, err := principal(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.MyOrders(ctx, who.UserID)
	if err != nil {
		return fail(l, "my_orders_failed", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	orders, err := h.Svc.ListOrders(ctx)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) PayOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay_order")

	who, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "pay_order_failed", "Invalid order id", err)
	}

	var result transport.PaymentResult
	if err := c.Bind(&result); err != nil {
		return badRequest(l, "pay_order_failed", "Invalid request body", err)
	}

	order, err := h.Svc.PayOrder(ctx, who, id, result)
	if err != nil {
		return fail(l, "pay_order_failed", err)
	}

	l.Info("pay_order_success", "order_id", id)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeliverOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.deliver_order")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "deliver_order_failed", "Invalid order id", err)
	}

	order, err := h.Svc.DeliverOrder(ctx, id)
	if err != nil {
		return fail(l, "deliver_order_failed", err)
	}

	l.Info("deliver_order_success", "order_id", id)
	return c.JSON(http.StatusOK, order)
}
