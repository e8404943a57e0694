package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/internal/util"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func priceParam(c echo.Context, name string) (decimal.NullDecimal, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	q := service.ListQuery{
		Keyword:    c.QueryParam("keyword"),
		Category:   c.QueryParam("category"),
		Sort:       strings.ToLower(c.QueryParam("sort")),
		PageNumber: util.ParseIntDefault(c.QueryParam("pageNumber"), 1),
	}
	var err error
	if q.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return badRequest(l, "get_products_failed", "Invalid minPrice", err)
	}
	if q.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return badRequest(l, "get_products_failed", "Invalid maxPrice", err)
	}
	if size := c.QueryParam("pageSize"); strings.EqualFold(size, "all") {
		q.All = true
	} else {
		q.PageSize = util.ParseIntDefault(size, service.DefaultPageSize)
	}

	page, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		return fail(l, "get_products_failed", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHTTP) GetTopProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_top_products")

	items, err := h.Svc.TopProducts(ctx)
	if err != nil {
		return fail(l, "get_top_products_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "get_product_failed", "Invalid product id", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct creates the sample product when the body is empty.
func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	who, err := principal(c)
	if err != nil {
		return err
	}

	var body *transport.ProductRequest
	if c.Request().ContentLength > 0 {
		var req transport.ProductRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "create_product_failed", "Invalid request body", err)
		}
		body = &req
	}

	created, err := h.Svc.CreateProduct(ctx, who.UserID, body)
	if err != nil {
		return fail(l, "create_product_failed", err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, created)
}

func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "update_product_failed", "Invalid product id", err)
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product_failed", "Invalid request body", err)
	}

	updated, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "update_product_failed", err)
	}

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, updated)
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "delete_product_failed", "Invalid product id", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_failed", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product removed"})
}

func (h *ProductHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_review")

	who, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "create_review_failed", "Invalid product id", err)
	}

	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_review_failed", "Invalid request body", err)
	}

	if _, err := h.Svc.CreateReview(ctx, id, who.UserID, req); err != nil {
		return fail(l, "create_review_failed", err)
	}

	l.Info("create_review_success", "product_id", id)
	return c.JSON(http.StatusCreated, transport.MessageResponse{Message: "Review added"})
}
