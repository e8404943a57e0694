package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Skotchmaster/echoshop/internal/transport"
)

// Cart reads the server mirror. It is never cached.
func (c *Client) Cart(ctx context.Context) (*transport.Cart, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/cart", nil, "")
	if err != nil {
		return nil, err
	}
	var cart transport.Cart
	if err := c.finish(req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) PutCart(ctx context.Context, cart transport.Cart) (*transport.Cart, error) {
	var out transport.Cart
	if err := c.send(ctx, http.MethodPut, "/api/cart", cart, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/api/cart", nil, nil)
}

// UploadImage sends r as the multipart field "image" and returns the public
// path of the stored file.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	var res transport.UploadResponse
	if err := c.finish(req, &res); err != nil {
		return "", err
	}
	return res.Image, nil
}

func (c *Client) PayPalClientID(ctx context.Context) (string, error) {
	var res transport.PayPalConfigResponse
	if err := c.get(ctx, "/api/config/paypal", &res, "Config"); err != nil {
		return "", err
	}
	return res.ClientID, nil
}
