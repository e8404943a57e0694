package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/echoshop/internal/appstate"
	"github.com/Skotchmaster/echoshop/internal/checkout"
	"github.com/Skotchmaster/echoshop/internal/client"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

var errUsage = errors.New(`usage: shop <command> [args]

  products [-keyword k] [-page n] [-size n|all]   list products
  top                                             top rated products
  product <id>                                    product detail
  review <product-id> <rating> <comment>          review a product
  register -name n -email e -password p -confirm p
  login <email> <password>
  logout
  profile [-name n] [-email e] [-password p]      show or update the profile
  cart [add <id> <qty> | remove <id> | clear | sync]
  checkout -address a -city c -postal p -country c [-payment PayPal]
  orders                                          my orders
  order <id>
  pay <order-id>                                  mark paid (stub gateway)
  theme [light|dark|toggle]
  admin users | delete-user <id> | orders | deliver <id>
  admin create-product | update-product <id> [-name n -price p ...]
  admin delete-product <id> | upload <file>`)

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseUUID(args []string, i int, what string) (uuid.UUID, error) {
	if len(args) <= i {
		return uuid.Nil, fmt.Errorf("missing %s", what)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q", what, args[i])
	}
	return id, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "products":
		return a.products(ctx, rest)
	case "top":
		items, err := a.api.TopProducts(ctx)
		if err != nil {
			return err
		}
		return a.print(items)
	case "product":
		id, err := parseUUID(rest, 0, "product id")
		if err != nil {
			return err
		}
		p, err := a.api.Product(ctx, id)
		if err != nil {
			return err
		}
		return a.print(p)
	case "review":
		return a.review(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "profile":
		return a.profile(ctx, rest)
	case "cart":
		return a.cartCmd(ctx, rest)
	case "checkout":
		return a.checkout(ctx, rest)
	case "orders":
		if err := a.state.RequireLogin(); err != nil {
			return err
		}
		orders, err := a.api.MyOrders(ctx)
		if err != nil {
			return err
		}
		return a.print(orders)
	case "order":
		id, err := parseUUID(rest, 0, "order id")
		if err != nil {
			return err
		}
		o, err := a.api.Order(ctx, id)
		if err != nil {
			return err
		}
		return a.print(o)
	case "pay":
		return a.pay(ctx, rest)
	case "theme":
		return a.theme(rest)
	case "admin":
		return a.admin(ctx, rest)
	}
	return errUsage
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	keyword := fs.String("keyword", "", "name filter")
	page := fs.Int("page", 1, "page number")
	size := fs.String("size", "", "page size or all")
	category := fs.String("category", "", "category filter")
	price := fs.String("price", "", "price range min-max, either side optional")
	sort := fs.String("sort", "", "lowest, highest or toprated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := client.ProductQuery{Keyword: *keyword, Category: *category, Sort: *sort, PageNumber: *page}
	if *price != "" {
		lo, hi, err := parsePriceRange(*price)
		if err != nil {
			return err
		}
		q.MinPrice, q.MaxPrice = lo, hi
	}
	if strings.EqualFold(*size, "all") {
		q.All = true
	} else if *size != "" {
		n, err := strconv.Atoi(*size)
		if err != nil {
			return fmt.Errorf("invalid page size %q", *size)
		}
		q.PageSize = n
	}

	res, err := a.api.Products(ctx, q)
	if err != nil {
		return err
	}
	return a.print(res)
}

// parsePriceRange reads "10-50", "100-" or "-20".
func parsePriceRange(raw string) (lo, hi decimal.NullDecimal, err error) {
	from, to, ok := strings.Cut(raw, "-")
	if !ok {
		return lo, hi, fmt.Errorf("invalid price range %q", raw)
	}
	if from = strings.TrimSpace(from); from != "" {
		d, err := decimal.NewFromString(from)
		if err != nil {
			return lo, hi, fmt.Errorf("invalid price range %q", raw)
		}
		lo = decimal.NewNullDecimal(d)
	}
	if to = strings.TrimSpace(to); to != "" {
		d, err := decimal.NewFromString(to)
		if err != nil {
			return lo, hi, fmt.Errorf("invalid price range %q", raw)
		}
		hi = decimal.NewNullDecimal(d)
	}
	return lo, hi, nil
}

func (a *app) review(ctx context.Context, args []string) error {
	id, err := parseUUID(args, 0, "product id")
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return errUsage
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating %q", args[1])
	}

	p, err := checkout.SubmitReview(ctx, a.state, a.api, id, rating, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return a.print(p)
}

func (a *app) startSession(au *transport.AuthUser) error {
	if err := a.state.SetAuth(*au); err != nil {
		return err
	}
	a.api.SetToken(au.Token)
	au.Token = ""
	return a.print(au)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" || *password == "" {
		return errors.New("name, email and password are required")
	}
	if *password != *confirm {
		return errors.New("passwords do not match")
	}

	au, err := a.api.Register(ctx, transport.RegisterRequest{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	return a.startSession(au)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 || args[0] == "" || args[1] == "" {
		return errors.New("email and password are required")
	}
	au, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	return a.startSession(au)
}

// logout ends the local session even when the server cannot be reached.
func (a *app) logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		a.logger.Warn("logout_failed", "reason", "server did not revoke the token", "error", err)
	}
	if err := a.state.ClearAuth(); err != nil {
		return err
	}
	return a.print(transport.MessageResponse{Message: "Logged out successfully"})
}

func (a *app) profile(ctx context.Context, args []string) error {
	if err := a.state.RequireLogin(); err != nil {
		return err
	}
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "new name")
	email := fs.String("email", "", "new email")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" && *email == "" && *password == "" {
		au, err := a.api.Profile(ctx)
		if err != nil {
			return err
		}
		return a.print(au)
	}

	au, err := a.api.UpdateProfile(ctx, transport.ProfileRequest{Name: *name, Email: *email, Password: *password})
	if err != nil {
		return err
	}
	current := a.state.Auth()
	current.Name, current.Email = au.Name, au.Email
	if err := a.state.SetAuth(*current); err != nil {
		return err
	}
	return a.print(au)
}

func (a *app) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.print(a.cart.Cart())
	}

	switch args[0] {
	case "add":
		id, err := parseUUID(args, 1, "product id")
		if err != nil {
			return err
		}
		qty := 1
		if len(args) > 2 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
		}
		p, err := a.api.Product(ctx, id)
		if err != nil {
			return err
		}
		if err := a.cart.AddItem(*p, qty); err != nil {
			return err
		}
	case "remove":
		id, err := parseUUID(args, 1, "product id")
		if err != nil {
			return err
		}
		if err := a.cart.RemoveItem(id); err != nil {
			return err
		}
	case "clear":
		if err := a.cart.Clear(); err != nil {
			return err
		}
	case "sync":
		if err := a.state.RequireLogin(); err != nil {
			return err
		}
		if err := a.cart.Sync(ctx, a.api); err != nil {
			return err
		}
	default:
		return errUsage
	}
	return a.print(a.cart.Cart())
}

func (a *app) checkout(ctx context.Context, args []string) error {
	prefill := a.cart.Cart()
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	address := fs.String("address", prefill.ShippingAddress.Address, "street address")
	city := fs.String("city", prefill.ShippingAddress.City, "city")
	postal := fs.String("postal", prefill.ShippingAddress.PostalCode, "postal code")
	country := fs.String("country", prefill.ShippingAddress.Country, "country")
	payment := fs.String("payment", string(transport.PayPal), "payment method")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w, err := checkout.Begin(a.state, a.cart, a.api, a.methods)
	if err != nil {
		return err
	}
	if err := w.SubmitShipping(transport.ShippingAddress{Address: *address, City: *city, PostalCode: *postal, Country: *country}); err != nil {
		return err
	}
	if err := w.SubmitPayment(transport.PaymentMethod(*payment)); err != nil {
		return err
	}

	order, err := w.PlaceOrder(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("order_placed", "order_id", order.ID, "redirect", w.OrderPath())
	return a.print(order)
}

func (a *app) pay(ctx context.Context, args []string) error {
	if err := a.state.RequireLogin(); err != nil {
		return err
	}
	id, err := parseUUID(args, 0, "order id")
	if err != nil {
		return err
	}
	email := ""
	if au := a.state.Auth(); au != nil {
		email = au.Email
	}
	o, err := a.api.PayOrder(ctx, id, transport.PaymentResult{
		ID:           "STUB-" + uuid.NewString(),
		Status:       "COMPLETED",
		EmailAddress: email,
	})
	if err != nil {
		return err
	}
	return a.print(o)
}

func (a *app) theme(args []string) error {
	if len(args) == 0 {
		return a.print(map[string]appstate.Theme{"theme": a.state.Theme()})
	}
	if args[0] == "toggle" {
		t, err := a.state.ToggleTheme()
		if err != nil {
			return err
		}
		return a.print(map[string]appstate.Theme{"theme": t})
	}
	if err := a.state.SetTheme(appstate.Theme(args[0])); err != nil {
		return err
	}
	return a.print(map[string]appstate.Theme{"theme": a.state.Theme()})
}

func (a *app) admin(ctx context.Context, args []string) error {
	if err := a.state.RequireAdmin(); err != nil {
		return &checkout.RedirectError{To: checkout.PathLogin}
	}
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "users":
		users, err := a.api.Users(ctx)
		if err != nil {
			return err
		}
		return a.print(users)
	case "delete-user":
		id, err := parseUUID(args, 1, "user id")
		if err != nil {
			return err
		}
		if au := a.state.Auth(); au != nil && au.ID == id {
			return errors.New("cannot delete yourself")
		}
		if err := a.api.DeleteUser(ctx, id); err != nil {
			return err
		}
		return a.print(transport.MessageResponse{Message: "User removed"})
	case "orders":
		orders, err := a.api.Orders(ctx)
		if err != nil {
			return err
		}
		return a.print(orders)
	case "deliver":
		id, err := parseUUID(args, 1, "order id")
		if err != nil {
			return err
		}
		o, err := a.api.DeliverOrder(ctx, id)
		if err != nil {
			return err
		}
		return a.print(o)
	case "create-product":
		p, err := a.api.CreateProduct(ctx, nil)
		if err != nil {
			return err
		}
		return a.print(p)
	case "update-product":
		return a.updateProduct(ctx, args[1:])
	case "delete-product":
		id, err := parseUUID(args, 1, "product id")
		if err != nil {
			return err
		}
		if err := a.api.DeleteProduct(ctx, id); err != nil {
			return err
		}
		return a.print(transport.MessageResponse{Message: "Product removed"})
	case "upload":
		if len(args) < 2 {
			return errUsage
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		image, err := a.api.UploadImage(ctx, filepath.Base(args[1]), f)
		if err != nil {
			return err
		}
		return a.print(transport.UploadResponse{Message: "Image uploaded successfully", Image: image})
	}
	return errUsage
}

func (a *app) updateProduct(ctx context.Context, args []string) error {
	id, err := parseUUID(args, 0, "product id")
	if err != nil {
		return err
	}
	current, err := a.api.Product(ctx, id)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("update-product", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", current.Name, "name")
	price := fs.String("price", current.Price.String(), "price")
	image := fs.String("image", current.Image, "image path")
	brand := fs.String("brand", current.Brand, "brand")
	category := fs.String("category", current.Category, "category")
	stock := fs.Int("stock", current.CountInStock, "count in stock")
	description := fs.String("description", current.Description, "description")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		return fmt.Errorf("invalid price %q", *price)
	}
	p, err := a.api.UpdateProduct(ctx, id, transport.ProductRequest{
		Name:         *name,
		Price:        amount,
		Image:        *image,
		Brand:        *brand,
		Category:     *category,
		CountInStock: *stock,
		Description:  *description,
	})
	if err != nil {
		return err
	}
	return a.print(p)
}
