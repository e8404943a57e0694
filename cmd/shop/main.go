// Command shop is a terminal storefront client.
//
//	shop products -keyword phone
//	shop cart add <product-id> 2
//	shop checkout -address "1 Main St" -city Springfield -postal 12345 -country US
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/echoshop/internal/appstate"
	"github.com/Skotchmaster/echoshop/internal/cart"
	"github.com/Skotchmaster/echoshop/internal/checkout"
	"github.com/Skotchmaster/echoshop/internal/client"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/config"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient(nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(cfg, os.Stdout, logging.NewTo(os.Stderr, cfg.LogLevel))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

type app struct {
	state   *appstate.State
	api     *client.Client
	cart    *cart.Manager
	methods []transport.PaymentMethod
	out     io.Writer
	logger  *slog.Logger
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func newApp(cfg config.Client, out io.Writer, logger *slog.Logger) (*app, error) {
	path, err := expandHome(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	store := appstate.NewFileStore(path)

	st, err := appstate.Open(store)
	if err != nil {
		return nil, err
	}
	rules, err := pricing.FromConfig(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	methods, err := transport.ParsePaymentMethods(cfg.Pricing.PaymentMethods)
	if err != nil {
		return nil, err
	}
	mgr, err := cart.Load(store, rules)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.APIURL, cfg.HTTPTimeout, client.WithLogger(logger))
	api.SetToken(st.Token())

	return &app{state: st, api: api, cart: mgr, methods: methods, out: out, logger: logger}, nil
}

// describe turns err into the line shown to the user.
func describe(err error) string {
	var re *checkout.RedirectError
	if errors.As(err, &re) {
		return "redirect: " + re.Location()
	}
	var ae *client.APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
