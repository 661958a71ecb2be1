package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mindcareplus/mindcare/client/internal/api"
	"github.com/mindcareplus/mindcare/client/internal/config"
	"github.com/mindcareplus/mindcare/client/internal/router"
	"github.com/mindcareplus/mindcare/client/internal/session"
	"github.com/mindcareplus/mindcare/client/internal/storage"
	"github.com/mindcareplus/mindcare/client/pkg/logger"
)

type app struct {
	store  *session.Store
	client *api.Client
	nav    *router.Navigator
}

func main() {
	cmd := flag.String("cmd", "whoami", "Command: login|register|logout|whoami|upgrade|checkins|resources|navigate")
	email := flag.String("email", "", "Account email (login/register)")
	code := flag.String("code", "", "Upgrade code (upgrade)")
	limit := flag.Int("limit", 0, "Number of check-ins (checkins, default 7)")
	path := flag.String("path", "/dashboard", "Location to navigate to (navigate)")
	serverFlag := flag.String("server", "", "Override API base URL (e.g. https://api.example.com)")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		fail(err)
	}
	if *serverFlag != "" {
		cfg.API.BaseURL = strings.TrimRight(*serverFlag, "/")
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	ctx := context.Background()
	a, closeFn, err := setup(ctx, cfg)
	if err != nil {
		fail(err)
	}
	defer closeFn()

	out, err := a.run(ctx, *cmd, options{email: *email, code: *code, limit: *limit, path: *path})
	if err != nil {
		fail(err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func setup(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	closeFn := func() {}
	if c, ok := st.(storage.Closer); ok {
		closeFn = func() { _ = c.Close(context.Background()) }
	}

	authClient := api.NewClient(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.AuthTimeout}, nil)
	store := session.NewStore(st, authClient)
	store.Hydrate(ctx)

	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	nav, err := router.NewNavigator(table, store)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return &app{
		store:  store,
		client: api.NewClient(api.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, store),
		nav:    nav,
	}, closeFn, nil
}

type options struct {
	email string
	code  string
	limit int
	path  string
}

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, cmd string, o options) (interface{}, error) {
	switch cmd {
	case "login", "register":
		if o.email == "" {
			return nil, fmt.Errorf("%w: -email required", errUsage)
		}
		password := os.Getenv("MINDCARE_PASSWORD")
		if password == "" {
			return nil, fmt.Errorf("%w: set MINDCARE_PASSWORD", errUsage)
		}
		call := a.store.Login
		if cmd == "register" {
			call = a.store.Register
		}
		res, err := call(ctx, o.email, password)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"authenticated": a.store.IsAuthenticated(), "user": res.User}, nil
	case "logout":
		a.store.Logout(ctx)
		return map[string]bool{"ok": true}, nil
	case "whoami":
		p, err := a.store.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		out := map[string]interface{}{"authenticated": a.store.IsAuthenticated(), "user": p, "plan": a.store.Plan()}
		if exp, ok := a.store.CredentialExpiry(); ok {
			out["expires_at"] = exp.UTC().Format(time.RFC3339)
		}
		return out, nil
	case "upgrade":
		if o.code == "" {
			return nil, fmt.Errorf("%w: -code required", errUsage)
		}
		cred := a.store.Snapshot().Credential
		res, err := a.client.Upgrade(ctx, o.code)
		if err != nil {
			return nil, err
		}
		a.store.ApplyPlan(ctx, cred, res.Plan)
		return res, nil
	case "checkins":
		return a.client.RecentCheckIns(ctx, o.limit)
	case "resources":
		return a.client.Resources(ctx)
	case "navigate":
		res, err := a.nav.Visit(ctx, o.path)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"location":  res.Match.FullPath(),
			"route":     res.Match.Name,
			"title":     a.nav.Title(),
			"redirects": res.Redirects,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func fail(err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "Error: %d %s\n", apiErr.StatusCode, apiErr.Body)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
