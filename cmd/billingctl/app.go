package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/sagility/billingctl/internal/api"
	"github.com/sagility/billingctl/internal/config"
	"github.com/sagility/billingctl/internal/observability"
	"github.com/sagility/billingctl/internal/session"
)

// app bundles everything a command needs: config, the session store, the API
// client, and the session manager built on top of them.
type app struct {
	cfg       *config.Config
	store     session.Store
	client    *api.Client
	manager   *session.Manager
	cooldowns *session.Cooldowns
}

// newApp builds the command context from env and global flags. Flags win
// over environment values.
func newApp() (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.BaseURL = flagAPIURL
	}
	if flagStateDir != "" {
		cfg.StateDir = flagStateDir
	}
	if flagTimeout != "" {
		d, err := time.ParseDuration(flagTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}
	cfg.Verbose = flagVerbose

	store, err := session.NewFileStore(cfg.StateFile())
	if err != nil {
		return nil, err
	}

	opts := api.DefaultOptions()
	opts.Timeout = cfg.Timeout
	if cfg.Verbose {
		opts.Trace = observability.NewPrinter(os.Stderr)
	}
	client, err := api.NewClient(cfg.BaseURL, session.TokenSource(store), opts)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		store:     store,
		client:    client,
		manager:   session.NewManager(client, store, nil),
		cooldowns: session.NewCooldowns(store, nil),
	}, nil
}

// requireAuth fails fast when no session is held, before any request is made.
func (a *app) requireAuth() error {
	if !a.manager.Authenticated() {
		return fmt.Errorf("not logged in, run 'billingctl login' first")
	}
	return nil
}

// confirm asks the user before a destructive action. --yes skips the prompt.
func confirm(skip bool, message string) bool {
	if skip {
		return true
	}
	ok, _ := pterm.DefaultInteractiveConfirm.Show(message)
	return ok
}
