package main

import (
	"os"

	"partyplanner/internal/api"
	"partyplanner/internal/config"
	appLog "partyplanner/internal/log"
	"partyplanner/internal/planner"
	"partyplanner/internal/state"
	"partyplanner/internal/web"
)

// app is the wired planner: config, API client, state store, and the web
// server acting as renderer.
type app struct {
	cfg     *config.Config
	planner *planner.Planner
	web     *web.Server
}

func newApp(configPath string) (*app, error) {
	appLog.Info("partyplanner starting", "version", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	srv, err := web.NewServer(cfg)
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.API.Root(), api.Options{
		Timeout:   cfg.API.Timeout(),
		UserAgent: cfg.API.UserAgent,
	})
	p := planner.New(client, state.NewStore(), srv)
	srv.Attach(p)

	return &app{cfg: cfg, planner: p, web: srv}, nil
}

func (a *app) logEffective() {
	appLog.Info("effective config",
		"listen", a.cfg.Listen,
		"api_root", a.cfg.API.Root(),
		"log_level", a.cfg.LogLevel,
		"refresh", a.cfg.RefreshCron,
		"show_errors", a.cfg.ShowErrors,
		"basic_auth", a.cfg.BasicAuth != nil && a.cfg.BasicAuth.Username != "",
	)
}
