package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"partyplanner/internal/capture"
	"partyplanner/internal/ics"
	appLog "partyplanner/internal/log"
	"partyplanner/internal/schedule"
)

const version = "0.1.0"

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:           "partyplanner",
		Usage:          "Browse, create and delete parties on the cohort party API.",
		Version:        version,
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./partyplanner.yaml",
				Usage:   "Path to config file (created with defaults on first run)",
				EnvVars: []string{"PARTYPLANNER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			snapshotCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("partyplanner failed", err)
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Load the party lists and serve the planner page.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c.String("config"))
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				a.cfg.Listen = l
			}
			a.logEffective()

			ctx, cancel := signalContext()
			defer cancel()

			// Load failures are logged per list; the page still serves.
			_ = a.planner.Bootstrap(ctx)

			if a.cfg.RefreshCron != "" {
				r, err := schedule.New(a.cfg.RefreshCron, a.planner.Bootstrap)
				if err != nil {
					return err
				}
				go func() { _ = r.Run(ctx) }()
			}

			err = a.web.ListenAndServe(ctx)
			appLog.Info("partyplanner exiting")
			return err
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Render the planner page in headless Chromium and save a PNG.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Output PNG path (defaults to snapshot.path)"},
			&cli.StringFlag{Name: "url", Usage: "Capture a running planner instead of a temporary local one"},
			&cli.IntFlag{Name: "select", Usage: "Party id to show in the detail view"},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c.String("config"))
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			opts := capture.CaptureOptions{
				OutputPath: a.cfg.Snapshot.Path,
				Width:      a.cfg.Snapshot.Width,
				Height:     a.cfg.Snapshot.Height,
				Timeout:    time.Duration(a.cfg.Snapshot.TimeoutSeconds) * time.Second,
			}
			if out := c.String("out"); out != "" {
				opts.OutputPath = out
			}

			if remote := c.String("url"); remote != "" {
				opts.URL = remote
				if ba := a.cfg.BasicAuth; ba != nil && ba.Password != "" {
					opts.Username, opts.Password = ba.Username, ba.Password
				}
				return runCapture(ctx, opts)
			}

			// The temporary server only listens on loopback for the
			// duration of the capture, so it skips basic auth.
			a.cfg.BasicAuth = nil
			_ = a.planner.Bootstrap(ctx)
			if id := c.Int("select"); id != 0 {
				if _, err := a.planner.SelectParty(ctx, id); err != nil {
					return fmt.Errorf("select party %d: %w", id, err)
				}
			}

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return err
			}
			serveCtx, stop := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- a.web.Serve(serveCtx, ln) }()

			opts.URL = "http://" + ln.Addr().String() + "/"
			capErr := runCapture(ctx, opts)
			stop()
			if err := <-done; err != nil {
				appLog.Error("snapshot server stopped with error", err)
			}
			return capErr
		},
	}
}

func runCapture(ctx context.Context, opts capture.CaptureOptions) error {
	start := time.Now()
	if err := capture.CapturePagePNG(ctx, opts); err != nil {
		return err
	}
	appLog.Info("snapshot written",
		"url", opts.URL,
		"path", opts.OutputPath,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Fetch the party list and write it as an iCalendar feed.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output .ics path (default stdout)"},
			&cli.StringFlag{Name: "name", Value: "Party Planner", Usage: "Calendar display name"},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp(c.String("config"))
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if err := a.planner.LoadParties(ctx); err != nil {
				return err
			}
			snap := a.planner.Store().Snapshot()
			body := ics.Export(snap.Parties, ics.ExportOptions{
				Source: a.cfg.API.Root(),
				Name:   c.String("name"),
			})

			out := c.String("out")
			if out == "" {
				_, err := io.WriteString(c.App.Writer, body)
				return err
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return err
			}
			appLog.Info("calendar exported", "path", out, "party_count", len(snap.Parties))
			return nil
		},
	}
}
