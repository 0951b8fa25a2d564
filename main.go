package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/TheJupiterDev/Bitpad/autosave"
	"github.com/TheJupiterDev/Bitpad/config"
	"github.com/TheJupiterDev/Bitpad/mcptools"
	"github.com/TheJupiterDev/Bitpad/persist"
	"github.com/TheJupiterDev/Bitpad/web"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "~/.bitpad.yaml", "configuration file")
	listen := flag.String("listen", "", "web UI address (overrides the config file)")
	verbosity := flag.Int("v", -1, "log verbosity (overrides the config file)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *listen, *verbosity); err != nil {
		fmt.Fprintf(os.Stderr, "bitpad: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, listen string, verbosity int) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	cfg = cfg.Resolved()
	if listen != "" {
		cfg.Listen = listen
	}
	if verbosity >= 0 {
		cfg.LogVerbosity = verbosity
	}

	if cfg.LogFile != "" {
		commonlog.Configure(cfg.LogVerbosity, &cfg.LogFile)
	} else {
		commonlog.Configure(cfg.LogVerbosity, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The previous session must be restored before any client can edit.
	app := newBitpadApp(
		persist.NewSnapshotStore(cfg.SnapshotPath),
		persist.NewBookmarkStore(cfg.BookmarksPath),
		autosave.Options{
			Interval: cfg.AutosaveInterval,
			Always:   cfg.AutosaveAlways,
		},
	)
	app.onQuit = cancel

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.saver.Run(ctx)
	}()

	mux := http.NewServeMux()
	mux.Handle("/", web.NewServer(app))
	if cfg.MCP {
		mux.Handle("/mcp", mcptools.Handler(mcptools.NewServer(mcptools.NewRegistry(app), version)))
		logger().Infof("MCP tools at http://%s/mcp", cfg.Listen)
	}

	server := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	logger().Noticef("bitpad listening on http://%s", cfg.Listen)
	err = server.ListenAndServe()
	cancel()
	<-done

	// Final write so nothing typed since the last tick is lost.
	app.saver.Flush()
	logger().Info("session saved")

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
