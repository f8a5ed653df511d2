// Command urtadmind runs the RCON administration daemon: it tails a
// Quake 3 / Urban Terror game log, applies moderation policy over
// RCON, and answers in-game chat commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spunkybot/urtadmind/internal/config"
	"github.com/spunkybot/urtadmind/internal/daemon"
	"github.com/spunkybot/urtadmind/internal/rcon"
	"github.com/spunkybot/urtadmind/internal/store"
)

const (
	configPathEnv = "URTADMIND_CONFIG"
	defaultConfig = "config/urtadmind.ini"

	dbPathEnv     = "URTADMIND_DB"
	defaultDBPath = "urtadmind.db"

	banlistPathEnv = "URTADMIND_BANLIST_LOG"

	rulesPathEnv     = "URTADMIND_RULES"
	defaultRulesPath = "rules.conf"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfgPath := defaultConfig
	if p := os.Getenv(configPathEnv); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "path", cfgPath, "server", cfg.Server.IP, "port", cfg.Server.Port)

	dbPath := defaultDBPath
	if p := os.Getenv(dbPathEnv); p != "" {
		dbPath = p
	}
	st, err := store.Open(ctx, dbPath, os.Getenv(banlistPathEnv))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	slog.Info("store opened and migrated", "path", dbPath)

	addr := fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port)
	client, err := rcon.NewClient(addr, cfg.Server.RconPassword)
	if err != nil {
		return fmt.Errorf("dialing rcon peer: %w", err)
	}
	defer client.Close()
	slog.Info("rcon client dialed", "addr", addr)

	d := daemon.New(cfg, st, client)

	rulesPath := defaultRulesPath
	if p := os.Getenv(rulesPathEnv); p != "" {
		rulesPath = p
	}
	if err := d.LoadRulesFile(rulesPath); err != nil {
		return fmt.Errorf("loading rules file: %w", err)
	}

	slog.Info("urtadmind starting")
	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	return nil
}
