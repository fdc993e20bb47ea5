package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"streamchat/client"
	"streamchat/config"
	"streamchat/provider"
	"streamchat/server"
	"streamchat/ui"
)

const Version = "v0.1.0"

const usage = `streamchat %s

Usage:
  streamchat [serve] [-config path] [-addr host:port] [-init]
  streamchat chat [-config path] [-url http://host:port]
  streamchat version
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "chat":
		err = runChat(args)
	case "version":
		fmt.Println(Version)
	case "help":
		fmt.Printf(usage, Version)
	default:
		fmt.Fprintf(os.Stderr, usage, Version)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	config.InitDebugLog(cfg.DataDir())
	return cfg, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "settings file (default "+config.GetSettingsFilePath()+")")
	addr := fs.String("addr", "", "listen address, overrides the settings file")
	initSettings := fs.Bool("init", false, "write a default settings file and exit")
	fs.Parse(args)

	if *initSettings {
		path := *configPath
		if path == "" {
			path = config.GetSettingsFilePath()
		}
		path = config.ExpandPath(path)
		created, err := config.CreateDefaultSettings(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Wrote %s\n", path)
		} else {
			fmt.Printf("%s already exists\n", path)
		}
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := provider.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	logger := log.New(os.Stderr, "[streamchat] ", log.LstdFlags)
	srv := server.New(server.Config{
		Addr:         cfg.Addr,
		MaxBodyBytes: cfg.MaxBodyBytes,
		ProviderName: cfg.ProviderType,
	}, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Printf("SERVER_SHUTDOWN | signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runChat(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "", "settings file (default "+config.GetSettingsFilePath()+")")
	url := fs.String("url", "", "chat server URL, overrides the settings file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	serverURL := cfg.ServerURL
	if *url != "" {
		serverURL = *url
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := client.NewSession(serverURL)
	p := tea.NewProgram(
		ui.NewAppView(ctx, session, serverURL),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running streamchat: %w", err)
	}
	return nil
}
