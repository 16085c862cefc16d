package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"memochat/internal/api"
	"memochat/internal/auth"
	"memochat/internal/config"
	"memochat/internal/directory"
	"memochat/internal/localstate"
	"memochat/internal/logging"
	"memochat/internal/memory"
	"memochat/internal/repl"
	"memochat/internal/tokens"
	"memochat/internal/transcript"
	"memochat/internal/tui"
)

func main() {
	var (
		configPath string
		serverURL  string
		plain      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON/JSONC")
	flag.StringVar(&serverURL, "server", "", "Backend base URL override")
	flag.BoolVar(&plain, "plain", false, "Line-oriented mode instead of the full-screen UI")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if s := strings.TrimSpace(serverURL); s != "" {
		cfg.Server.BaseURL = strings.TrimRight(s, "/")
	}

	if err := logging.Init(cfg.LogFilePath(), cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "init logging failed: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	state, err := localstate.Open(cfg.StateDBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open state db failed: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	authMgr, err := auth.NewManager(state)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init auth failed: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(api.Config{
		BaseURL:   cfg.Server.BaseURL,
		TimeoutMS: cfg.Server.TimeoutMS,
		Tokens:    authMgr,
	})
	authMgr.SetClient(client)

	store := transcript.NewStore()
	dir := directory.New(client, state)
	pipeline := transcript.NewPipeline(store, client, cfg.Chat.Reasoning)
	memories := memory.NewManager(client)

	logging.InfoWithFields("client starting", logging.Fields{
		"server": cfg.Server.BaseURL,
		"plain":  plain,
	})

	if plain {
		loop, err := repl.New(repl.Deps{
			Config:    cfg,
			Client:    client,
			Auth:      authMgr,
			Directory: dir,
			Store:     store,
			Pipeline:  pipeline,
			Memories:  memories,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "init repl failed: %v\n", err)
			os.Exit(1)
		}
		if err := loop.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "repl failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	err = tui.Run(tui.Deps{
		Config:    cfg,
		Client:    client,
		Auth:      authMgr,
		Directory: dir,
		Store:     store,
		Pipeline:  pipeline,
		Memories:  memories,
		Counter:   tokens.Default(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ui failed: %v\n", err)
		os.Exit(1)
	}
}
