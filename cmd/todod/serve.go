package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"

	"github.com/toumakido/my-claude/todod/internal/api"
	"github.com/toumakido/my-claude/todod/internal/config"
	"github.com/toumakido/my-claude/todod/internal/handler"
	"github.com/toumakido/my-claude/todod/internal/model"
	"github.com/toumakido/my-claude/todod/internal/store"
)

const seedTimeout = 5 * time.Second

type ServeConfig struct {
	*MainConfig
	Serve *cli.Command

	ConfigFile string `cli:"name=config desc='configuration file (yaml)'"`
	Host       string `cli:"name=host desc='HTTP bind host, overrides config'"`
	Port       int    `cli:"name=port desc='HTTP port, overrides config'"`
	Backend    string `cli:"name=backend desc='store backend: redis or memory, overrides config'"`
	Gops       bool   `cli:"name=gops desc='start the gops diagnostics agent'"`
}

func ServeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ServeConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Serve, "serve").
		WithSynopsis("serve [-config file] [-host h] [-port p] [-backend b] [-gops]").
		WithDescription("run the todo HTTP server").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}

// loadConfig layers defaults, the config file, TODO_* variables and flags.
func (cfg *ServeConfig) loadConfig() (*config.Config, error) {
	c := config.DefaultConfig()
	if cfg.ConfigFile != "" {
		var err error
		c, err = config.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.Host != "" {
		c.HTTP.Host = cfg.Host
	}
	if cfg.Port != 0 {
		c.HTTP.Port = cfg.Port
	}
	if cfg.Backend != "" {
		c.Store.Backend = cfg.Backend
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	c, err := cfg.loadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := config.NewLogger(c.Log, os.Stdout)

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Warn("gops agent failed", "error", err)
		}
		defer agent.Close()
	}

	s, ids, err := store.Open(c.StoreOptions())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()
	log.Info("store opened",
		"backend", c.Store.Backend,
		"addr", c.StoreOptions().Addr,
		"namespace", c.Store.Namespace,
		"ids", c.IDs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Seed {
		seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
		store.Seed(seedCtx, s, model.Seed(), log)
		cancel()
	}

	todos := handler.NewTodoHandler(s, ids, handler.Options{
		BasePath:     c.HTTP.BasePath,
		StoreTimeout: c.Store.Timeout,
		Logger:       log,
	})
	srv := api.NewServer(todos, api.ServerOptions{
		Addr:   c.HTTPAddr(),
		Logger: log,
	})
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.HTTPAddr(), err)
	}

	<-ctx.Done()
	log.Info("shutting down")
	if err := srv.Stop(context.Background()); err != nil {
		log.Warn("graceful shutdown failed", "error", err)
	}
	return nil
}
