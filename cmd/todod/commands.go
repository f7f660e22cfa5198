package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/scott-cotton/cli"

	"github.com/toumakido/my-claude/todod/internal/client"
	"github.com/toumakido/my-claude/todod/internal/ui"
)

const usageText = `todod - todo list HTTP service backed by Redis

Usage:
  todod serve [-config file] [-host h] [-port p] [-backend b] [-gops]
  todod [-server url] ls [-group] [-where expr]
  todod [-server url] add [-order n] <title...>
  todod [-server url] done <id>
  todod [-server url] undo <id>
  todod [-server url] rm <id>
  todod [-server url] clear

Examples:
  todod serve -config todod.yaml
  todod add buy milk
  todod ls -where '!completed && order < 3'
  todod done 2`

type MainConfig struct {
	Server string `cli:"name=server desc='todod server URL' default=http://localhost:8082"`
	Color  string `cli:"name=color desc='colour output: auto, always or never' default=auto"`

	Main *cli.Command
}

func (cfg *MainConfig) client() *client.Client {
	return client.New(cfg.Server, &http.Client{Timeout: 10 * time.Second})
}

func (cfg *MainConfig) printer(cc *cli.Context) *ui.Printer {
	return ui.NewPrinter(cc.Out, os.Stderr, cfg.Color)
}

func MainCommand() *cli.Command {
	cfg := &MainConfig{Server: "http://localhost:8082", Color: "auto"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "todod").
		WithSynopsis("todod [opts] command [opts]").
		WithDescription(usageText).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return todoMain(cfg, cc, args)
		}).
		WithSubs(
			ServeCommand(cfg),
			ListCommand(cfg),
			AddCommand(cfg),
			DoneCommand(cfg, "done", true),
			DoneCommand(cfg, "undo", false),
			RemoveCommand(cfg),
			ClearCommand(cfg))
}

func todoMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	switch cfg.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: -color must be auto, always or never", cli.ErrUsage)
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}
