package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/toumakido/my-claude/todod/internal/model"
	"github.com/toumakido/my-claude/todod/internal/ui"
)

type ListConfig struct {
	*MainConfig
	List *cli.Command

	Group bool   `cli:"name=group desc='group output by pending/done'"`
	Where string `cli:"name=where desc='only show todos matching an expression over id, title, completed, order'"`
}

func ListCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ListConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.List, "ls").
		WithSynopsis("ls [-group] [-where expr]").
		WithDescription("list todos").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return list(cfg, cc, args)
		})
}

func list(cfg *ListConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.List.Parse(cc, args); err != nil {
		return err
	}
	var filter *ui.Filter
	if cfg.Where != "" {
		f, err := ui.CompileFilter(cfg.Where)
		if err != nil {
			return fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		filter = f
	}

	todos, err := cfg.client().List(context.Background())
	if err != nil {
		return err
	}
	if filter != nil {
		if todos, err = filter.Apply(todos); err != nil {
			return err
		}
	}
	cfg.printer(cc).Todos(todos, cfg.Group)
	return nil
}

type AddConfig struct {
	*MainConfig
	Add *cli.Command

	Order int `cli:"name=order desc='position of the new todo'"`
}

func AddCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &AddConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Add, "add").
		WithSynopsis("add [-order n] <title...>").
		WithDescription("create a todo").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return add(cfg, cc, args)
		})
}

func add(cfg *AddConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Add.Parse(cc, args)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("%w: add requires a title", cli.ErrUsage)
	}
	todo := model.Todo{Title: model.String(title)}
	if cfg.Order != 0 {
		todo.Order = model.Int(cfg.Order)
	}
	created, err := cfg.client().Create(context.Background(), todo)
	if err != nil {
		return err
	}
	p := cfg.printer(cc)
	p.OK("added")
	p.Todo(created)
	return nil
}

type DoneConfig struct {
	*MainConfig
	Done *cli.Command

	completed bool
}

// DoneCommand marks a todo completed, or pending again when completed is false.
func DoneCommand(mainCfg *MainConfig, name string, completed bool) *cli.Command {
	cfg := &DoneConfig{MainConfig: mainCfg, completed: completed}
	desc := "mark a todo completed"
	if !completed {
		desc = "mark a todo pending"
	}
	return cli.NewCommandAt(&cfg.Done, name).
		WithSynopsis(name + " <id>").
		WithDescription(desc).
		WithRun(func(cc *cli.Context, args []string) error {
			return done(cfg, cc, args)
		})
}

func done(cfg *DoneConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Done.Parse(cc, args)
	if err != nil {
		return err
	}
	id, err := idArg(args)
	if err != nil {
		return err
	}
	updated, err := cfg.client().Update(context.Background(), id, model.Todo{Completed: model.Bool(cfg.completed)})
	if err != nil {
		return err
	}
	p := cfg.printer(cc)
	p.OK("updated")
	p.Todo(updated)
	return nil
}

type RemoveConfig struct {
	*MainConfig
	Remove *cli.Command
}

func RemoveCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RemoveConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Remove, "rm").
		WithSynopsis("rm <id>").
		WithDescription("delete a todo").
		WithRun(func(cc *cli.Context, args []string) error {
			args, err := cfg.Remove.Parse(cc, args)
			if err != nil {
				return err
			}
			id, err := idArg(args)
			if err != nil {
				return err
			}
			if err := cfg.client().Delete(context.Background(), id); err != nil {
				return err
			}
			cfg.printer(cc).OK("removed")
			return nil
		})
}

type ClearConfig struct {
	*MainConfig
	Clear *cli.Command
}

func ClearCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ClearConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Clear, "clear").
		WithSynopsis("clear").
		WithDescription("delete every todo").
		WithRun(func(cc *cli.Context, args []string) error {
			if _, err := cfg.Clear.Parse(cc, args); err != nil {
				return err
			}
			if err := cfg.client().DeleteAll(context.Background()); err != nil {
				return err
			}
			cfg.printer(cc).OK("cleared")
			return nil
		})
}

func idArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected exactly one todo id", cli.ErrUsage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: not a number: %s", cli.ErrUsage, args[0])
	}
	return id, nil
}
